package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/templui/storyloom/internal/config"
	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/model"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// StaticFS serves the stylesheet and script under /static/.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"excerpt": func(s *model.Story, n int) string {
		return s.Excerpt(n)
	},
	"query": url.QueryEscape,
	"upper": strings.ToUpper,
	"add":   func(a, b int) int { return a + b },
}

// pages holds one template set per page, each sharing the layout and partials.
// TODO: port templates/pages to .templ components and drop html/template once `templ generate` runs in the build.
var pages = mustParsePages()

func mustParsePages() map[string]*template.Template {
	base := template.Must(template.New("layout").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.html",
		"templates/partials.html",
	))

	entries, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		panic(err)
	}

	out := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(entry[strings.LastIndex(entry, "/")+1:], ".html")
		t := template.Must(template.Must(base.Clone()).ParseFS(templateFS, entry))
		out[name] = t
	}
	return out
}

// View is what every page template receives.
type View struct {
	Title     string
	User      *model.User
	Config    *config.Config
	CSRFToken string
	Nonce     string
	Path      string
	Data      any
}

func (v View) AppName() string {
	if v.Config == nil || v.Config.AppName == "" {
		return "Storyloom"
	}
	return v.Config.AppName
}

// page renders the named page template inside the layout.
func page(name, title string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}

		return t.ExecuteTemplate(w, "layout", View{
			Title:     title,
			User:      ctxkeys.User(ctx),
			Config:    ctxkeys.Config(ctx),
			CSRFToken: ctxkeys.CSRFToken(ctx),
			Nonce:     templ.GetNonce(ctx),
			Path:      ctxkeys.URLPath(ctx),
			Data:      data,
		})
	})
}
