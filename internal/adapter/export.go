package adapter

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/go-shiori/go-epub"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/markdown"
	"github.com/templui/storyloom/internal/model"
)

const (
	FormatTXT  = "txt"
	FormatMD   = "md"
	FormatHTML = "html"
	FormatPDF  = "pdf"
	FormatEPUB = "epub"
)

var ExportFormats = []string{FormatTXT, FormatMD, FormatHTML, FormatPDF, FormatEPUB}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

type ExportInput struct {
	Story  *model.Story
	Format string
}

// Document is an exported story file.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportAdapter renders stories as downloadable documents. It has no external dependency and is always available.
type ExportAdapter struct {
	capability.Base
	parser *markdown.Parser
}

func NewExportAdapter(parser *markdown.Parser) *ExportAdapter {
	if parser == nil {
		parser = markdown.NewParser()
	}
	return &ExportAdapter{
		Base:   capability.NewBase(capability.Export, true),
		parser: parser,
	}
}

func (a *ExportAdapter) Invoke(ctx context.Context, in ExportInput) capability.Result[Document] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.export(in))
}

func (a *ExportAdapter) export(in ExportInput) capability.Result[Document] {
	if in.Story == nil {
		return capability.Failf[Document]("no story provided")
	}

	format := strings.ToLower(strings.TrimSpace(in.Format))
	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case FormatTXT:
		data, contentType = a.text(in.Story), "text/plain; charset=utf-8"
	case FormatMD:
		data, err = a.markdown(in.Story)
		contentType = "text/markdown; charset=utf-8"
	case FormatHTML:
		data, err = a.html(in.Story)
		contentType = "text/html; charset=utf-8"
	case FormatPDF:
		data, err = a.pdf(in.Story)
		contentType = "application/pdf"
	case FormatEPUB:
		data, err = a.epub(in.Story)
		contentType = "application/epub+zip"
	default:
		return capability.Failf[Document]("unsupported export format %q (supported: %s)", in.Format, strings.Join(ExportFormats, ", "))
	}
	if err != nil {
		return capability.Failf[Document]("failed to export story as %s: %v", format, err)
	}

	return capability.OK(Document{
		Filename:    exportFilename(in.Story.Title, format),
		ContentType: contentType,
		Data:        data,
	})
}

func (a *ExportAdapter) text(s *model.Story) []byte {
	var b strings.Builder
	b.WriteString(s.Title + "\n")
	if s.AuthorName != "" {
		b.WriteString("By " + s.AuthorName + "\n")
	}
	b.WriteString("Region: " + s.Region + "\n")
	if s.Theme != "" {
		b.WriteString("Theme: " + s.Theme + "\n")
	}
	b.WriteString("\n" + strings.TrimSpace(s.Content) + "\n")
	return []byte(b.String())
}

func (a *ExportAdapter) markdown(s *model.Story) ([]byte, error) {
	meta := markdown.Metadata{
		Title:  s.Title,
		Author: s.AuthorName,
		Region: s.Region,
		Theme:  s.Theme,
		Tags:   tagNames(s.Tags),
	}
	if !s.CreatedAt.IsZero() {
		meta.Date = s.CreatedAt.Format(time.DateOnly)
	}
	for _, url := range []string{s.ImageURL, s.MediaURL, s.AudioURL, s.SoundtrackURL, s.VideoURL} {
		if url != "" {
			meta.Media = append(meta.Media, url)
		}
	}
	return markdown.Compose(meta, s.Content)
}

func (a *ExportAdapter) body(s *model.Story) (string, error) {
	rendered, err := a.parser.Render([]byte(s.Content))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(s.Title))
	b.WriteString(`<p class="meta">`)
	if s.AuthorName != "" {
		fmt.Fprintf(&b, "By %s<br/>", html.EscapeString(s.AuthorName))
	}
	fmt.Fprintf(&b, "Region: %s</p>\n", html.EscapeString(s.Region))
	fmt.Fprintf(&b, "<div class=\"content\">%s</div>\n", rendered)
	return b.String(), nil
}

func (a *ExportAdapter) html(s *model.Story) ([]byte, error) {
	body, err := a.body(s)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(s.Title))
	b.WriteString("<style>body{font-family:Arial,sans-serif;max-width:40em;margin:2em auto;line-height:1.6}.meta{color:#666}</style>\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String()), nil
}

func (a *ExportAdapter) pdf(s *model.Story) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(s.Title, true)
	if s.AuthorName != "" {
		pdf.SetAuthor(s.AuthorName, true)
	}
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 10, tr(s.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(102, 102, 102)
	meta := "Region: " + s.Region
	if s.AuthorName != "" {
		meta = "By " + s.AuthorName + " | " + meta
	}
	pdf.MultiCell(0, 6, tr(meta), "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	for paragraph := range strings.SplitSeq(strings.TrimSpace(s.Content), "\n\n") {
		pdf.MultiCell(0, 6, tr(strings.TrimSpace(paragraph)), "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *ExportAdapter) epub(s *model.Story) ([]byte, error) {
	book, err := epub.NewEpub(s.Title)
	if err != nil {
		return nil, err
	}
	book.SetLang("en")
	book.SetIdentifier("urn:storyloom:" + s.ID)
	if s.AuthorName != "" {
		book.SetAuthor(s.AuthorName)
	}

	body, err := a.body(s)
	if err != nil {
		return nil, err
	}
	_, err = book.AddSection(body, s.Title, "story.xhtml", "")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	_, err = book.WriteTo(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tagNames(tags []*model.Tag) []string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return names
}

func exportFilename(title, format string) string {
	slug := strings.Trim(unsafeFilenameChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if slug == "" {
		slug = "story"
	}
	return slug + "." + format
}
