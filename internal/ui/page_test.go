package ui

import (
	"bytes"
	"context"
	"html/template"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/storyloom/internal/ctxkeys"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/service"
)

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))
	return buf.String()
}

func TestPagesParse(t *testing.T) {
	for _, name := range []string{"home", "gallery", "story", "submit", "login", "register", "profile", "notfound"} {
		assert.Contains(t, pages, name)
	}
}

func TestLayoutCarriesNonceAndCSRF(t *testing.T) {
	ctx := templ.WithNonce(context.Background(), "n0nce")
	ctx = ctxkeys.WithCSRFToken(ctx, "tok3n")

	html := render(t, ctx, NotFound())
	assert.Contains(t, html, `nonce="n0nce"`)
	assert.Contains(t, html, `content="tok3n"`)
	assert.Contains(t, html, "Page not found")
	assert.Contains(t, html, `href="/auth/login"`)
}

func TestStoryDetailEscapesComments(t *testing.T) {
	story := &model.Story{
		ID:         "s1",
		Title:      "Lanterns",
		Region:     "Asia",
		Status:     model.StoryStatusPublished,
		AuthorName: "mei",
		CreatedAt:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	html := render(t, context.Background(), StoryDetail(StoryData{
		Story:         story,
		ContentHTML:   template.HTML("<p>Rendered <em>markdown</em></p>"),
		Comments:      []*model.Comment{{ID: "c1", Content: "<script>alert(1)</script>", AuthorName: "amara"}},
		ExportFormats: []string{"md", "pdf"},
	}))

	assert.Contains(t, html, "<em>markdown</em>")
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, `/api/stories/s1/export?format=pdf`)
	assert.Contains(t, html, "Feb 1, 2026")
}

func TestGalleryPagination(t *testing.T) {
	data := GalleryData{
		Page: &service.GalleryPage{
			Stories:    []*model.Story{{ID: "s1", Title: "Injera", Region: "Africa"}},
			Total:      25,
			Page:       2,
			PageSize:   12,
			TotalPages: 3,
		},
		Filter:  service.GalleryFilter{Region: "Africa", Sort: "popular"},
		Regions: model.Regions,
		Themes:  model.Themes,
	}

	html := render(t, context.Background(), Gallery(data))
	assert.Contains(t, html, "Page 2 of 3")
	assert.Contains(t, html, `href="/gallery?region=Africa&amp;sort=popular"`)
	assert.Contains(t, html, `href="/gallery?page=3&amp;region=Africa&amp;sort=popular"`)
}

func TestGalleryURL(t *testing.T) {
	assert.Equal(t, "/gallery", galleryURL(service.GalleryFilter{}, 1))
	assert.Equal(t, "/gallery?page=2&tag=lunar+new+year", galleryURL(service.GalleryFilter{Tag: "lunar new year"}, 2))
}
