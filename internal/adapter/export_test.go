package adapter

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/storyloom/internal/markdown"
	"github.com/templui/storyloom/internal/model"
)

func exportStory() *model.Story {
	return &model.Story{
		ID:         "story-1",
		Title:      "The Lantern Festival",
		Content:    "Lanterns rose over the river.\n\nThe whole *village* watched.",
		Region:     "Asia",
		Theme:      "Festivals",
		AuthorName: "mei",
		CreatedAt:  time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		Tags:       []*model.Tag{{Name: "lanterns"}, {Name: "festival"}},
		ImageURL:   "https://img.example/lantern.png",
	}
}

func TestExportFormats(t *testing.T) {
	a := NewExportAdapter(nil)
	require.True(t, a.IsAvailable())

	tests := []struct {
		format      string
		contentType string
		check       func(t *testing.T, data []byte)
	}{
		{FormatTXT, "text/plain; charset=utf-8", func(t *testing.T, data []byte) {
			assert.True(t, strings.HasPrefix(string(data), "The Lantern Festival\nBy mei\nRegion: Asia\n"))
		}},
		{FormatMD, "text/markdown; charset=utf-8", func(t *testing.T, data []byte) {
			doc, err := markdown.NewParser().ParseDocument(data)
			require.NoError(t, err)
			assert.Equal(t, "The Lantern Festival", doc.Title)
			assert.Equal(t, "Asia", doc.Region)
			assert.Equal(t, []string{"lanterns", "festival"}, []string(doc.Tags))
			assert.Equal(t, "2024-02-10", doc.Date)
			assert.Contains(t, doc.Body, "Lanterns rose over the river.")
		}},
		{FormatHTML, "text/html; charset=utf-8", func(t *testing.T, data []byte) {
			assert.Contains(t, string(data), "<h1>The Lantern Festival</h1>")
			assert.Contains(t, string(data), "<em>village</em>")
		}},
		{FormatPDF, "application/pdf", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
		}},
		{FormatEPUB, "application/epub+zip", func(t *testing.T, data []byte) {
			assert.True(t, bytes.HasPrefix(data, []byte("PK")))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			res := a.Invoke(context.Background(), ExportInput{Story: exportStory(), Format: tt.format})

			require.True(t, res.Success, res.Error)
			assert.Equal(t, "the-lantern-festival."+tt.format, res.Payload.Filename)
			assert.Equal(t, tt.contentType, res.Payload.ContentType)
			tt.check(t, res.Payload.Data)
		})
	}
}

func TestExportEscapesTitleInHTML(t *testing.T) {
	story := exportStory()
	story.Title = "<script>alert(1)</script>"

	res := NewExportAdapter(nil).Invoke(context.Background(), ExportInput{Story: story, Format: FormatHTML})

	require.True(t, res.Success, res.Error)
	assert.NotContains(t, string(res.Payload.Data), "<script>")
	assert.Equal(t, "script-alert-1-script.html", res.Payload.Filename)
}

func TestExportUnsupportedFormat(t *testing.T) {
	res := NewExportAdapter(nil).Invoke(context.Background(), ExportInput{Story: exportStory(), Format: "docx"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unsupported export format")
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) Save(_ context.Context, key string, body io.Reader, contentType string) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) URL(key string) string {
	return "https://bucket.example/" + key
}

func TestStorageAdapterUploads(t *testing.T) {
	store := newMemoryStore()
	a := NewStorageAdapter(store, fastRetry(1))

	res := a.Invoke(context.Background(), StorageInput{
		Folder:      "stories/media",
		Filename:    "Photo.JPG",
		ContentType: "image/jpeg",
		Body:        []byte("jpeg-bytes"),
	})

	require.True(t, res.Success, res.Error)
	assert.True(t, strings.HasPrefix(res.Payload.Key, "stories/media/"))
	assert.True(t, strings.HasSuffix(res.Payload.Key, ".jpg"))
	assert.Equal(t, "https://bucket.example/"+res.Payload.Key, res.Payload.URL)
	assert.Equal(t, ResourceImage, res.Payload.ResourceType)
	assert.Equal(t, int64(10), res.Payload.Size)
	assert.Equal(t, []byte("jpeg-bytes"), store.objects[res.Payload.Key])
}

func TestStorageAdapterRejectsEmptyBody(t *testing.T) {
	a := NewStorageAdapter(newMemoryStore(), fastRetry(1))

	res := a.Invoke(context.Background(), StorageInput{Filename: "a.png"})

	assert.False(t, res.Success)
}

func TestStorageAdapterUnavailableWithoutStore(t *testing.T) {
	a := NewStorageAdapter(nil, fastRetry(1))
	assert.False(t, a.IsAvailable())
}

func TestResourceType(t *testing.T) {
	assert.Equal(t, ResourceImage, ResourceType("image/png"))
	assert.Equal(t, ResourceVideo, ResourceType("video/mp4"))
	assert.Equal(t, ResourceAudio, ResourceType("audio/mpeg"))
	assert.Equal(t, ResourceRaw, ResourceType("application/pdf"))
}
