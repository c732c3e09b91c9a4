package adapter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/storage"
)

const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceAudio = "audio"
	ResourceRaw   = "raw"
)

type StorageInput struct {
	Folder      string
	Filename    string
	ContentType string
	Body        []byte
}

type StorageOutput struct {
	Key          string `json:"key"`
	URL          string `json:"url"`
	ResourceType string `json:"resource_type"`
	Size         int64  `json:"size"`
}

// StorageAdapter uploads media objects to the configured object store.
type StorageAdapter struct {
	capability.Base
	store storage.Storage
	retry capability.RetryPolicy
}

func NewStorageAdapter(store storage.Storage, retry capability.RetryPolicy) *StorageAdapter {
	return &StorageAdapter{
		Base:  capability.NewBase(capability.Storage, store != nil),
		store: store,
		retry: retry,
	}
}

// Store exposes the underlying object store for URL resolution and cleanup.
func (a *StorageAdapter) Store() storage.Storage {
	return a.store
}

func (a *StorageAdapter) Invoke(ctx context.Context, in StorageInput) capability.Result[StorageOutput] {
	start := time.Now()
	return capability.Observe(a.Name(), start, a.upload(ctx, in))
}

func (a *StorageAdapter) upload(ctx context.Context, in StorageInput) capability.Result[StorageOutput] {
	if !a.IsAvailable() {
		return capability.Fail[StorageOutput](capability.ErrUnavailable)
	}
	if len(in.Body) == 0 {
		return capability.Failf[StorageOutput]("no file data provided")
	}

	key := ObjectKey(in.Folder, in.Filename)
	attempts, err := a.retry.Do(ctx, a.Name(), func(ctx context.Context) error {
		return a.store.Save(ctx, key, bytes.NewReader(in.Body), in.ContentType)
	})
	if err != nil {
		slog.Error("media upload failed", "error", err, "key", key, "attempts", attempts)
		return capability.Failf[StorageOutput]("media upload failed: %v", err)
	}

	return capability.OK(StorageOutput{
		Key:          key,
		URL:          a.store.URL(key),
		ResourceType: ResourceType(in.ContentType),
		Size:         int64(len(in.Body)),
	})
}

// ObjectKey builds a unique key under folder that keeps the original file extension.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)
}

// ResourceType classifies a MIME type into a media resource type.
func ResourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return ResourceImage
	case strings.HasPrefix(contentType, "video/"):
		return ResourceVideo
	case strings.HasPrefix(contentType, "audio/"):
		return ResourceAudio
	default:
		return ResourceRaw
	}
}
