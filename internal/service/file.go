package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/storage"
)

// StoredObject is an object uploaded while processing a story, not yet recorded in the files table.
type StoredObject struct {
	Type         string
	Key          string
	OriginalName string
	MimeType     string
	Size         int64
}

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

// NewFileService accepts a nil store when object storage is not configured.
func NewFileService(fileRepo repository.FileRepository, store storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  store,
	}
}

// Record inserts file rows for objects owned by a story. A non-nil tx makes the rows part of that transaction.
func (s *FileService) Record(tx repository.Querier, userID, storyID string, objects []StoredObject) error {
	fileRepo := s.fileRepo
	if tx != nil {
		fileRepo = fileRepo.WithTx(tx)
	}

	for _, obj := range objects {
		file := &model.File{
			ID:           uuid.New().String(),
			UserID:       userID,
			OwnerType:    model.FileOwnerStory,
			OwnerID:      storyID,
			Type:         obj.Type,
			Filename:     path.Base(obj.Key),
			OriginalName: obj.OriginalName,
			MimeType:     obj.MimeType,
			Size:         obj.Size,
			StoragePath:  obj.Key,
			Public:       true,
			CreatedAt:    time.Now(),
		}

		err := fileRepo.Create(file)
		if err != nil {
			return fmt.Errorf("failed to create file record: %w", err)
		}
	}

	return nil
}

// ResolveRef turns a stored media reference into a URL.
// Absolute URLs are provider-hosted and returned unchanged; anything else is a storage key.
func (s *FileService) ResolveRef(ref *string) string {
	if ref == nil || *ref == "" {
		return ""
	}
	if strings.HasPrefix(*ref, "http://") || strings.HasPrefix(*ref, "https://") {
		return *ref
	}
	if s.storage == nil {
		return ""
	}
	return s.storage.URL(*ref)
}

// ResolveURLs fills the story's URL fields from its references.
func (s *FileService) ResolveURLs(story *model.Story) {
	story.MediaURL = s.ResolveRef(story.MediaRef)
	story.ImageURL = s.ResolveRef(story.ImageRef)
	story.AudioURL = s.ResolveRef(story.AudioRef)
	story.SoundtrackURL = s.ResolveRef(story.SoundtrackRef)
	story.VideoURL = s.ResolveRef(story.VideoRef)
}

// DeleteObjects removes objects from storage. Failures are logged; the objects may already be gone.
func (s *FileService) DeleteObjects(ctx context.Context, keys []string) {
	if s.storage == nil {
		return
	}

	for _, key := range keys {
		err := s.storage.Delete(ctx, key)
		if err != nil {
			slog.Warn("failed to delete file from storage", "storage_path", key, "error", err)
		}
	}
}

// DeleteStoryFiles removes a story's objects from storage and their file rows.
func (s *FileService) DeleteStoryFiles(ctx context.Context, storyID string) error {
	files, err := s.fileRepo.Files(model.FileOwnerStory, storyID)
	if err != nil {
		return fmt.Errorf("failed to get story files: %w", err)
	}

	keys := make([]string, 0, len(files))
	for _, file := range files {
		keys = append(keys, file.StoragePath)
	}
	s.DeleteObjects(ctx, keys)

	err = s.fileRepo.DeleteByOwner(model.FileOwnerStory, storyID)
	if err != nil {
		return fmt.Errorf("failed to delete file records: %w", err)
	}

	return nil
}
