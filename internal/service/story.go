package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/markdown"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/validation"
	"golang.org/x/text/cases"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 48
)

var ErrNotStoryOwner = errors.New("you can only delete your own stories")

// GalleryFilter selects a page of published stories. Empty fields are ignored.
type GalleryFilter struct {
	Region   string
	Theme    string
	Tag      string
	Sort     string
	Page     int
	PageSize int
}

type GalleryPage struct {
	Stories    []*model.Story `json:"stories"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

func (p *GalleryPage) HasPrev() bool { return p.Page > 1 }
func (p *GalleryPage) HasNext() bool { return p.Page < p.TotalPages }

type StoryService struct {
	storyRepo  repository.StoryRepository
	tagRepo    repository.TagRepository
	files      *FileService
	submission *SubmissionService
	registry   *capability.Registry
	parser     *markdown.Parser
}

func NewStoryService(
	storyRepo repository.StoryRepository,
	tagRepo repository.TagRepository,
	files *FileService,
	submission *SubmissionService,
	registry *capability.Registry,
	parser *markdown.Parser,
) *StoryService {
	return &StoryService{
		storyRepo:  storyRepo,
		tagRepo:    tagRepo,
		files:      files,
		submission: submission,
		registry:   registry,
		parser:     parser,
	}
}

// ByID returns a story with tags and media URLs. Drafts are only visible to their author.
func (s *StoryService) ByID(id, viewerID string) (*model.Story, error) {
	story, err := s.storyRepo.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	if !story.IsPublished() && story.UserID != viewerID {
		return nil, repository.ErrStoryNotFound
	}

	err = s.populate(story)
	if err != nil {
		return nil, err
	}
	return story, nil
}

// Gallery lists published stories, newest first unless sorted by popularity.
func (s *StoryService) Gallery(filter GalleryFilter) (*GalleryPage, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	page := max(filter.Page, 1)

	sort := repository.StorySortRecent
	if filter.Sort == repository.StorySortPopular {
		sort = repository.StorySortPopular
	}

	tag := strings.TrimSpace(filter.Tag)
	if tag != "" {
		tag = cases.Fold().String(tag)
	}

	return s.list(repository.StoryFilter{
		Region: strings.TrimSpace(filter.Region),
		Theme:  strings.TrimSpace(filter.Theme),
		Tag:    tag,
		Sort:   sort,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}, page, pageSize)
}

// ByUser lists a user's published stories, newest first.
func (s *StoryService) ByUser(userID string, page int) (*GalleryPage, error) {
	page = max(page, 1)
	return s.list(repository.StoryFilter{
		UserID: userID,
		Sort:   repository.StorySortRecent,
		Limit:  DefaultPageSize,
		Offset: (page - 1) * DefaultPageSize,
	}, page, DefaultPageSize)
}

func (s *StoryService) list(filter repository.StoryFilter, page, pageSize int) (*GalleryPage, error) {
	stories, total, err := s.storyRepo.Published(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	for _, story := range stories {
		err = s.populate(story)
		if err != nil {
			return nil, err
		}
	}
	if stories == nil {
		stories = []*model.Story{}
	}

	return &GalleryPage{
		Stories:    stories,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// Regions merges the built-in regions with those used by published stories.
func (s *StoryService) Regions() ([]string, error) {
	used, err := s.storyRepo.Regions()
	if err != nil {
		return nil, fmt.Errorf("failed to get regions: %w", err)
	}

	regions := slices.Clone(model.Regions)
	for _, region := range used {
		if !slices.Contains(regions, region) {
			regions = append(regions, region)
		}
	}
	slices.Sort(regions)
	return regions, nil
}

// Delete removes a story owned by userID together with its stored files.
func (s *StoryService) Delete(ctx context.Context, storyID, userID string) error {
	story, err := s.storyRepo.ByID(storyID)
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			return err
		}
		return fmt.Errorf("failed to get story: %w", err)
	}
	if story.UserID != userID {
		return ErrNotStoryOwner
	}

	err = s.storyRepo.Delete(storyID)
	if err != nil {
		return fmt.Errorf("failed to delete story: %w", err)
	}

	err = s.files.DeleteStoryFiles(ctx, storyID)
	if err != nil {
		slog.Warn("failed to clean up story files", "error", err, "story_id", storyID)
	}

	slog.Info("story deleted", "story_id", storyID, "user_id", userID)
	return nil
}

// RenderContent renders the story body as HTML. Raw HTML in the source is not passed through.
func (s *StoryService) RenderContent(story *model.Story) (string, error) {
	html, err := s.parser.Render([]byte(story.Content))
	if err != nil {
		return "", fmt.Errorf("failed to render story: %w", err)
	}
	return string(html), nil
}

// Export renders the story as a downloadable document.
func (s *StoryService) Export(ctx context.Context, storyID, viewerID, format string) (adapter.Document, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if !slices.Contains(adapter.ExportFormats, format) {
		return adapter.Document{}, validation.FieldErrors{
			"format": fmt.Sprintf("unsupported format %q (use one of: %s)", format, strings.Join(adapter.ExportFormats, ", ")),
		}
	}

	story, err := s.ByID(storyID, viewerID)
	if err != nil {
		return adapter.Document{}, err
	}

	return invoke[adapter.ExportInput, adapter.Document](ctx, s.registry, capability.Export, adapter.ExportInput{
		Story:  story,
		Format: format,
	})
}

// Import submits a markdown story. Frontmatter supplies title, region, theme and tags.
func (s *StoryService) Import(ctx context.Context, userID string, source []byte) (*SubmissionResult, error) {
	doc, err := s.parser.ParseDocument(source)
	if err != nil {
		if errors.Is(err, markdown.ErrEmptyDocument) {
			return nil, validation.FieldErrors{"content": "the document has no story text"}
		}
		return nil, validation.FieldErrors{"content": err.Error()}
	}

	return s.submission.Submit(ctx, SubmissionInput{
		UserID:  userID,
		Title:   doc.Title,
		Content: doc.Body,
		Region:  doc.Region,
		Theme:   doc.Theme,
		Tags:    strings.Join(doc.Tags, ","),
	})
}

func (s *StoryService) populate(story *model.Story) error {
	tags, err := s.tagRepo.ByStory(story.ID)
	if err != nil {
		return fmt.Errorf("failed to get story tags: %w", err)
	}
	if tags == nil {
		tags = []*model.Tag{}
	}
	story.Tags = tags
	s.files.ResolveURLs(story)
	return nil
}
