package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/templui/storyloom/internal/adapter"
	"github.com/templui/storyloom/internal/capability"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/validation"
	"golang.org/x/text/cases"
)

const (
	DefaultPopularTags = 20
	maxTagLength       = 50
)

type TagService struct {
	tagRepo  repository.TagRepository
	registry *capability.Registry
}

func NewTagService(tagRepo repository.TagRepository, registry *capability.Registry) *TagService {
	return &TagService{
		tagRepo:  tagRepo,
		registry: registry,
	}
}

// Popular returns the tags used by the most published stories.
func (s *TagService) Popular(limit int) ([]*model.Tag, error) {
	if limit <= 0 || limit > 100 {
		limit = DefaultPopularTags
	}

	tags, err := s.tagRepo.Popular(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) ByCategory(category string) ([]*model.Tag, error) {
	category = strings.TrimSpace(strings.ToLower(category))
	if category == "" {
		category = model.TagCategoryGeneral
	}

	tags, err := s.tagRepo.ByCategory(category)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags: %w", err)
	}
	return tags, nil
}

// Suggest asks the tag capability for tags and returns them normalized.
func (s *TagService) Suggest(ctx context.Context, title, content, region string) ([]string, error) {
	if strings.TrimSpace(content) == "" && strings.TrimSpace(title) == "" {
		return nil, validation.FieldErrors{"content": "title or content is required"}
	}
	tags, err := invoke[adapter.TagInput, []string](ctx, s.registry, capability.Tag, adapter.TagInput{
		Title:   title,
		Content: content,
		Region:  region,
	})
	if err != nil {
		return nil, err
	}
	return MergeTags(nil, tags), nil
}

// ParseTags splits comma-separated user input into tags.
func ParseTags(input string) []string {
	return MergeTags(strings.Split(input, ","), nil)
}

// MergeTags combines user and suggested tags. Each tag is trimmed and case-folded, empty and
// overlong entries are dropped, and the first occurrence of every tag keeps its position.
func MergeTags(user, suggested []string) []string {
	fold := cases.Fold()
	seen := make(map[string]bool)
	merged := []string{}

	for _, list := range [][]string{user, suggested} {
		for _, raw := range list {
			tag := fold.String(strings.Join(strings.Fields(raw), " "))
			if tag == "" || utf8.RuneCountInString(tag) > maxTagLength || seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
		}
	}

	return merged
}
