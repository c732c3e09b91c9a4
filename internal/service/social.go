package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
	"github.com/templui/storyloom/internal/validation"
)

const maxEmojiBytes = 32

var (
	ErrInvalidEmoji  = errors.New("invalid reaction emoji")
	ErrInvalidParent = errors.New("parent comment does not belong to this story")
)

type SocialService struct {
	storyRepo    repository.StoryRepository
	likeRepo     repository.LikeRepository
	reactionRepo repository.ReactionRepository
	commentRepo  repository.CommentRepository
	badges       *BadgeService
}

func NewSocialService(
	storyRepo repository.StoryRepository,
	likeRepo repository.LikeRepository,
	reactionRepo repository.ReactionRepository,
	commentRepo repository.CommentRepository,
	badges *BadgeService,
) *SocialService {
	return &SocialService{
		storyRepo:    storyRepo,
		likeRepo:     likeRepo,
		reactionRepo: reactionRepo,
		commentRepo:  commentRepo,
		badges:       badges,
	}
}

// ToggleLike likes the story, or removes an existing like. It returns the new state and like count.
func (s *SocialService) ToggleLike(ctx context.Context, storyID, userID string) (bool, int, error) {
	story, err := s.publishedStory(storyID)
	if err != nil {
		return false, 0, err
	}

	liked := false
	existing, err := s.likeRepo.Find(storyID, userID)
	switch {
	case err == nil:
		err = s.likeRepo.Delete(existing.ID)
		if err != nil {
			return false, 0, fmt.Errorf("failed to remove like: %w", err)
		}
	case errors.Is(err, repository.ErrLikeNotFound):
		err = s.likeRepo.Create(&model.Like{
			ID:        uuid.New().String(),
			StoryID:   storyID,
			UserID:    userID,
			CreatedAt: time.Now(),
		})
		// A concurrent request may have liked first
		if err != nil && !errors.Is(err, repository.ErrDuplicateLike) {
			return false, 0, fmt.Errorf("failed to add like: %w", err)
		}
		liked = true
	default:
		return false, 0, fmt.Errorf("failed to get like: %w", err)
	}

	count, err := s.likeRepo.CountByStory(storyID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to count likes: %w", err)
	}

	if liked {
		s.evaluateAuthor(ctx, story)
	}

	return liked, count, nil
}

// ToggleReaction adds or removes the user's emoji reaction and returns the story's reaction counts.
func (s *SocialService) ToggleReaction(storyID, userID, emoji string) (bool, []model.ReactionCount, error) {
	emoji = strings.TrimSpace(emoji)
	if !validEmoji(emoji) {
		return false, nil, ErrInvalidEmoji
	}

	_, err := s.publishedStory(storyID)
	if err != nil {
		return false, nil, err
	}

	reacted := false
	existing, err := s.reactionRepo.Find(storyID, userID, emoji)
	switch {
	case err == nil:
		err = s.reactionRepo.Delete(existing.ID)
		if err != nil {
			return false, nil, fmt.Errorf("failed to remove reaction: %w", err)
		}
	case errors.Is(err, repository.ErrReactionNotFound):
		err = s.reactionRepo.Create(&model.Reaction{
			ID:        uuid.New().String(),
			StoryID:   storyID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: time.Now(),
		})
		if err != nil && !errors.Is(err, repository.ErrDuplicateReaction) {
			return false, nil, fmt.Errorf("failed to add reaction: %w", err)
		}
		reacted = true
	default:
		return false, nil, fmt.Errorf("failed to get reaction: %w", err)
	}

	counts, err := s.reactionRepo.Counts(storyID)
	if err != nil {
		return false, nil, fmt.Errorf("failed to count reactions: %w", err)
	}

	return reacted, counts, nil
}

func (s *SocialService) ReactionCounts(storyID string) ([]model.ReactionCount, error) {
	counts, err := s.reactionRepo.Counts(storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reactions: %w", err)
	}
	return counts, nil
}

// AddComment stores a comment. Threads are one level deep: a reply to a reply is attached to the
// top-level comment.
func (s *SocialService) AddComment(ctx context.Context, storyID, userID, parentID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	err := validation.ValidateComment(content)
	if err != nil {
		return nil, err
	}

	story, err := s.publishedStory(storyID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		ID:        uuid.New().String(),
		StoryID:   storyID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	parentID = strings.TrimSpace(parentID)
	if parentID != "" {
		parent, err := s.commentRepo.ByID(parentID)
		if errors.Is(err, repository.ErrCommentNotFound) {
			return nil, ErrInvalidParent
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get parent comment: %w", err)
		}
		if parent.StoryID != storyID {
			return nil, ErrInvalidParent
		}

		topLevel := parent.ID
		if parent.IsReply() {
			topLevel = *parent.ParentID
		}
		comment.ParentID = &topLevel
	}

	err = s.commentRepo.Create(comment)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	created, err := s.commentRepo.ByID(comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	s.evaluateAuthor(ctx, story)

	return created, nil
}

// Comments returns the story's top-level comments, oldest first, each with its replies.
func (s *SocialService) Comments(storyID string) ([]*model.Comment, error) {
	all, err := s.commentRepo.ByStory(storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}

	byID := make(map[string]*model.Comment, len(all))
	threads := []*model.Comment{}
	for _, c := range all {
		byID[c.ID] = c
		if !c.IsReply() {
			threads = append(threads, c)
		}
	}

	for _, c := range all {
		if !c.IsReply() {
			continue
		}
		parent, ok := byID[*c.ParentID]
		if !ok {
			continue
		}
		parent.Replies = append(parent.Replies, c)
	}

	return threads, nil
}

func (s *SocialService) publishedStory(storyID string) (*model.Story, error) {
	story, err := s.storyRepo.ByID(storyID)
	if err != nil {
		if errors.Is(err, repository.ErrStoryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	if !story.IsPublished() {
		return nil, repository.ErrStoryNotFound
	}
	return story, nil
}

// evaluateAuthor rechecks the author's badges after they received a like or comment.
func (s *SocialService) evaluateAuthor(ctx context.Context, story *model.Story) {
	if s.badges == nil {
		return
	}

	_, err := s.badges.Evaluate(ctx, story.UserID)
	if err != nil {
		slog.Warn("failed to evaluate author badges", "error", err, "user_id", story.UserID, "story_id", story.ID)
	}
}

func validEmoji(emoji string) bool {
	if emoji == "" || len(emoji) > maxEmojiBytes {
		return false
	}
	for _, r := range emoji {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
