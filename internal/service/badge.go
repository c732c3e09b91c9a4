package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/storyloom/internal/metrics"
	"github.com/templui/storyloom/internal/model"
	"github.com/templui/storyloom/internal/repository"
)

const (
	MetricStoriesCount     = "stories_count"
	MetricLikesReceived    = "likes_received"
	MetricCommentsReceived = "comments_received"
)

// DefaultBadges is the catalog seeded at startup.
var DefaultBadges = []model.Badge{
	{Name: "Storyteller Novice", Description: "Shared your first story", Icon: "📖", Requirement: "stories_count:1"},
	{Name: "Prolific Author", Description: "Shared five stories", Icon: "✍️", Requirement: "stories_count:5"},
	{Name: "Community Favorite", Description: "Received ten likes", Icon: "❤️", Requirement: "likes_received:10"},
	{Name: "Conversation Starter", Description: "Received five comments", Icon: "💬", Requirement: "comments_received:5"},
}

type BadgeService struct {
	badgeRepo    repository.BadgeRepository
	storyRepo    repository.StoryRepository
	userRepo     repository.UserRepository
	tx           repository.TxRunner
	emailService *EmailService
}

func NewBadgeService(
	badgeRepo repository.BadgeRepository,
	storyRepo repository.StoryRepository,
	userRepo repository.UserRepository,
	tx repository.TxRunner,
	emailService *EmailService,
) *BadgeService {
	return &BadgeService{
		badgeRepo:    badgeRepo,
		storyRepo:    storyRepo,
		userRepo:     userRepo,
		tx:           tx,
		emailService: emailService,
	}
}

// InitializeDefaultBadges inserts catalog badges whose name does not exist yet and returns how many were created.
func (s *BadgeService) InitializeDefaultBadges() (int, error) {
	created := 0
	now := time.Now()

	for i, def := range DefaultBadges {
		_, err := s.badgeRepo.ByName(def.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrBadgeNotFound) {
			return created, fmt.Errorf("failed to get badge %q: %w", def.Name, err)
		}

		badge := def
		badge.ID = uuid.New().String()
		// Spaced creation times keep the catalog order stable
		badge.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)

		err = s.badgeRepo.Create(&badge)
		if err != nil {
			return created, fmt.Errorf("failed to create badge %q: %w", def.Name, err)
		}
		created++
	}

	if created > 0 {
		slog.Info("default badges initialized", "created", created)
	}
	return created, nil
}

func (s *BadgeService) All() ([]*model.Badge, error) {
	badges, err := s.badgeRepo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}
	return badges, nil
}

func (s *BadgeService) Earned(userID string) ([]*model.EarnedBadge, error) {
	earned, err := s.badgeRepo.Earned(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get earned badges: %w", err)
	}
	return earned, nil
}

// Evaluate awards every unheld badge whose requirement the user now meets and returns the new
// badges in catalog order. Calling it again without new activity returns an empty list.
func (s *BadgeService) Evaluate(ctx context.Context, userID string) ([]*model.Badge, error) {
	catalog, err := s.badgeRepo.All()
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	held, err := s.badgeRepo.HeldBadgeIDs(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get held badges: %w", err)
	}

	stats, err := s.storyRepo.AuthorStats(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute author stats: %w", err)
	}

	var earned []*model.Badge
	for _, badge := range catalog {
		if held[badge.ID] {
			continue
		}
		if meetsRequirement(badge, stats) {
			earned = append(earned, badge)
		}
	}

	if len(earned) == 0 {
		return []*model.Badge{}, nil
	}

	awarded := make([]*model.Badge, 0, len(earned))
	err = s.tx.InTx(func(tx repository.Querier) error {
		badgeRepo := s.badgeRepo.WithTx(tx)
		for _, badge := range earned {
			err := badgeRepo.Award(&model.UserBadge{
				ID:        uuid.New().String(),
				UserID:    userID,
				BadgeID:   badge.ID,
				AwardedAt: time.Now(),
			})
			if errors.Is(err, repository.ErrBadgeAlreadyAwarded) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to award badge %q: %w", badge.Name, err)
			}
			awarded = append(awarded, badge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(awarded))
	for _, badge := range awarded {
		metrics.BadgesAwarded.WithLabelValues(badge.Name).Inc()
		names = append(names, badge.Name)
	}
	if len(names) > 0 {
		slog.Info("badges awarded", "user_id", userID, "badges", names)
		s.notify(ctx, userID, names)
	}

	return awarded, nil
}

func (s *BadgeService) notify(ctx context.Context, userID string, badgeNames []string) {
	if s.emailService == nil {
		return
	}

	user, err := s.userRepo.ByID(userID)
	if err != nil {
		slog.Warn("failed to load user for badge email", "error", err, "user_id", userID)
		return
	}

	err = s.emailService.SendBadgeAwardedEmail(ctx, user.Email, user.Username, badgeNames)
	if err != nil {
		slog.Warn("failed to send badge email", "error", err, "user_id", userID)
	}
}

func meetsRequirement(badge *model.Badge, stats *model.AuthorStats) bool {
	metric, threshold, ok := ParseRequirement(badge.Requirement)
	if !ok {
		slog.Debug("badge requirement not understood", "badge", badge.Name, "requirement", badge.Requirement)
		return false
	}

	var value int
	switch metric {
	case MetricStoriesCount:
		value = stats.StoriesCount
	case MetricLikesReceived:
		value = stats.LikesReceived
	case MetricCommentsReceived:
		value = stats.CommentsReceived
	default:
		slog.Debug("unknown badge metric", "badge", badge.Name, "metric", metric)
		return false
	}

	return value >= threshold
}

// ParseRequirement splits a "metric:threshold" requirement. Negative thresholds are rejected.
func ParseRequirement(requirement string) (string, int, bool) {
	metric, raw, found := strings.Cut(strings.TrimSpace(requirement), ":")
	if !found {
		return "", 0, false
	}

	metric = strings.TrimSpace(metric)
	threshold, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || metric == "" || threshold < 0 {
		return "", 0, false
	}

	return metric, threshold, true
}
