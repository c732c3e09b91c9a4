package repository

import (
	"database/sql"
	"errors"

	"github.com/templui/storyloom/internal/model"
)

var (
	ErrBadgeNotFound       = errors.New("badge not found")
	ErrBadgeAlreadyAwarded = errors.New("badge already awarded")
)

type BadgeRepository interface {
	WithTx(tx Querier) BadgeRepository
	All() ([]*model.Badge, error)
	ByName(name string) (*model.Badge, error)
	Create(badge *model.Badge) error
	Earned(userID string) ([]*model.EarnedBadge, error)
	HeldBadgeIDs(userID string) (map[string]bool, error)
	Award(userBadge *model.UserBadge) error
}

type badgeRepository struct {
	db Querier
}

func NewBadgeRepository(db Querier) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) WithTx(tx Querier) BadgeRepository {
	return &badgeRepository{db: tx}
}

// All returns the badge catalog in creation order.
func (r *badgeRepository) All() ([]*model.Badge, error) {
	var badges []*model.Badge
	query := `SELECT * FROM badges ORDER BY created_at ASC, name ASC`

	err := r.db.Select(&badges, query)
	if err != nil {
		return nil, err
	}

	return badges, nil
}

func (r *badgeRepository) ByName(name string) (*model.Badge, error) {
	badge := &model.Badge{}
	query := `SELECT * FROM badges WHERE name = $1`

	err := r.db.Get(badge, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadgeNotFound
	}
	if err != nil {
		return nil, err
	}

	return badge, nil
}

func (r *badgeRepository) Create(badge *model.Badge) error {
	query := `INSERT INTO badges (id, name, description, icon, requirement, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query, badge.ID, badge.Name, badge.Description, badge.Icon, badge.Requirement, badge.CreatedAt)
	return err
}

// Earned returns the badges a user holds, oldest award first.
func (r *badgeRepository) Earned(userID string) ([]*model.EarnedBadge, error) {
	var earned []*model.EarnedBadge
	query := `SELECT b.*, ub.awarded_at FROM badges b JOIN user_badges ub ON ub.badge_id = b.id
	          WHERE ub.user_id = $1 ORDER BY ub.awarded_at ASC, b.name ASC`

	err := r.db.Select(&earned, query, userID)
	if err != nil {
		return nil, err
	}

	return earned, nil
}

func (r *badgeRepository) HeldBadgeIDs(userID string) (map[string]bool, error) {
	var ids []string
	query := `SELECT badge_id FROM user_badges WHERE user_id = $1`

	err := r.db.Select(&ids, query, userID)
	if err != nil {
		return nil, err
	}

	held := make(map[string]bool, len(ids))
	for _, id := range ids {
		held[id] = true
	}
	return held, nil
}

func (r *badgeRepository) Award(userBadge *model.UserBadge) error {
	query := `INSERT INTO user_badges (id, user_id, badge_id, awarded_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(query, userBadge.ID, userBadge.UserID, userBadge.BadgeID, userBadge.AwardedAt)
	if isUniqueViolation(err) {
		return ErrBadgeAlreadyAwarded
	}

	return err
}
