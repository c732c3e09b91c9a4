package repository

import (
	"database/sql"
	"errors"

	"github.com/templui/storyloom/internal/model"
)

var (
	ErrReactionNotFound  = errors.New("reaction not found")
	ErrDuplicateReaction = errors.New("reaction already exists")
)

type ReactionRepository interface {
	Find(storyID, userID, emoji string) (*model.Reaction, error)
	Create(reaction *model.Reaction) error
	Delete(id string) error
	Counts(storyID string) ([]model.ReactionCount, error)
}

type reactionRepository struct {
	db Querier
}

func NewReactionRepository(db Querier) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Find(storyID, userID, emoji string) (*model.Reaction, error) {
	reaction := &model.Reaction{}
	query := `SELECT * FROM reactions WHERE story_id = $1 AND user_id = $2 AND emoji = $3`

	err := r.db.Get(reaction, query, storyID, userID, emoji)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReactionNotFound
	}
	if err != nil {
		return nil, err
	}

	return reaction, nil
}

func (r *reactionRepository) Create(reaction *model.Reaction) error {
	query := `INSERT INTO reactions (id, story_id, user_id, emoji, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, reaction.ID, reaction.StoryID, reaction.UserID, reaction.Emoji, reaction.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateReaction
	}

	return err
}

func (r *reactionRepository) Delete(id string) error {
	query := `DELETE FROM reactions WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}

// Counts returns per-emoji reaction counts for a story, most used first.
func (r *reactionRepository) Counts(storyID string) ([]model.ReactionCount, error) {
	var counts []model.ReactionCount
	query := `SELECT emoji, COUNT(*) AS count FROM reactions WHERE story_id = $1 GROUP BY emoji ORDER BY count DESC, emoji ASC`

	err := r.db.Select(&counts, query, storyID)
	if err != nil {
		return nil, err
	}

	return counts, nil
}
