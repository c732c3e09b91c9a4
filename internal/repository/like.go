package repository

import (
	"database/sql"
	"errors"

	"github.com/templui/storyloom/internal/model"
)

var (
	ErrLikeNotFound  = errors.New("like not found")
	ErrDuplicateLike = errors.New("story already liked")
)

type LikeRepository interface {
	Find(storyID, userID string) (*model.Like, error)
	Create(like *model.Like) error
	Delete(id string) error
	CountByStory(storyID string) (int, error)
}

type likeRepository struct {
	db Querier
}

func NewLikeRepository(db Querier) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Find(storyID, userID string) (*model.Like, error) {
	like := &model.Like{}
	query := `SELECT * FROM likes WHERE story_id = $1 AND user_id = $2`

	err := r.db.Get(like, query, storyID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLikeNotFound
	}
	if err != nil {
		return nil, err
	}

	return like, nil
}

func (r *likeRepository) Create(like *model.Like) error {
	query := `INSERT INTO likes (id, story_id, user_id, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(query, like.ID, like.StoryID, like.UserID, like.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateLike
	}

	return err
}

func (r *likeRepository) Delete(id string) error {
	query := `DELETE FROM likes WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *likeRepository) CountByStory(storyID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM likes WHERE story_id = $1`
	err := r.db.Get(&count, query, storyID)
	return count, err
}
