package repository

import (
	"database/sql"
	"errors"

	"github.com/templui/storyloom/internal/model"
)

var (
	ErrCommentNotFound = errors.New("comment not found")
)

type CommentRepository interface {
	Create(comment *model.Comment) error
	ByID(id string) (*model.Comment, error)
	ByStory(storyID string) ([]*model.Comment, error)
}

type commentRepository struct {
	db Querier
}

func NewCommentRepository(db Querier) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(comment *model.Comment) error {
	query := `INSERT INTO comments (id, story_id, user_id, parent_id, content, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query,
		comment.ID,
		comment.StoryID,
		comment.UserID,
		comment.ParentID,
		comment.Content,
		comment.CreatedAt,
	)

	return err
}

func (r *commentRepository) ByID(id string) (*model.Comment, error) {
	comment := &model.Comment{}
	query := `SELECT c.*, u.username AS author_name FROM comments c JOIN users u ON u.id = c.user_id WHERE c.id = $1`

	err := r.db.Get(comment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}

	return comment, nil
}

// ByStory returns all comments of a story in creation order.
func (r *commentRepository) ByStory(storyID string) ([]*model.Comment, error) {
	var comments []*model.Comment
	query := `SELECT c.*, u.username AS author_name FROM comments c JOIN users u ON u.id = c.user_id
	          WHERE c.story_id = $1 ORDER BY c.created_at ASC, c.id ASC`

	err := r.db.Select(&comments, query, storyID)
	if err != nil {
		return nil, err
	}

	return comments, nil
}
