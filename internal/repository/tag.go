package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/templui/storyloom/internal/model"
)

var (
	ErrTagNotFound = errors.New("tag not found")
)

type TagRepository interface {
	WithTx(tx Querier) TagRepository
	Upsert(name, category string) (*model.Tag, error)
	ByName(name string) (*model.Tag, error)
	Attach(storyID, tagID string) error
	ByStory(storyID string) ([]*model.Tag, error)
	Popular(limit int) ([]*model.Tag, error)
	ByCategory(category string) ([]*model.Tag, error)
}

type tagRepository struct {
	db Querier
}

func NewTagRepository(db Querier) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) WithTx(tx Querier) TagRepository {
	return &tagRepository{db: tx}
}

// Upsert returns the tag with the given name, creating it when missing.
// Names are expected to be case-folded by the caller.
func (r *tagRepository) Upsert(name, category string) (*model.Tag, error) {
	if category == "" {
		category = model.TagCategoryGeneral
	}

	query := `INSERT INTO tags (id, name, category, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (name) DO NOTHING`
	_, err := r.db.Exec(query, uuid.New().String(), name, category, time.Now())
	if err != nil {
		return nil, err
	}

	return r.ByName(name)
}

func (r *tagRepository) ByName(name string) (*model.Tag, error) {
	tag := &model.Tag{}
	query := `SELECT * FROM tags WHERE name = $1`

	err := r.db.Get(tag, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTagNotFound
	}
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (r *tagRepository) Attach(storyID, tagID string) error {
	query := `INSERT INTO story_tags (story_id, tag_id) VALUES ($1, $2) ON CONFLICT (story_id, tag_id) DO NOTHING`
	_, err := r.db.Exec(query, storyID, tagID)
	return err
}

func (r *tagRepository) ByStory(storyID string) ([]*model.Tag, error) {
	var tags []*model.Tag
	query := `SELECT t.* FROM tags t JOIN story_tags st ON st.tag_id = t.id WHERE st.story_id = $1 ORDER BY t.name`

	err := r.db.Select(&tags, query, storyID)
	if err != nil {
		return nil, err
	}

	return tags, nil
}

// Popular returns tags ordered by the number of published stories using them.
func (r *tagRepository) Popular(limit int) ([]*model.Tag, error) {
	var tags []*model.Tag
	query := `SELECT t.*, COUNT(st.story_id) AS story_count
	          FROM tags t
	          JOIN story_tags st ON st.tag_id = t.id
	          JOIN stories s ON s.id = st.story_id AND s.status = $1
	          GROUP BY t.id, t.name, t.category, t.created_at
	          ORDER BY story_count DESC, t.name ASC
	          LIMIT $2`

	err := r.db.Select(&tags, query, model.StoryStatusPublished, limit)
	if err != nil {
		return nil, err
	}

	return tags, nil
}

func (r *tagRepository) ByCategory(category string) ([]*model.Tag, error) {
	var tags []*model.Tag
	query := `SELECT * FROM tags WHERE category = $1 ORDER BY name`

	err := r.db.Select(&tags, query, category)
	if err != nil {
		return nil, err
	}

	return tags, nil
}
