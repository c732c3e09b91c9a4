package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/templui/storyloom/internal/model"
)

const (
	StorySortRecent  = "recent"
	StorySortPopular = "popular"
)

var (
	ErrStoryNotFound = errors.New("story not found")
)

// StoryFilter narrows the gallery listing. Empty fields are ignored.
type StoryFilter struct {
	Region string
	Theme  string
	Tag    string
	UserID string
	Sort   string
	Limit  int
	Offset int
}

type StoryRepository interface {
	WithTx(tx Querier) StoryRepository
	Create(story *model.Story) error
	ByID(id string) (*model.Story, error)
	Published(filter StoryFilter) ([]*model.Story, int, error)
	Finalize(story *model.Story) error
	Delete(id string) error
	AuthorStats(userID string) (*model.AuthorStats, error)
	Regions() ([]string, error)
}

type storyRepository struct {
	db Querier
}

func NewStoryRepository(db Querier) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) WithTx(tx Querier) StoryRepository {
	return &storyRepository{db: tx}
}

const storySelect = `SELECT s.*, u.username AS author_name,
	(SELECT COUNT(*) FROM likes l WHERE l.story_id = s.id) AS like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.story_id = s.id) AS comment_count
	FROM stories s JOIN users u ON u.id = s.user_id`

func (r *storyRepository) Create(story *model.Story) error {
	query := `INSERT INTO stories (id, user_id, title, content, region, theme, status, media_ref, image_ref, audio_ref, soundtrack_ref, video_ref, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.Exec(query,
		story.ID,
		story.UserID,
		story.Title,
		story.Content,
		story.Region,
		story.Theme,
		story.Status,
		story.MediaRef,
		story.ImageRef,
		story.AudioRef,
		story.SoundtrackRef,
		story.VideoRef,
		story.CreatedAt,
		story.UpdatedAt,
	)

	return err
}

func (r *storyRepository) ByID(id string) (*model.Story, error) {
	story := &model.Story{}
	query := storySelect + ` WHERE s.id = $1`

	err := r.db.Get(story, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoryNotFound
	}
	if err != nil {
		return nil, err
	}

	return story, nil
}

// Published lists published stories matching the filter and the total count ignoring limit/offset.
func (r *storyRepository) Published(filter StoryFilter) ([]*model.Story, int, error) {
	conditions := []string{"s.status = $1"}
	args := []any{model.StoryStatusPublished}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Region != "" {
		add("s.region = $%d", filter.Region)
	}
	if filter.Theme != "" {
		add("s.theme = $%d", filter.Theme)
	}
	if filter.UserID != "" {
		add("s.user_id = $%d", filter.UserID)
	}
	if filter.Tag != "" {
		add(`EXISTS (SELECT 1 FROM story_tags st JOIN tags t ON t.id = st.tag_id WHERE st.story_id = s.id AND t.name = $%d)`, filter.Tag)
	}

	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	err := r.db.Get(&total, `SELECT COUNT(*) FROM stories s`+where, args...)
	if err != nil {
		return nil, 0, err
	}

	// Validate and build ORDER BY clause
	var orderBy string
	switch filter.Sort {
	case StorySortPopular:
		orderBy = " ORDER BY like_count DESC, s.created_at DESC"
	default: // StorySortRecent or empty
		orderBy = " ORDER BY s.created_at DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 12
	}
	args = append(args, limit, filter.Offset)
	page := fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var stories []*model.Story
	err = r.db.Select(&stories, storySelect+where+orderBy+page, args...)
	if err != nil {
		return nil, 0, err
	}

	return stories, total, nil
}

// Finalize writes the enhancement references and status accumulated during a submission.
func (r *storyRepository) Finalize(story *model.Story) error {
	query := `UPDATE stories
	          SET status = $1, media_ref = $2, image_ref = $3, audio_ref = $4, soundtrack_ref = $5, video_ref = $6, updated_at = $7
	          WHERE id = $8`

	story.UpdatedAt = time.Now()
	result, err := r.db.Exec(query,
		story.Status,
		story.MediaRef,
		story.ImageRef,
		story.AudioRef,
		story.SoundtrackRef,
		story.VideoRef,
		story.UpdatedAt,
		story.ID,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrStoryNotFound
	}

	return nil
}

func (r *storyRepository) Delete(id string) error {
	query := `DELETE FROM stories WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrStoryNotFound
	}

	return nil
}

// AuthorStats aggregates a user's published stories and the likes/comments they received.
func (r *storyRepository) AuthorStats(userID string) (*model.AuthorStats, error) {
	stats := &model.AuthorStats{}
	query := `SELECT
		(SELECT COUNT(*) FROM stories WHERE user_id = $1 AND status = $2) AS stories_count,
		(SELECT COUNT(*) FROM likes l JOIN stories s ON s.id = l.story_id WHERE s.user_id = $3 AND s.status = $4) AS likes_received,
		(SELECT COUNT(*) FROM comments c JOIN stories s ON s.id = c.story_id WHERE s.user_id = $5 AND s.status = $6) AS comments_received`

	err := r.db.Get(stats, query,
		userID, model.StoryStatusPublished,
		userID, model.StoryStatusPublished,
		userID, model.StoryStatusPublished,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Regions returns the distinct regions of published stories.
func (r *storyRepository) Regions() ([]string, error) {
	var regions []string
	query := `SELECT DISTINCT region FROM stories WHERE status = $1 ORDER BY region`

	err := r.db.Select(&regions, query, model.StoryStatusPublished)
	if err != nil {
		return nil, err
	}

	return regions, nil
}
