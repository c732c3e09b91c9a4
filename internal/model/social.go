package model

import (
	"time"
)

type Like struct {
	ID        string    `db:"id"`
	StoryID   string    `db:"story_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

type Reaction struct {
	ID        string    `db:"id"`
	StoryID   string    `db:"story_id"`
	UserID    string    `db:"user_id"`
	Emoji     string    `db:"emoji"`
	CreatedAt time.Time `db:"created_at"`
}

// ReactionCount is the number of reactions with one emoji on a story.
type ReactionCount struct {
	Emoji string `db:"emoji" json:"emoji"`
	Count int    `db:"count" json:"count"`
}

type Comment struct {
	ID        string    `db:"id" json:"id"`
	StoryID   string    `db:"story_id" json:"story_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ParentID  *string   `db:"parent_id" json:"parent_id,omitempty"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	AuthorName string `db:"author_name" json:"author"`

	// Computed fields (not in database)
	Replies []*Comment `db:"-" json:"replies,omitempty"`
}

func (c *Comment) IsReply() bool {
	return c.ParentID != nil && *c.ParentID != ""
}
