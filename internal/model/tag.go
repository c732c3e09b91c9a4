package model

import (
	"time"
)

const TagCategoryGeneral = "general"

type Tag struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"-"`

	// Populated by popularity queries
	StoryCount int `db:"story_count" json:"story_count,omitempty"`
}
