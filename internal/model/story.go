package model

import (
	"strings"
	"time"
)

const (
	StoryStatusDraft     = "draft"
	StoryStatusPublished = "published"
)

// Regions offered in the submission form and gallery filter.
var Regions = []string{"Africa", "Americas", "Asia", "Europe", "Middle East", "Oceania"}

// Themes offered in the submission form and gallery filter.
var Themes = []string{"Traditions", "Festivals", "Food", "Art", "Music", "Folklore"}

type Story struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Title         string    `db:"title" json:"title"`
	Content       string    `db:"content" json:"content"`
	Region        string    `db:"region" json:"region"`
	Theme         string    `db:"theme" json:"theme,omitempty"`
	Status        string    `db:"status" json:"status"`
	MediaRef      *string   `db:"media_ref" json:"-"`
	ImageRef      *string   `db:"image_ref" json:"-"`
	AudioRef      *string   `db:"audio_ref" json:"-"`
	SoundtrackRef *string   `db:"soundtrack_ref" json:"-"`
	VideoRef      *string   `db:"video_ref" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	// Populated by list queries
	AuthorName   string `db:"author_name" json:"author"`
	LikeCount    int    `db:"like_count" json:"like_count"`
	CommentCount int    `db:"comment_count" json:"comment_count"`

	// Computed fields (not in database)
	Tags          []*Tag `db:"-" json:"tags"`
	MediaURL      string `db:"-" json:"media_url,omitempty"`
	ImageURL      string `db:"-" json:"image_url,omitempty"`
	AudioURL      string `db:"-" json:"audio_url,omitempty"`
	SoundtrackURL string `db:"-" json:"soundtrack_url,omitempty"`
	VideoURL      string `db:"-" json:"video_url,omitempty"`
}

func (s *Story) IsPublished() bool {
	return s.Status == StoryStatusPublished
}

// HasMedia reports whether any media reference is set.
func (s *Story) HasMedia() bool {
	for _, ref := range []*string{s.MediaRef, s.ImageRef, s.AudioRef, s.SoundtrackRef, s.VideoRef} {
		if ref != nil && *ref != "" {
			return true
		}
	}
	return false
}

// Excerpt returns the first n runes of the content.
func (s *Story) Excerpt(n int) string {
	runes := []rune(strings.TrimSpace(s.Content))
	if len(runes) <= n {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}

// AuthorStats are the aggregate metrics badge requirements are evaluated against.
type AuthorStats struct {
	StoriesCount     int `db:"stories_count"`
	LikesReceived    int `db:"likes_received"`
	CommentsReceived int `db:"comments_received"`
}
