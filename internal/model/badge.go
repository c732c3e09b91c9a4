package model

import (
	"time"
)

type Badge struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Icon        string    `db:"icon" json:"icon"`
	Requirement string    `db:"requirement" json:"requirement"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
}

type UserBadge struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	BadgeID   string    `db:"badge_id"`
	AwardedAt time.Time `db:"awarded_at"`
}

// EarnedBadge is a badge together with the time it was awarded to a user.
type EarnedBadge struct {
	Badge
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}
