package models

import (
	"time"

	"github.com/google/uuid"
)

// PostView is one append-only page view event.
type PostView struct {
	ID       int64     `json:"id"`
	PostID   uuid.UUID `json:"post_id"`
	ViewedAt time.Time `json:"viewed_at"`
}
