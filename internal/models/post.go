// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// BodyFormat tells the post service how to interpret a submitted body.
type BodyFormat string

const (
	BodyFormatHTML     BodyFormat = "html"
	BodyFormatMarkdown BodyFormat = "markdown"
)

// Post is an article on the blog. Every post belongs to exactly one
// category and one author and carries any number of tags through the
// posts_tags association table.
type Post struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	CategoryID uuid.UUID `json:"category_id"`
	Slug       string    `json:"slug"`
	HTML       string    `json:"html"`
	TimeToRead string    `json:"time_to_read"`
	AuthorID   uuid.UUID `json:"author_id"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"last_updated_at"`
}

// PostInput carries the editable fields of a post as submitted by the
// admin editor. TagIDs is the complete desired tag selection.
type PostInput struct {
	Title      string      `json:"title"`
	CategoryID uuid.UUID   `json:"category_id"`
	Slug       string      `json:"slug"`
	Body       string      `json:"html"`
	Format     BodyFormat  `json:"format,omitempty"`
	TimeToRead string      `json:"time_to_read"`
	AuthorID   uuid.UUID   `json:"author_id"`
	Published  bool        `json:"published"`
	TagIDs     []uuid.UUID `json:"tags"`
}

// PostDetail is a single post together with its current tag selection,
// as loaded by the edit screen.
type PostDetail struct {
	Post
	TagIDs []uuid.UUID `json:"tags"`
}
