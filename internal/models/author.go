// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Author is the byline of a post. The profile picture itself lives in
// object storage; only its public URL is kept here.
type Author struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       *string   `json:"description,omitempty"`
	Slug              string    `json:"slug"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// HasPicture reports whether the author references a stored picture.
func (a *Author) HasPicture() bool {
	return a.ProfilePictureURL != nil && *a.ProfilePictureURL != ""
}

// AuthorInput carries the editable fields of an author.
type AuthorInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Slug        string `json:"slug"`
}
