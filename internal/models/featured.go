// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "github.com/google/uuid"

// FeaturedSlotCount is the number of promotional positions on the homepage.
// Positions are numbered 1..FeaturedSlotCount.
const FeaturedSlotCount = 3

// FeaturedSlot is one promotional position. PostID is nil when empty.
type FeaturedSlot struct {
	Position int        `json:"position"`
	PostID   *uuid.UUID `json:"post_id"`
}

// IsEmpty reports whether no post occupies the slot.
func (f FeaturedSlot) IsEmpty() bool {
	return f.PostID == nil
}

// ValidPosition reports whether p addresses one of the featured slots.
func ValidPosition(p int) bool {
	return p >= 1 && p <= FeaturedSlotCount
}

// FeaturedPost is a featured slot resolved to its post for public display.
// Post is nil when the slot is empty.
type FeaturedPost struct {
	Position int          `json:"position"`
	Post     *PostListing `json:"post"`
}
