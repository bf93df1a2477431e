// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// SortOrder selects how post listings are ordered.
type SortOrder string

const (
	// SortRecent orders by creation time, newest first.
	SortRecent SortOrder = "recent"
	// SortViews orders by view count, most viewed first.
	SortViews SortOrder = "views"
)

// ParseSortOrder maps a query value to a SortOrder. Empty means recent.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case "", SortRecent:
		return SortRecent, true
	case SortViews:
		return SortViews, true
	}
	return "", false
}

// DisplayTimeLayout is the layout of the human-readable timestamps in a listing.
const DisplayTimeLayout = "Jan 2, 2006, 3:04:05 PM"

// PostListing is the denormalized record shown in the admin posts table
// and on public pages.
type PostListing struct {
	Post
	CategoryName   string   `json:"category_name"`
	TagNames       []string `json:"tags"`
	CreatedDisplay string   `json:"created_display"`
	UpdatedDisplay string   `json:"last_updated_display"`
	ViewCount      int      `json:"view_count"`
}

// FormatDisplayTime renders t for listings, in UTC.
func FormatDisplayTime(t time.Time) string {
	return t.UTC().Format(DisplayTimeLayout)
}
