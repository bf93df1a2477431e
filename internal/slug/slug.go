// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug generates URL-friendly slugs and validates the slug formats
// accepted for posts and authors.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace collapses runs of spaces, tabs and newlines.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)

	// postSlug is the shape Generate produces. Mixed case is refused so
	// "My-Post" and "my-post" cannot become two different URLs.
	postSlug   = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	authorSlug = regexp.MustCompile(`^[A-Za-z-]+$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// IsValidPostSlug reports whether s is a lowercase, hyphen-separated
// slug of ASCII letters and digits.
func IsValidPostSlug(s string) bool {
	return postSlug.MatchString(s)
}

// IsValidAuthorSlug reports whether s contains only ASCII letters and
// hyphens. Author slugs are checked before any write.
func IsValidAuthorSlug(s string) bool {
	return authorSlug.MatchString(s)
}
