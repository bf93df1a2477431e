package cms

import (
	"context"

	"github.com/google/uuid"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// Views records page views. Counts are derived by the listing.
type Views struct {
	repos Repositories
	opts  Options
}

// NewViews returns a Views service.
func NewViews(repos Repositories, opts Options) *Views {
	return &Views{repos: repos, opts: opts.withDefaults()}
}

// Record appends one view of a published post.
func (s *Views) Record(ctx context.Context, postID uuid.UUID) error {
	post, err := s.repos.Posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	return s.record(ctx, post)
}

// RecordBySlug appends one view of the published post addressed by slug.
func (s *Views) RecordBySlug(ctx context.Context, postSlug string) error {
	post, err := s.repos.Posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return err
	}
	return s.record(ctx, post)
}

func (s *Views) record(ctx context.Context, post *models.Post) error {
	if post == nil || !post.Published {
		return errs.NotFound("post")
	}
	return s.repos.Views.Record(ctx, post.ID, s.opts.Clock().UTC())
}
