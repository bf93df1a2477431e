package cms

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// Featured manages the three promotional slots.
type Featured struct {
	repos   Repositories
	opts    Options
	listing *Listing
}

// NewFeatured returns a Featured service. listing resolves the posts shown
// in public featured slots.
func NewFeatured(repos Repositories, opts Options, listing *Listing) *Featured {
	return &Featured{repos: repos, opts: opts.withDefaults(), listing: listing}
}

// List returns all three positions in order; unassigned ones have a nil PostID.
func (s *Featured) List(ctx context.Context) ([]models.FeaturedSlot, error) {
	assigned, err := s.repos.Featured.List(ctx)
	if err != nil {
		return nil, err
	}
	slots := make([]models.FeaturedSlot, models.FeaturedSlotCount)
	for i := range slots {
		slots[i].Position = i + 1
	}
	for _, a := range assigned {
		if models.ValidPosition(a.Position) {
			slots[a.Position-1].PostID = a.PostID
		}
	}
	return slots, nil
}

// Assign places a published post into position, replacing any previous
// occupant. The same post may occupy several positions.
func (s *Featured) Assign(ctx context.Context, position int, postID uuid.UUID) error {
	if err := checkPosition(position); err != nil {
		return err
	}
	post, err := s.repos.Posts.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return errs.Invalid("post_id", "post does not exist")
	}
	if !post.Published {
		return errs.Invalid("post_id", "only published posts can be featured")
	}
	if err := s.repos.Featured.Assign(ctx, position, postID); err != nil {
		return err
	}
	s.opts.Logger.Info("featured slot assigned", zap.Int("position", position), zap.String("post_id", postID.String()))
	return nil
}

// Unassign empties position. Emptying an empty slot succeeds.
func (s *Featured) Unassign(ctx context.Context, position int) error {
	if err := checkPosition(position); err != nil {
		return err
	}
	if err := s.repos.Featured.Unassign(ctx, position); err != nil {
		return err
	}
	s.opts.Logger.Info("featured slot cleared", zap.Int("position", position))
	return nil
}

// Posts returns the three slots resolved to their aggregated posts for the
// public site. Empty slots and posts that are no longer published yield
// a nil Post.
func (s *Featured) Posts(ctx context.Context) ([]models.FeaturedPost, error) {
	slots, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	published, err := s.listing.List(ctx, ListOptions{Order: models.SortRecent, PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.PostListing, len(published))
	for i := range published {
		byID[published[i].ID] = &published[i]
	}

	out := make([]models.FeaturedPost, len(slots))
	for i, slot := range slots {
		out[i].Position = slot.Position
		if slot.PostID != nil {
			out[i].Post = byID[*slot.PostID]
		}
	}
	return out, nil
}

func checkPosition(position int) error {
	if !models.ValidPosition(position) {
		return errs.Invalid("position", fmt.Sprintf("must be between 1 and %d", models.FeaturedSlotCount))
	}
	return nil
}
