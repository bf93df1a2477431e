// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cms

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// lookupBatchSize is the number of ids sent per batched lookup query.
const lookupBatchSize = 50

// ListOptions selects which posts a listing contains and how it is sorted.
type ListOptions struct {
	Order         models.SortOrder
	PublishedOnly bool
}

// Listing composes posts with their category name, tag names and view
// count. Lookups are batched per id chunk and run concurrently, bounded
// by Options.Fanout.
type Listing struct {
	repos Repositories
	opts  Options
}

// NewListing returns a Listing service.
func NewListing(repos Repositories, opts Options) *Listing {
	return &Listing{repos: repos, opts: opts.withDefaults()}
}

// publishedListingKey caches the published listing without view counts.
// Counts change on every page view, so they are merged in per request.
const publishedListingKey = "published"

// List returns the aggregated listing. The view-independent part of the
// published listing is served from the cache when one is configured; view
// counts are always read fresh before sorting.
func (s *Listing) List(ctx context.Context, lo ListOptions) ([]models.PostListing, error) {
	if lo.Order == "" {
		lo.Order = models.SortRecent
	}

	var (
		items []models.PostListing
		err   error
	)
	if lo.PublishedOnly && s.opts.Cache != nil {
		items, err = s.cachedPublished(ctx)
	} else {
		var posts []models.Post
		posts, err = s.repos.Posts.List(ctx, lo.PublishedOnly)
		if err == nil {
			items, err = s.compose(ctx, posts)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachViewCounts(ctx, items); err != nil {
		return nil, err
	}
	SortListings(items, lo.Order)
	return items, nil
}

// cachedPublished returns the published listing without view counts,
// filling the cache on a miss. The result is stored only if no write
// invalidated the cache while it was being loaded.
func (s *Listing) cachedPublished(ctx context.Context) ([]models.PostListing, error) {
	cache := s.opts.Cache
	items, ok, err := cache.Get(ctx, publishedListingKey)
	if err != nil {
		s.opts.Logger.Warn("listing cache read failed", zap.Error(err))
	} else if ok {
		return items, nil
	}

	// Read before the posts so a concurrent invalidation is detected.
	gen, genErr := cache.Generation(ctx)
	if genErr != nil {
		s.opts.Logger.Warn("listing cache generation read failed", zap.Error(genErr))
	}

	posts, err := s.repos.Posts.List(ctx, true)
	if err != nil {
		return nil, err
	}
	items, err = s.compose(ctx, posts)
	if err != nil {
		return nil, err
	}

	if genErr == nil {
		stored, err := cache.Set(ctx, publishedListingKey, gen, items)
		switch {
		case err != nil:
			s.opts.Logger.Warn("listing cache write failed", zap.Error(err))
		case !stored:
			s.opts.Logger.Debug("listing changed while loading, not cached")
		}
	}
	return items, nil
}

// Get returns the aggregated entry for a published post addressed by slug.
// Drafts are reported as not found.
func (s *Listing) Get(ctx context.Context, postSlug string) (*models.PostListing, error) {
	post, err := s.repos.Posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if post == nil || !post.Published {
		return nil, errs.NotFound("post")
	}
	items, err := s.Aggregate(ctx, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Aggregate resolves category names, tag names and view counts for posts,
// preserving their order. A failed category lookup degrades to the
// "Uncategorized" name; failed tag or view lookups fail the call.
func (s *Listing) Aggregate(ctx context.Context, posts []models.Post) ([]models.PostListing, error) {
	items, err := s.compose(ctx, posts)
	if err != nil {
		return nil, err
	}
	if err := s.attachViewCounts(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// compose builds listing entries with category and tag names. ViewCount
// is left at zero.
func (s *Listing) compose(ctx context.Context, posts []models.Post) ([]models.PostListing, error) {
	postIDs := make([]uuid.UUID, len(posts))
	categoryIDs := make([]uuid.UUID, 0, len(posts))
	seenCategory := make(map[uuid.UUID]struct{})
	for i, p := range posts {
		postIDs[i] = p.ID
		if _, ok := seenCategory[p.CategoryID]; !ok {
			seenCategory[p.CategoryID] = struct{}{}
			categoryIDs = append(categoryIDs, p.CategoryID)
		}
	}

	var (
		mu         sync.Mutex
		categories = make(map[uuid.UUID]string, len(categoryIDs))
		tagNames   = make(map[uuid.UUID][]string, len(posts))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Fanout)

	for _, chunk := range chunkIDs(categoryIDs, lookupBatchSize) {
		chunk := chunk
		g.Go(func() error {
			found, err := s.repos.Categories.FindByIDs(gctx, chunk)
			if err != nil {
				s.opts.Logger.Warn("category lookup failed, using fallback name",
					zap.Int("categories", len(chunk)), zap.Error(err))
				return nil
			}
			mu.Lock()
			for _, c := range found {
				categories[c.ID] = c.Name
			}
			mu.Unlock()
			return nil
		})
	}

	for _, chunk := range chunkIDs(postIDs, lookupBatchSize) {
		chunk := chunk
		g.Go(func() error {
			names, err := s.repos.Posts.TagNamesByPosts(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for id, n := range names {
				tagNames[id] = n
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]models.PostListing, len(posts))
	for i, p := range posts {
		name, ok := categories[p.CategoryID]
		if !ok {
			name = models.UncategorizedName
		}
		tags := append([]string{}, tagNames[p.ID]...)
		sort.SliceStable(tags, func(a, b int) bool {
			return strings.ToLower(tags[a]) < strings.ToLower(tags[b])
		})
		items[i] = models.PostListing{
			Post:           p,
			CategoryName:   name,
			TagNames:       tags,
			CreatedDisplay: models.FormatDisplayTime(p.CreatedAt),
			UpdatedDisplay: models.FormatDisplayTime(p.UpdatedAt),
		}
	}
	return items, nil
}

// attachViewCounts sets ViewCount on every item from the view log.
func (s *Listing) attachViewCounts(ctx context.Context, items []models.PostListing) error {
	postIDs := make([]uuid.UUID, len(items))
	for i := range items {
		postIDs[i] = items[i].ID
	}

	var (
		mu     sync.Mutex
		counts = make(map[uuid.UUID]int, len(items))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Fanout)
	for _, chunk := range chunkIDs(postIDs, lookupBatchSize) {
		chunk := chunk
		g.Go(func() error {
			found, err := s.repos.Views.CountByPosts(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			for id, n := range found {
				counts[id] = n
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range items {
		items[i].ViewCount = counts[items[i].ID]
	}
	return nil
}

// SortListings orders items in place. Both orders are stable: entries
// that compare equal keep their relative order.
func SortListings(items []models.PostListing, order models.SortOrder) {
	switch order {
	case models.SortViews:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].ViewCount > items[j].ViewCount
		})
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
	}
}

// chunkIDs splits ids into consecutive slices of at most size elements.
func chunkIDs(ids []uuid.UUID, size int) [][]uuid.UUID {
	var chunks [][]uuid.UUID
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
