// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cms is the content-management service layer. It validates input,
// owns timestamps, orders multi-step writes against object storage and
// composes posts, categories, tags and view counts into listings. Storage
// is reached only through the repository interfaces declared here, which
// the PostgreSQL stores in internal/store satisfy.
package cms

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"llmaware/internal/models"
)

// CategoryRepository persists categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
	Create(ctx context.Context, name string) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TagRepository persists tags.
type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error)
	Create(ctx context.Context, name string) (*models.Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuthorRepository persists authors.
type AuthorRepository interface {
	List(ctx context.Context) ([]models.Author, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Author, error)
	FindBySlug(ctx context.Context, slug string) (*models.Author, error)
	Create(ctx context.Context, a *models.Author) (*models.Author, error)
	Update(ctx context.Context, a *models.Author) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasPosts(ctx context.Context, id uuid.UUID) (bool, error)
}

// PostRepository persists posts together with their tag associations.
// Create and Update write the post row and its full tag set atomically.
type PostRepository interface {
	Create(ctx context.Context, p *models.Post, tagIDs []uuid.UUID) (*models.Post, error)
	Update(ctx context.Context, p *models.Post, tagIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, publishedOnly bool) ([]models.Post, error)
	TagIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error)
	TagNamesByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]string, error)
}

// FeaturedRepository persists featured slot assignments. List returns
// assigned slots only.
type FeaturedRepository interface {
	List(ctx context.Context) ([]models.FeaturedSlot, error)
	Assign(ctx context.Context, position int, postID uuid.UUID) error
	Unassign(ctx context.Context, position int) error
}

// ViewRepository appends to and aggregates the view log.
type ViewRepository interface {
	Record(ctx context.Context, postID uuid.UUID, at time.Time) error
	CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

// ObjectStorage stores author pictures.
type ObjectStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
	ExtractKey(rawURL string) (string, bool)
}

// ListingCache caches the aggregated public listing. Every InvalidateAll
// advances the generation; Set stores only while the generation still
// equals the one read before loading, and reports whether it stored.
type ListingCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) ([]models.PostListing, bool, error)
	Set(ctx context.Context, key string, generation int64, items []models.PostListing) (bool, error)
	InvalidateAll(ctx context.Context) error
}

// Repositories bundles the persistence dependencies of the services.
type Repositories struct {
	Posts      PostRepository
	Categories CategoryRepository
	Tags       TagRepository
	Authors    AuthorRepository
	Featured   FeaturedRepository
	Views      ViewRepository
}

// Options carries the optional collaborators of the services. A nil
// Storage or Cache must be a nil interface, not a typed nil pointer.
type Options struct {
	Storage ObjectStorage
	Cache   ListingCache
	Clock   func() time.Time
	Logger  *zap.Logger
	// Fanout bounds concurrent lookups while aggregating a listing.
	Fanout int
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Fanout < 1 {
		o.Fanout = DefaultFanout
	}
	return o
}

// DefaultFanout is the listing lookup concurrency when Options.Fanout is unset.
const DefaultFanout = 8

// invalidateListings drops cached listings after a write. Failures are
// logged only; entries expire on their own.
func invalidateListings(ctx context.Context, cache ListingCache, log *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateAll(ctx); err != nil {
		log.Warn("listing cache invalidation failed", zap.Error(err))
	}
}
