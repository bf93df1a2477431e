package cms

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// MaxTaxonomyNameLength bounds category and tag names.
const MaxTaxonomyNameLength = 100

// Taxonomy manages categories and tags. Both are flat, named, and only
// ever created or deleted.
type Taxonomy struct {
	repos Repositories
	opts  Options
}

// NewTaxonomy returns a Taxonomy service.
func NewTaxonomy(repos Repositories, opts Options) *Taxonomy {
	return &Taxonomy{repos: repos, opts: opts.withDefaults()}
}

// ListCategories returns all categories ordered by name.
func (s *Taxonomy) ListCategories(ctx context.Context) ([]models.Category, error) {
	items, err := s.repos.Categories.List(ctx)
	if items == nil && err == nil {
		items = []models.Category{}
	}
	return items, err
}

// CreateCategory creates a category. Names are trimmed and must be unique
// ignoring case.
func (s *Taxonomy) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	c, err := s.repos.Categories.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("category created", zap.String("id", c.ID.String()), zap.String("name", c.Name))
	return c, nil
}

// DeleteCategory deletes a category that no post references.
func (s *Taxonomy) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Categories.Delete(ctx, id); err != nil {
		return err
	}
	invalidateListings(ctx, s.opts.Cache, s.opts.Logger)
	s.opts.Logger.Info("category deleted", zap.String("id", id.String()))
	return nil
}

// ListTags returns all tags ordered by name.
func (s *Taxonomy) ListTags(ctx context.Context) ([]models.Tag, error) {
	items, err := s.repos.Tags.List(ctx)
	if items == nil && err == nil {
		items = []models.Tag{}
	}
	return items, err
}

// CreateTag creates a tag. Names are trimmed and must be unique ignoring case.
func (s *Taxonomy) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	t, err := s.repos.Tags.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	s.opts.Logger.Info("tag created", zap.String("id", t.ID.String()), zap.String("name", t.Name))
	return t, nil
}

// DeleteTag deletes a tag and detaches it from every post.
func (s *Taxonomy) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Tags.Delete(ctx, id); err != nil {
		return err
	}
	invalidateListings(ctx, s.opts.Cache, s.opts.Logger)
	s.opts.Logger.Info("tag deleted", zap.String("id", id.String()))
	return nil
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errs.Invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxTaxonomyNameLength {
		return "", errs.Invalid("name", fmt.Sprintf("must be at most %d characters", MaxTaxonomyNameLength))
	}
	return name, nil
}
