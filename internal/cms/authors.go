// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cms

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"llmaware/internal/errs"
	"llmaware/internal/models"
	"llmaware/internal/slug"
)

// Author limits.
const (
	MaxAuthorNameLength = 200
	MaxPictureSize      = 5 << 20
)

// pictureExtensions maps accepted picture content types to file extensions.
var pictureExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Picture is an uploaded profile picture.
type Picture struct {
	Body        io.Reader
	Size        int64
	ContentType string
}

// Authors manages authors and their profile pictures. Every validation
// runs before the first write, so a rejected request touches neither the
// database nor object storage.
type Authors struct {
	repos Repositories
	opts  Options
}

// NewAuthors returns an Authors service.
func NewAuthors(repos Repositories, opts Options) *Authors {
	return &Authors{repos: repos, opts: opts.withDefaults()}
}

// List returns all authors ordered by name.
func (s *Authors) List(ctx context.Context) ([]models.Author, error) {
	items, err := s.repos.Authors.List(ctx)
	if items == nil && err == nil {
		items = []models.Author{}
	}
	return items, err
}

// Get returns an author by id.
func (s *Authors) Get(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	a, err := s.repos.Authors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errs.NotFound("author")
	}
	return a, nil
}

// GetBySlug returns an author by slug.
func (s *Authors) GetBySlug(ctx context.Context, authorSlug string) (*models.Author, error) {
	a, err := s.repos.Authors.FindBySlug(ctx, authorSlug)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errs.NotFound("author")
	}
	return a, nil
}

// Create stores a new author, uploading pic first when given. If the row
// cannot be written the uploaded object is removed again.
func (s *Authors) Create(ctx context.Context, in models.AuthorInput, pic *Picture) (*models.Author, error) {
	author, err := validateAuthor(in)
	if err != nil {
		return nil, err
	}
	if err := s.validatePicture(pic); err != nil {
		return nil, err
	}

	existing, err := s.repos.Authors.FindBySlug(ctx, author.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Conflict("author slug")
	}

	var key string
	if pic != nil {
		key, err = s.upload(ctx, author.Slug, pic)
		if err != nil {
			return nil, err
		}
		url := s.opts.Storage.FileURL(key)
		author.ProfilePictureURL = &url
	}

	created, err := s.repos.Authors.Create(ctx, author)
	if err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	s.opts.Logger.Info("author created", zap.String("id", created.ID.String()), zap.String("slug", created.Slug))
	return created, nil
}

// Update replaces the author's fields. With a new picture the old object
// is deleted first; if that fails the update stops before uploading.
func (s *Authors) Update(ctx context.Context, id uuid.UUID, in models.AuthorInput, pic *Picture) (*models.Author, error) {
	existing, err := s.repos.Authors.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errs.NotFound("author")
	}

	author, err := validateAuthor(in)
	if err != nil {
		return nil, err
	}
	if err := s.validatePicture(pic); err != nil {
		return nil, err
	}

	if author.Slug != existing.Slug {
		clash, err := s.repos.Authors.FindBySlug(ctx, author.Slug)
		if err != nil {
			return nil, err
		}
		if clash != nil && clash.ID != existing.ID {
			return nil, errs.Conflict("author slug")
		}
	}

	author.ID = existing.ID
	author.CreatedAt = existing.CreatedAt
	author.ProfilePictureURL = existing.ProfilePictureURL

	var key string
	if pic != nil {
		if existing.HasPicture() {
			if err := s.removePicture(ctx, *existing.ProfilePictureURL); err != nil {
				return nil, fmt.Errorf("delete previous author picture: %w", err)
			}
		}
		key, err = s.upload(ctx, author.Slug, pic)
		if err != nil {
			return nil, err
		}
		url := s.opts.Storage.FileURL(key)
		author.ProfilePictureURL = &url
	}

	if err := s.repos.Authors.Update(ctx, author); err != nil {
		s.discard(ctx, key)
		return nil, err
	}

	s.opts.Logger.Info("author updated", zap.String("id", author.ID.String()))
	return s.Get(ctx, author.ID)
}

// Delete removes the author's picture and then the row. A failed picture
// delete leaves the row in place. Authors with posts are refused before
// storage is touched.
func (s *Authors) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repos.Authors.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return errs.NotFound("author")
	}

	hasPosts, err := s.repos.Authors.HasPosts(ctx, id)
	if err != nil {
		return err
	}
	if hasPosts {
		return errs.InUse("author")
	}

	if existing.HasPicture() {
		if err := s.removePicture(ctx, *existing.ProfilePictureURL); err != nil {
			return fmt.Errorf("delete author picture: %w", err)
		}
	}

	if err := s.repos.Authors.Delete(ctx, id); err != nil {
		return err
	}
	s.opts.Logger.Info("author deleted", zap.String("id", id.String()))
	return nil
}

func validateAuthor(in models.AuthorInput) (*models.Author, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.Invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxAuthorNameLength {
		return nil, errs.Invalid("name", fmt.Sprintf("must be at most %d characters", MaxAuthorNameLength))
	}

	authorSlug := strings.TrimSpace(in.Slug)
	if authorSlug == "" {
		return nil, errs.Invalid("slug", "is required")
	}
	if !slug.IsValidAuthorSlug(authorSlug) {
		return nil, errs.Invalid("slug", "may only contain letters and hyphens")
	}

	a := &models.Author{Name: name, Slug: authorSlug}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		a.Description = &desc
	}
	return a, nil
}

func (s *Authors) validatePicture(pic *Picture) error {
	if pic == nil {
		return nil
	}
	if _, ok := pictureExtensions[pic.ContentType]; !ok {
		return errs.Invalid("profile_picture", "must be a JPEG, PNG, WebP or GIF image")
	}
	if pic.Size <= 0 {
		return errs.Invalid("profile_picture", "is empty")
	}
	if pic.Size > MaxPictureSize {
		return errs.Invalid("profile_picture", "must be at most 5 MB")
	}
	if s.opts.Storage == nil {
		return errs.ErrStorageUnavailable
	}
	return nil
}

// PictureKey builds the object key for an author picture.
func PictureKey(authorSlug string, unixMillis int64, contentType string) string {
	return fmt.Sprintf("authors/%s-%d%s", authorSlug, unixMillis, pictureExtensions[contentType])
}

func (s *Authors) upload(ctx context.Context, authorSlug string, pic *Picture) (string, error) {
	key := PictureKey(authorSlug, s.opts.Clock().UnixMilli(), pic.ContentType)
	if err := s.opts.Storage.Upload(ctx, key, pic.ContentType, pic.Body, pic.Size); err != nil {
		return "", fmt.Errorf("upload author picture: %w", err)
	}
	return key, nil
}

// removePicture deletes the stored object behind url. URLs that do not
// point into our storage are left alone.
func (s *Authors) removePicture(ctx context.Context, url string) error {
	if s.opts.Storage == nil {
		return errs.ErrStorageUnavailable
	}
	key, ok := s.opts.Storage.ExtractKey(url)
	if !ok {
		s.opts.Logger.Warn("author picture is not in managed storage, skipping delete", zap.String("url", url))
		return nil
	}
	return s.opts.Storage.Delete(ctx, key)
}

// discard removes a freshly uploaded object after a failed row write.
func (s *Authors) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.opts.Storage.Delete(ctx, key); err != nil {
		s.opts.Logger.Error("orphaned author picture", zap.String("key", key), zap.Error(err))
	}
}
