package cms

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"llmaware/internal/errs"
	"llmaware/internal/markdown"
	"llmaware/internal/models"
	"llmaware/internal/sanitize"
	"llmaware/internal/slug"
)

// Field limits for posts.
const (
	MaxTitleLength      = 300
	MaxPostSlugLength   = 300
	MaxTimeToReadLength = 50
)

// Posts manages the post lifecycle.
type Posts struct {
	repos Repositories
	opts  Options
}

// NewPosts returns a Posts service.
func NewPosts(repos Repositories, opts Options) *Posts {
	return &Posts{repos: repos, opts: opts.withDefaults()}
}

// Create validates in, stores the post with its tags and returns it.
// CreatedAt and UpdatedAt are both set from the service clock.
func (s *Posts) Create(ctx context.Context, in models.PostInput) (*models.PostDetail, error) {
	post, tagIDs, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.opts.Clock().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	created, err := s.repos.Posts.Create(ctx, post, tagIDs)
	if err != nil {
		return nil, err
	}

	invalidateListings(ctx, s.opts.Cache, s.opts.Logger)
	s.opts.Logger.Info("post created", zap.String("id", created.ID.String()), zap.String("slug", created.Slug))
	return &models.PostDetail{Post: *created, TagIDs: tagIDs}, nil
}

// Update replaces every editable field of the post and its tag set.
// CreatedAt is preserved; UpdatedAt is refreshed from the service clock.
func (s *Posts) Update(ctx context.Context, id uuid.UUID, in models.PostInput) (*models.PostDetail, error) {
	existing, err := s.repos.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errs.NotFound("post")
	}

	post, tagIDs, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	post.ID = existing.ID
	post.CreatedAt = existing.CreatedAt
	post.UpdatedAt = s.opts.Clock().UTC()

	if err := s.repos.Posts.Update(ctx, post, tagIDs); err != nil {
		return nil, err
	}

	invalidateListings(ctx, s.opts.Cache, s.opts.Logger)
	s.opts.Logger.Info("post updated", zap.String("id", post.ID.String()))
	return &models.PostDetail{Post: *post, TagIDs: tagIDs}, nil
}

// Delete removes the post, its tag associations and any featured slot
// holding it. Recorded views are kept.
func (s *Posts) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repos.Posts.Delete(ctx, id); err != nil {
		return err
	}
	invalidateListings(ctx, s.opts.Cache, s.opts.Logger)
	s.opts.Logger.Info("post deleted", zap.String("id", id.String()))
	return nil
}

// Get returns the post with its current tag ids.
func (s *Posts) Get(ctx context.Context, id uuid.UUID) (*models.PostDetail, error) {
	post, err := s.repos.Posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, post)
}

// GetBySlug returns the post addressed by slug with its current tag ids.
func (s *Posts) GetBySlug(ctx context.Context, postSlug string) (*models.PostDetail, error) {
	post, err := s.repos.Posts.FindBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, post)
}

func (s *Posts) detail(ctx context.Context, post *models.Post) (*models.PostDetail, error) {
	if post == nil {
		return nil, errs.NotFound("post")
	}
	tagIDs, err := s.repos.Posts.TagIDs(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	if tagIDs == nil {
		tagIDs = []uuid.UUID{}
	}
	return &models.PostDetail{Post: *post, TagIDs: tagIDs}, nil
}

// prepare validates and normalizes input into a post row and a
// de-duplicated tag id list. Nothing is written.
func (s *Posts) prepare(ctx context.Context, in models.PostInput) (*models.Post, []uuid.UUID, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, nil, errs.Invalid("title", "is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, nil, errs.Invalid("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}

	postSlug := strings.TrimSpace(in.Slug)
	if postSlug == "" {
		postSlug = slug.Generate(title)
	}
	if postSlug == "" {
		return nil, nil, errs.Invalid("slug", "is required")
	}
	if len(postSlug) > MaxPostSlugLength {
		return nil, nil, errs.Invalid("slug", fmt.Sprintf("must be at most %d characters", MaxPostSlugLength))
	}
	if !slug.IsValidPostSlug(postSlug) {
		return nil, nil, errs.Invalid("slug", "may only contain lowercase letters, digits and single hyphens")
	}

	timeToRead := strings.TrimSpace(in.TimeToRead)
	if utf8.RuneCountInString(timeToRead) > MaxTimeToReadLength {
		return nil, nil, errs.Invalid("time_to_read", fmt.Sprintf("must be at most %d characters", MaxTimeToReadLength))
	}

	if in.CategoryID == uuid.Nil {
		return nil, nil, errs.Invalid("category_id", "is required")
	}
	if in.AuthorID == uuid.Nil {
		return nil, nil, errs.Invalid("author_id", "is required")
	}

	body, err := renderBody(in.Body, in.Format)
	if err != nil {
		return nil, nil, err
	}

	tagIDs, err := dedupeIDs(in.TagIDs)
	if err != nil {
		return nil, nil, err
	}

	if err := s.checkReferences(ctx, in.CategoryID, in.AuthorID, tagIDs); err != nil {
		return nil, nil, err
	}

	return &models.Post{
		Title:      title,
		CategoryID: in.CategoryID,
		Slug:       postSlug,
		HTML:       body,
		TimeToRead: timeToRead,
		AuthorID:   in.AuthorID,
		Published:  in.Published,
	}, tagIDs, nil
}

func (s *Posts) checkReferences(ctx context.Context, categoryID, authorID uuid.UUID, tagIDs []uuid.UUID) error {
	cat, err := s.repos.Categories.FindByID(ctx, categoryID)
	if err != nil {
		return err
	}
	if cat == nil {
		return errs.Invalid("category_id", "category does not exist")
	}

	author, err := s.repos.Authors.FindByID(ctx, authorID)
	if err != nil {
		return err
	}
	if author == nil {
		return errs.Invalid("author_id", "author does not exist")
	}

	if len(tagIDs) == 0 {
		return nil
	}
	found, err := s.repos.Tags.FindByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(found) != len(tagIDs) {
		return errs.Invalid("tags", "one or more tags do not exist")
	}
	return nil
}

// renderBody converts the submitted body to HTML and sanitizes it.
func renderBody(body string, format models.BodyFormat) (string, error) {
	switch format {
	case "", models.BodyFormatHTML:
	case models.BodyFormatMarkdown:
		html, err := markdown.ToHTML(body)
		if err != nil {
			return "", errs.Invalid("html", "markdown could not be rendered")
		}
		body = html
	default:
		return "", errs.Invalid("format", `must be "html" or "markdown"`)
	}
	return sanitize.HTML(body), nil
}

// dedupeIDs drops repeated ids, keeping first-seen order.
func dedupeIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, errs.Invalid("tags", "contains an empty id")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
