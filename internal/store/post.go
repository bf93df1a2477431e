// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// PostStore manages posts and their tag associations. Multi-table writes
// run in a single transaction.
type PostStore struct {
	db *sql.DB
}

// NewPostStore returns a new PostStore.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, category_id, slug, html, time_to_read, author_id, published, created_at, updated_at`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.CategoryID, &p.Slug, &p.HTML, &p.TimeToRead,
		&p.AuthorID, &p.Published, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts the post and its tag associations atomically. The caller
// owns CreatedAt and UpdatedAt.
func (s *PostStore) Create(ctx context.Context, p *models.Post, tagIDs []uuid.UUID) (*models.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO posts (title, category_id, slug, html, time_to_read, author_id, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+postColumns,
		p.Title, p.CategoryID, p.Slug, p.HTML, p.TimeToRead,
		p.AuthorID, p.Published, p.CreatedAt, p.UpdatedAt,
	)
	created, err := scanPost(row)
	if err != nil {
		if mapped := writeError(err, "post slug"); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("create post: %w", err)
	}

	if err := insertPostTags(ctx, tx, created.ID, tagIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create post: %w", err)
	}
	return created, nil
}

// Update writes the post fields and replaces its tag associations with
// exactly tagIDs, atomically. created_at is never touched.
func (s *PostStore) Update(ctx context.Context, p *models.Post, tagIDs []uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, category_id = $2, slug = $3, html = $4, time_to_read = $5,
			author_id = $6, published = $7, updated_at = $8
		WHERE id = $9
	`, p.Title, p.CategoryID, p.Slug, p.HTML, p.TimeToRead,
		p.AuthorID, p.Published, p.UpdatedAt, p.ID)
	if err != nil {
		if mapped := writeError(err, "post slug"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("post")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts_tags WHERE post_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}
	if err := insertPostTags(ctx, tx, p.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update post: %w", err)
	}
	return nil
}

func insertPostTags(ctx context.Context, tx *sql.Tx, postID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO posts_tags (post_id, tag_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, postID, tagIDs)
	if err != nil {
		if mapped := writeError(err, "post tag"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert post tags: %w", err)
	}
	return nil
}

// Delete removes the post with its tag associations and featured slots in
// one transaction. View rows are kept.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM posts_tags WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete post tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM featured_posts WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete post featured slots: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("post")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete post: %w", err)
	}
	return nil
}

// FindByID retrieves a post by ID. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// List returns posts newest first, optionally only published ones.
func (s *PostStore) List(ctx context.Context, publishedOnly bool) ([]models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// TagIDs returns the IDs of the tags attached to a post.
func (s *PostStore) TagIDs(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag_id FROM posts_tags WHERE post_id = $1`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post tag ids: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan post tag id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// TagNamesByPosts returns tag names per post for every post in postIDs,
// resolved through posts_tags in one query. Names are ordered by name.
func (s *PostStore) TagNamesByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID][]string, error) {
	out := make(map[uuid.UUID][]string, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pt.post_id, t.name
		FROM posts_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY pt.post_id, lower(t.name)
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("list tag names by posts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postID uuid.UUID
		var name string
		if err := rows.Scan(&postID, &name); err != nil {
			return nil, fmt.Errorf("scan post tag name: %w", err)
		}
		out[postID] = append(out[postID], name)
	}
	return out, rows.Err()
}
