// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// AuthorStore manages authors in the database.
type AuthorStore struct {
	db *sql.DB
}

// NewAuthorStore returns a new AuthorStore.
func NewAuthorStore(db *sql.DB) *AuthorStore {
	return &AuthorStore{db: db}
}

const authorColumns = `id, name, description, slug, profile_picture_url, created_at, updated_at`

func scanAuthor(scanner interface{ Scan(...any) error }) (*models.Author, error) {
	var a models.Author
	err := scanner.Scan(
		&a.ID, &a.Name, &a.Description, &a.Slug,
		&a.ProfilePictureURL, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns all authors ordered by name.
func (s *AuthorStore) List(ctx context.Context) ([]models.Author, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+authorColumns+` FROM authors ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	defer rows.Close()

	var items []models.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan author: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// FindByID retrieves an author by ID. Returns nil if not found.
func (s *AuthorStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Author, error) {
	a, err := scanAuthor(s.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find author by id: %w", err)
	}
	return a, nil
}

// FindBySlug retrieves an author by slug. Returns nil if not found.
func (s *AuthorStore) FindBySlug(ctx context.Context, slug string) (*models.Author, error) {
	a, err := scanAuthor(s.db.QueryRowContext(ctx, `SELECT `+authorColumns+` FROM authors WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find author by slug: %w", err)
	}
	return a, nil
}

// Create inserts a new author and returns it.
func (s *AuthorStore) Create(ctx context.Context, a *models.Author) (*models.Author, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO authors (name, description, slug, profile_picture_url)
		VALUES ($1, $2, $3, $4)
		RETURNING `+authorColumns,
		a.Name, a.Description, a.Slug, a.ProfilePictureURL,
	)
	result, err := scanAuthor(row)
	if err != nil {
		if mapped := writeError(err, "author slug"); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("create author: %w", err)
	}
	return result, nil
}

// Update modifies an existing author, including its picture reference.
func (s *AuthorStore) Update(ctx context.Context, a *models.Author) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE authors SET
			name = $1, description = $2, slug = $3,
			profile_picture_url = $4, updated_at = NOW()
		WHERE id = $5
	`, a.Name, a.Description, a.Slug, a.ProfilePictureURL, a.ID)
	if err != nil {
		if mapped := writeError(err, "author slug"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update author: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("author")
	}
	return nil
}

// HasPosts reports whether any post references the author.
func (s *AuthorStore) HasPosts(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE author_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check author posts: %w", err)
	}
	return exists, nil
}

// Delete removes an author by ID. Authors still referenced by posts are
// refused with errs.ErrInUse.
func (s *AuthorStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		if mapped := deleteError(err, "author"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("delete author: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("author")
	}
	return nil
}
