package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"llmaware/internal/errs"
	"llmaware/internal/models"
)

// TagStore manages tags in the database.
type TagStore struct {
	db *sql.DB
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

const tagColumns = `id, name, created_at`

func scanTag(scanner interface{ Scan(...any) error }) (*models.Tag, error) {
	var t models.Tag
	if err := scanner.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TagStore) queryTags(ctx context.Context, query string, args ...any) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// List returns all tags ordered by name.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	items, err := s.queryTags(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return items, nil
}

// FindByIDs retrieves every tag whose ID is in ids.
func (s *TagStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := s.queryTags(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("find tags by ids: %w", err)
	}
	return items, nil
}

// FindByID retrieves a tag by ID. Returns nil if not found.
func (s *TagStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// Create inserts a new tag and returns it.
func (s *TagStore) Create(ctx context.Context, name string) (*models.Tag, error) {
	row := s.db.QueryRowContext(ctx, `INSERT INTO tags (name) VALUES ($1) RETURNING `+tagColumns, name)
	t, err := scanTag(row)
	if err != nil {
		if mapped := writeError(err, "tag"); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// Delete removes a tag. Its post associations go with it (ON DELETE CASCADE).
func (s *TagStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound("tag")
	}
	return nil
}
