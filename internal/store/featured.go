package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"llmaware/internal/models"
)

// FeaturedStore manages the featured_posts slot table.
type FeaturedStore struct {
	db *sql.DB
}

// NewFeaturedStore returns a new FeaturedStore.
func NewFeaturedStore(db *sql.DB) *FeaturedStore {
	return &FeaturedStore{db: db}
}

// List returns the assigned slots ordered by position. Empty positions
// have no row and are not returned.
func (s *FeaturedStore) List(ctx context.Context) ([]models.FeaturedSlot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT position, post_id FROM featured_posts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list featured posts: %w", err)
	}
	defer rows.Close()

	var slots []models.FeaturedSlot
	for rows.Next() {
		var slot models.FeaturedSlot
		var postID uuid.UUID
		if err := rows.Scan(&slot.Position, &postID); err != nil {
			return nil, fmt.Errorf("scan featured post: %w", err)
		}
		slot.PostID = &postID
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Assign puts postID into position, replacing whatever occupied it.
func (s *FeaturedStore) Assign(ctx context.Context, position int, postID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO featured_posts (position, post_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (position) DO UPDATE SET post_id = EXCLUDED.post_id, updated_at = NOW()
	`, position, postID)
	if err != nil {
		if mapped := writeError(err, "featured post"); mapped != nil {
			return mapped
		}
		return fmt.Errorf("assign featured post: %w", err)
	}
	return nil
}

// Unassign empties a position. Emptying an empty position is a no-op.
func (s *FeaturedStore) Unassign(ctx context.Context, position int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM featured_posts WHERE position = $1`, position); err != nil {
		return fmt.Errorf("unassign featured post: %w", err)
	}
	return nil
}
