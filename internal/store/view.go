package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ViewStore appends to and aggregates the post_views log.
type ViewStore struct {
	db *sql.DB
}

// NewViewStore returns a new ViewStore.
func NewViewStore(db *sql.DB) *ViewStore {
	return &ViewStore{db: db}
}

// Record appends one view of postID at the given time.
func (s *ViewStore) Record(ctx context.Context, postID uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO post_views (post_id, viewed_at) VALUES ($1, $2)`, postID, at)
	if err != nil {
		return fmt.Errorf("record post view: %w", err)
	}
	return nil
}

// CountByPosts returns the number of view rows per post. Posts without
// views are absent from the map and count as zero.
func (s *ViewStore) CountByPosts(ctx context.Context, postIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT post_id, COUNT(*) FROM post_views
		WHERE post_id = ANY($1)
		GROUP BY post_id
	`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("count post views: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("scan post view count: %w", err)
		}
		out[id] = n
	}
	return out, rows.Err()
}
