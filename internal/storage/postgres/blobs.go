package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/modster/pickforge/internal/storage"
)

// BlobStore persists opaque byte payloads keyed by string. Backed by the
// guitar_pick_blobs table; a key is written once and never reused.
type BlobStore struct {
	db *sql.DB
}

func NewBlobStore(db *sql.DB) *BlobStore {
	return &BlobStore{db: db}
}

func (s *BlobStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO guitar_pick_blobs (key, content_type, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			data = EXCLUDED.data
	`, key, contentType, data)
	if err != nil {
		return fmt.Errorf("failed to store blob %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := s.db.QueryRowContext(ctx,
		`SELECT data, content_type FROM guitar_pick_blobs WHERE key = $1`, key).
		Scan(&data, &contentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", storage.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, contentType, nil
}
