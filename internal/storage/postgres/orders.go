package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/modster/pickforge/internal/order"
	"github.com/modster/pickforge/internal/storage"
)

// OrderStore is a key-value store for finalized order records. Each record is
// written exactly once per webhook delivery; there is no update path.
type OrderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) *OrderStore {
	return &OrderStore{db: db}
}

func (s *OrderStore) Put(ctx context.Context, orderID string, rec order.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize order %s: %w", orderID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO orders (id, record) VALUES ($1, $2)`, orderID, payload)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", orderID, err)
	}
	log.Printf("[DB] Inserted order: %s", orderID)
	return nil
}

func (s *OrderStore) Get(ctx context.Context, orderID string) (order.Record, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM orders WHERE id = $1`, orderID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return order.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return order.Record{}, fmt.Errorf("failed to read order %s: %w", orderID, err)
	}
	var rec order.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return order.Record{}, fmt.Errorf("failed to decode order %s: %w", orderID, err)
	}
	return rec, nil
}
