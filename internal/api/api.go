// Package api implements the HTTP handler layer. Handlers depend only on the
// narrow capabilities below, never on a concrete vendor, so tests substitute
// in-process fakes.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/modster/pickforge/internal/events"
	"github.com/modster/pickforge/internal/order"
	"github.com/modster/pickforge/internal/payments"
)

// ImageGenerator turns a text prompt into raw image bytes.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// BlobStore stores opaque byte payloads by key.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (data []byte, contentType string, err error)
}

// OrderStore is key-value persistence for finalized orders.
type OrderStore interface {
	Put(ctx context.Context, orderID string, rec order.Record) error
	Get(ctx context.Context, orderID string) (order.Record, error)
}

// IntentCreator creates a payment intent with attached metadata.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (payments.Intent, error)
}

// WebhookVerifier checks an inbound webhook signature and decodes the event.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (payments.Event, error)
}

// EventPublisher emits best-effort order events for downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, evt events.Envelope) error
}

// Error taxonomy: every handler failure is one of these three kinds.

// badRequest reports malformed client input or a failed signature check.
func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}

// notFound reports a missing resource.
func notFound(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusNotFound)
}

// upstreamError reports an adapter or dependency failure. Nothing is retried
// internally; callers see the failure directly.
func upstreamError(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
