package bdd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/cucumber/godog"

	"github.com/modster/pickforge/internal/api"
	"github.com/modster/pickforge/internal/order"
	"github.com/modster/pickforge/internal/payments"
	"github.com/modster/pickforge/internal/storage"
)

const bddWebhookSecret = "whsec_bdd_suite"

// CheckoutWorld runs the real HTTP handlers over in-memory adapters. Webhook
// signatures are real: payloads are signed with the suite's webhook secret and
// verified by the production Stripe verifier.
type CheckoutWorld struct {
	t *testing.T

	server *httptest.Server
	blobs  *memBlobStore
	orders *memOrderStore
	intents *memIntentCreator
	idgen  *seqIDs

	// captured HTTP response
	httpStatus int
	httpBody   []byte
	httpJSON   map[string]any
	httpHeader http.Header

	// captured ids across steps
	imageID string
}

func NewCheckoutWorld(t *testing.T) *CheckoutWorld {
	w := &CheckoutWorld{
		t:       t,
		blobs:   &memBlobStore{data: map[string]memBlob{}},
		orders:  &memOrderStore{data: map[string]order.Record{}},
		intents: &memIntentCreator{},
		idgen:   &seqIDs{},
	}

	verifier := payments.NewClient("sk_test_bdd", bddWebhookSecret)

	mux := http.NewServeMux()
	api.RegisterImageRoutes(mux, staticGenerator{}, w.blobs, w.idgen)
	api.RegisterPaymentRoutes(mux, w.intents)
	api.RegisterWebhookRoutes(mux, verifier, w.orders, nil, w.idgen)
	api.RegisterOrderRoutes(mux, w.orders)
	w.server = httptest.NewServer(mux)
	return w
}

func (w *CheckoutWorld) Register(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		w.resetScenarioState()
		return ctx, nil
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, _ error) (context.Context, error) {
		return ctx, nil
	})

	w.registerCheckoutSteps(sc)
	w.registerWebhookSteps(sc)
}

func (w *CheckoutWorld) Close() {
	if w.server != nil {
		w.server.Close()
	}
}

func (w *CheckoutWorld) resetScenarioState() {
	w.blobs.reset()
	w.orders.reset()
	w.intents.reset()
	w.httpStatus = 0
	w.httpBody = nil
	w.httpJSON = nil
	w.httpHeader = nil
	w.imageID = ""
}

func (w *CheckoutWorld) capture(resp *http.Response) error {
	defer resp.Body.Close()
	w.httpStatus = resp.StatusCode
	w.httpHeader = resp.Header
	var err error
	w.httpBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	w.httpJSON = nil
	if json.Valid(w.httpBody) {
		_ = json.Unmarshal(w.httpBody, &w.httpJSON)
	}
	return nil
}

func (w *CheckoutWorld) debugf(format string, args ...any) {
	if os.Getenv("BDD_DEBUG") != "" {
		w.t.Logf(format, args...)
	}
}

// staticGenerator stands in for the Workers AI adapter; the suite is about the
// handler contract, not the upstream model.
type staticGenerator struct{}

func (staticGenerator) Generate(_ context.Context, prompt string) ([]byte, error) {
	return []byte("png-for:" + prompt), nil
}

type memBlob struct {
	contentType string
	data        []byte
}

type memBlobStore struct {
	mu   sync.Mutex
	data map[string]memBlob
}

func (s *memBlobStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]memBlob{}
}

func (s *memBlobStore) Put(_ context.Context, key, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memBlob{contentType: contentType, data: data}
	return nil
}

func (s *memBlobStore) Get(_ context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return b.data, b.contentType, nil
}

type memOrderStore struct {
	mu   sync.Mutex
	data map[string]order.Record
}

func (s *memOrderStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = map[string]order.Record{}
}

func (s *memOrderStore) Put(_ context.Context, orderID string, rec order.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[orderID] = rec
	return nil
}

func (s *memOrderStore) Get(_ context.Context, orderID string) (order.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.data[orderID]
	if !ok {
		return order.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *memOrderStore) all() []order.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]order.Record, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	return out
}

type memIntentCreator struct {
	mu       sync.Mutex
	amounts  []int64
	currency string
	metadata map[string]string
}

func (c *memIntentCreator) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amounts = nil
	c.currency = ""
	c.metadata = nil
}

func (c *memIntentCreator) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (payments.Intent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.amounts = append(c.amounts, amount)
	c.currency = currency
	c.metadata = metadata
	n := len(c.amounts)
	return payments.Intent{
		ID:           fmt.Sprintf("pi_bdd_%d", n),
		ClientSecret: fmt.Sprintf("pi_bdd_%d_secret", n),
	}, nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("bdd-id-%d", g.n)
}
