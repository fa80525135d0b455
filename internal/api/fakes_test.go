package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/modster/pickforge/internal/events"
	"github.com/modster/pickforge/internal/order"
	"github.com/modster/pickforge/internal/payments"
	"github.com/modster/pickforge/internal/storage"
)

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

// Deterministic id source so assertions can name keys exactly.
type fakeIDs struct {
	prefix string
	n      int
}

func (f *fakeIDs) NewID() string {
	f.n++
	return fmt.Sprintf("%s-%d", f.prefix, f.n)
}

type storedBlob struct {
	contentType string
	data        []byte
}

type fakeBlobStore struct {
	blobs  map[string]storedBlob
	putErr error
	getErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string]storedBlob)}
}

func (f *fakeBlobStore) Put(_ context.Context, key, contentType string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.blobs[key] = storedBlob{contentType: contentType, data: data}
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, key string) ([]byte, string, error) {
	if f.getErr != nil {
		return nil, "", f.getErr
	}
	b, ok := f.blobs[key]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return b.data, b.contentType, nil
}

type fakeGenerator struct {
	out       []byte
	err       error
	gotPrompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) ([]byte, error) {
	f.gotPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeIntentCreator struct {
	intent      payments.Intent
	err         error
	gotAmount   int64
	gotCurrency string
	gotMetadata map[string]string
}

func (f *fakeIntentCreator) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (payments.Intent, error) {
	f.gotAmount = amount
	f.gotCurrency = currency
	f.gotMetadata = metadata
	if f.err != nil {
		return payments.Intent{}, f.err
	}
	return f.intent, nil
}

type fakeVerifier struct {
	evt        payments.Event
	err        error
	gotPayload []byte
	gotSig     string
}

func (f *fakeVerifier) VerifyWebhook(payload []byte, sigHeader string) (payments.Event, error) {
	f.gotPayload = payload
	f.gotSig = sigHeader
	if f.err != nil {
		return payments.Event{}, f.err
	}
	return f.evt, nil
}

type fakeOrderStore struct {
	orders map[string]order.Record
	putErr error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]order.Record)}
}

func (f *fakeOrderStore) Put(_ context.Context, orderID string, rec order.Record) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.orders[orderID] = rec
	return nil
}

func (f *fakeOrderStore) Get(_ context.Context, orderID string) (order.Record, error) {
	rec, ok := f.orders[orderID]
	if !ok {
		return order.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

type fakePublisher struct {
	topics    []string
	keys      []string
	envelopes []events.Envelope
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, topic, key string, evt events.Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.keys = append(f.keys, key)
	f.envelopes = append(f.envelopes, evt)
	return nil
}
