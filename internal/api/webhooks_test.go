package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modster/pickforge/internal/order"
	"github.com/modster/pickforge/internal/payments"
	"github.com/stretchr/testify/require"
)

func newWebhookServer(verifier WebhookVerifier, orders OrderStore, prod EventPublisher) *httptest.Server {
	mux := http.NewServeMux()
	RegisterWebhookRoutes(mux, verifier, orders, prod, &fakeIDs{prefix: "ord"})
	return httptest.NewServer(mux)
}

func succeededEvent() payments.Event {
	return payments.Event{
		ID:       "evt_1",
		Type:     "payment_intent.succeeded",
		IntentID: "pi_123",
		Metadata: map[string]string{
			"imageId": "abc",
			"name":    "Jane Doe",
			"address": "1 Main St",
			"city":    "Springfield",
			"state":   "IL",
			"zip":     "62704",
			"country": "US",
		},
	}
}

func postWebhook(t *testing.T, url, signature string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/api/webhook", strings.NewReader(`{}`))
	require.NoError(t, err)
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestWebhookRequiresSignatureHeader(t *testing.T) {
	orders := newFakeOrderStore()
	srv := newWebhookServer(&fakeVerifier{evt: succeededEvent()}, orders, nil)
	defer srv.Close()

	resp := postWebhook(t, srv.URL, "")
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, orders.orders, "no order may be persisted without a signature")
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	orders := newFakeOrderStore()
	verifier := &fakeVerifier{err: errors.New("signature mismatch")}
	srv := newWebhookServer(verifier, orders, nil)
	defer srv.Close()

	resp := postWebhook(t, srv.URL, "t=1,v1=bad")
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "t=1,v1=bad", verifier.gotSig)
	require.Empty(t, orders.orders)
}

func TestWebhookSucceededEventPersistsOrder(t *testing.T) {
	orders := newFakeOrderStore()
	prod := &fakePublisher{}
	srv := newWebhookServer(&fakeVerifier{evt: succeededEvent()}, orders, prod)
	defer srv.Close()

	resp := postWebhook(t, srv.URL, "t=1,v1=good")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ack map[string]bool
	require.NoError(t, decodeJSON(resp.Body, &ack))
	require.True(t, ack["received"])

	require.Len(t, orders.orders, 1)
	rec, ok := orders.orders["ord-1"]
	require.True(t, ok)
	require.Equal(t, order.Record{
		OrderID:         "ord-1",
		PaymentIntentID: "pi_123",
		ImageID:         "abc",
		Name:            "Jane Doe",
		Address:         "1 Main St",
		City:            "Springfield",
		State:           "IL",
		Zip:             "62704",
		Country:         "US",
		Status:          order.StatusPaid,
		CreatedAt:       rec.CreatedAt,
	}, rec)
	require.WithinDuration(t, time.Now().UTC(), rec.CreatedAt, time.Minute)

	require.Equal(t, []string{OrdersTopic}, prod.topics)
	require.Equal(t, []string{"ord-1"}, prod.keys)
	require.Equal(t, "OrderCreated", prod.envelopes[0].EventType)
}

func TestWebhookFailedEventAcksWithoutPersisting(t *testing.T) {
	orders := newFakeOrderStore()
	evt := payments.Event{ID: "evt_2", Type: "payment_intent.payment_failed", IntentID: "pi_9"}
	srv := newWebhookServer(&fakeVerifier{evt: evt}, orders, nil)
	defer srv.Close()

	resp := postWebhook(t, srv.URL, "t=1,v1=good")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ack map[string]bool
	require.NoError(t, decodeJSON(resp.Body, &ack))
	require.True(t, ack["received"])
	require.Empty(t, orders.orders)
}

func TestWebhookUnhandledEventTypeAcks(t *testing.T) {
	orders := newFakeOrderStore()
	evt := payments.Event{ID: "evt_3", Type: "charge.refunded"}
	srv := newWebhookServer(&fakeVerifier{evt: evt}, orders, nil)
	defer srv.Close()

	resp := postWebhook(t, srv.URL, "t=1,v1=good")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, orders.orders)
}

func TestWebhookPersistenceFailureReturns500(t *testing.T) {
	orders := newFakeOrderStore()
	orders.putErr = errors.New("kv unavailable")
	srv := newWebhookServer(&fakeVerifier{evt: succeededEvent()}, orders, nil)
	defer srv.Close()

	resp := postWebhook(t, srv.URL, "t=1,v1=good")
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

// Redelivery of the same event is intentionally not deduplicated: each
// delivery mints a fresh order id and writes a fresh record.
func TestWebhookRedeliveryWritesTwoOrders(t *testing.T) {
	orders := newFakeOrderStore()
	srv := newWebhookServer(&fakeVerifier{evt: succeededEvent()}, orders, nil)
	defer srv.Close()

	for i := 0; i < 2; i++ {
		resp := postWebhook(t, srv.URL, "t=1,v1=good")
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	require.Len(t, orders.orders, 2)
	require.Contains(t, orders.orders, "ord-1")
	require.Contains(t, orders.orders, "ord-2")
}

func TestWebhookPublishFailureDoesNotAffectAck(t *testing.T) {
	orders := newFakeOrderStore()
	prod := &fakePublisher{err: errors.New("broker down")}
	srv := newWebhookServer(&fakeVerifier{evt: succeededEvent()}, orders, prod)
	defer srv.Close()

	resp := postWebhook(t, srv.URL, "t=1,v1=good")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, orders.orders, 1)
}
