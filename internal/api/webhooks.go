package api

import (
	"io"
	"log"
	"net/http"
	"time"

	"github.com/modster/pickforge/internal/events"
	"github.com/modster/pickforge/internal/ids"
	"github.com/modster/pickforge/internal/order"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxWebhookBytes = 1 << 20

// OrdersTopic is where OrderCreated events are published for the receipt worker.
const OrdersTopic = "orders.v1"

// RegisterWebhookRoutes mounts the Stripe webhook endpoint. prod may be nil;
// event publishing is best-effort observability, never part of the ack.
func RegisterWebhookRoutes(mux *http.ServeMux, verifier WebhookVerifier, orders OrderStore, prod EventPublisher, idgen ids.Generator) {
	mux.Handle("/api/webhook", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleStripeWebhook(verifier, orders, prod, idgen, w, r)
	}), "stripe-webhook"))
}

// handleStripeWebhook verifies the signature, then performs at most one state
// transition per delivery. Redelivered events are NOT deduplicated: each
// succeeded delivery writes a fresh order record. Stripe retries on non-2xx,
// so verification failures return 400 and persistence failures 500.
func handleStripeWebhook(verifier WebhookVerifier, orders OrderStore, prod EventPublisher, idgen ids.Generator, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		badRequest(w, "Missing stripe-signature header")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		badRequest(w, "Webhook error")
		return
	}

	evt, err := verifier.VerifyWebhook(body, signature)
	if err != nil {
		log.Printf("[Webhook] signature verification failed: %v", err)
		badRequest(w, "Webhook error")
		return
	}

	switch evt.Type {
	case "payment_intent.succeeded":
		orderID := idgen.NewID()
		rec := order.Record{
			OrderID:         orderID,
			PaymentIntentID: evt.IntentID,
			ImageID:         evt.Metadata["imageId"],
			Name:            evt.Metadata["name"],
			Address:         evt.Metadata["address"],
			City:            evt.Metadata["city"],
			State:           evt.Metadata["state"],
			Zip:             evt.Metadata["zip"],
			Country:         evt.Metadata["country"],
			Status:          order.StatusPaid,
			CreatedAt:       time.Now().UTC(),
		}
		if err := orders.Put(r.Context(), orderID, rec); err != nil {
			log.Printf("[Webhook] failed to persist order for intent %s: %v", evt.IntentID, err)
			upstreamError(w, "Failed to store order")
			return
		}
		log.Printf("[Webhook] Order created: %s", orderID)
		publishOrderCreated(prod, r, rec)

	case "payment_intent.payment_failed":
		log.Printf("[Webhook] Payment failed: %s", evt.IntentID)

	default:
		log.Printf("[Webhook] Unhandled event type: %s", evt.Type)
	}

	writeJSON(w, map[string]any{"received": true})
}

func publishOrderCreated(prod EventPublisher, r *http.Request, rec order.Record) {
	if prod == nil {
		return
	}
	evt := events.Envelope{
		EventType:    "OrderCreated",
		EventVersion: "v1",
		AggregateID:  rec.OrderID,
		Data: map[string]any{
			"orderId":         rec.OrderID,
			"paymentIntentId": rec.PaymentIntentID,
			"imageId":         rec.ImageID,
			"imageUrl":        imageURL(rec.ImageID),
			"name":            rec.Name,
		},
	}
	if err := prod.Publish(r.Context(), OrdersTopic, rec.OrderID, evt); err != nil {
		log.Printf("[Webhook] failed to publish OrderCreated for %s: %v", rec.OrderID, err)
	}
}
