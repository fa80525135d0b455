package bdd

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/modster/pickforge/internal/order"
)

func (w *CheckoutWorld) registerWebhookSteps(sc *godog.ScenarioContext) {
	sc.Step(`^Stripe delivers a signed "([^"]+)" event for intent "([^"]+)"$`, w.deliverSignedEvent)
	sc.Step(`^Stripe redelivers the same "([^"]+)" event for intent "([^"]+)"$`, w.deliverSignedEvent)
	sc.Step(`^a tampered webhook for intent "([^"]+)" is delivered$`, w.deliverTamperedEvent)
	sc.Step(`^the delivery is acknowledged$`, w.assertAcknowledged)
	sc.Step(`^the delivery is rejected as a bad request$`, w.assertBadRequest)
	sc.Step(`^(\d+) orders? (?:is|are) persisted$`, w.assertOrderCount)
	sc.Step(`^each order carries the intent id "([^"]+)" and status "([^"]+)"$`, w.assertOrderContents)
	sc.Step(`^the persisted order can be fetched over the API$`, w.fetchPersistedOrder)
}

func eventPayload(eventType, intentID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_bdd_1",
		"api_version": %q,
		"type": %q,
		"data": {
			"object": {
				"id": %q,
				"object": "payment_intent",
				"metadata": {
					"imageId": "img-bdd-1",
					"name": "Pat Smith",
					"address": "1 Guitar Way",
					"city": "Nashville",
					"state": "TN",
					"zip": "37201",
					"country": "US"
				}
			}
		}
	}`, stripe.APIVersion, eventType, intentID))
}

func signHeader(payload []byte, secret string) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func (w *CheckoutWorld) deliverSignedEvent(eventType, intentID string) error {
	payload := eventPayload(eventType, intentID)
	return w.postWebhook(payload, signHeader(payload, bddWebhookSecret))
}

func (w *CheckoutWorld) deliverTamperedEvent(intentID string) error {
	payload := eventPayload("payment_intent.succeeded", intentID)
	header := signHeader(payload, bddWebhookSecret)
	// mutate the payload after signing
	payload = bytes.Replace(payload, []byte("Pat Smith"), []byte("Mallory"), 1)
	return w.postWebhook(payload, header)
}

func (w *CheckoutWorld) postWebhook(payload []byte, sigHeader string) error {
	req, err := http.NewRequest(http.MethodPost, w.server.URL+"/api/webhook", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", sigHeader)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	return w.capture(resp)
}

func (w *CheckoutWorld) assertAcknowledged() error {
	if w.httpStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.httpStatus, w.httpBody)
	}
	if received, _ := w.httpJSON["received"].(bool); !received {
		return fmt.Errorf("expected {received:true}, got %v", w.httpJSON)
	}
	return nil
}

func (w *CheckoutWorld) assertOrderCount(count int) error {
	got := len(w.orders.all())
	if got != count {
		return fmt.Errorf("expected %d persisted orders, got %d", count, got)
	}
	return nil
}

func (w *CheckoutWorld) assertOrderContents(intentID, status string) error {
	recs := w.orders.all()
	if len(recs) == 0 {
		return fmt.Errorf("no orders persisted")
	}
	seen := map[string]bool{}
	for _, rec := range recs {
		if rec.PaymentIntentID != intentID {
			return fmt.Errorf("order %s: expected intent %q, got %q", rec.OrderID, intentID, rec.PaymentIntentID)
		}
		if rec.Status != status {
			return fmt.Errorf("order %s: expected status %q, got %q", rec.OrderID, status, rec.Status)
		}
		if rec.Name != "Pat Smith" || rec.ImageID != "img-bdd-1" {
			return fmt.Errorf("order %s: metadata not copied verbatim: %+v", rec.OrderID, rec)
		}
		if rec.OrderID == "" || seen[rec.OrderID] {
			return fmt.Errorf("expected a fresh order id per delivery, got %q twice", rec.OrderID)
		}
		seen[rec.OrderID] = true
	}
	return nil
}

func (w *CheckoutWorld) fetchPersistedOrder() error {
	recs := w.orders.all()
	if len(recs) == 0 {
		return fmt.Errorf("no orders persisted")
	}
	resp, err := http.Get(w.server.URL + "/api/orders/" + recs[0].OrderID)
	if err != nil {
		return err
	}
	if err := w.capture(resp); err != nil {
		return err
	}
	if w.httpStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.httpStatus, w.httpBody)
	}
	var got order.Record
	if err := json.Unmarshal(w.httpBody, &got); err != nil {
		return err
	}
	if got.OrderID != recs[0].OrderID {
		return fmt.Errorf("expected order %s, got %s", recs[0].OrderID, got.OrderID)
	}
	return nil
}
