// Package payments wraps the Stripe API behind the two narrow capabilities
// the handlers need: creating a payment intent and verifying webhook events.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Intent carries the client-usable credentials of a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// Event is a verified webhook event. For payment_intent.* events the intent
// id and its attached metadata are populated; other types carry the raw type
// only so the caller can log and ignore them.
type Event struct {
	ID       string
	Type     string
	IntentID string
	Metadata map[string]string
}

// Client talks to Stripe with the account secret key and verifies inbound
// webhook payloads with the shared webhook signing secret.
type Client struct {
	api           *client.API
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, webhookSecret: webhookSecret}
}

// CreateIntent creates a payment intent for the given amount in minor units,
// attaching every metadata field verbatim. The intent lives entirely in
// Stripe until its terminal event arrives on the webhook.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	return Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the raw body and
// returns the decoded event. A malformed payload and a bad signature are the
// same failure from the caller's point of view.
func (c *Client) VerifyWebhook(payload []byte, sigHeader string) (Event, error) {
	evt, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}

	out := Event{ID: evt.ID, Type: string(evt.Type)}
	if strings.HasPrefix(out.Type, "payment_intent.") {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return Event{}, fmt.Errorf("decode payment intent from event %s: %w", evt.ID, err)
		}
		out.IntentID = pi.ID
		out.Metadata = pi.Metadata
	}
	return out, nil
}
