package api

import (
	"encoding/json"
	"log"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// There is exactly one product: a custom guitar pick at $9.99. The price is
// not looked up anywhere, it is the catalog.
const (
	pickPriceMinorUnits = 999
	pickCurrency        = "usd"
)

// RegisterPaymentRoutes mounts the payment intent endpoint.
func RegisterPaymentRoutes(mux *http.ServeMux, intents IntentCreator) {
	mux.Handle("/api/create-payment-intent", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCreatePaymentIntent(intents, w, r)
	}), "create-payment-intent"))
}

type paymentIntentRequest struct {
	ImageID string `json:"imageId"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// handleCreatePaymentIntent validates the order fields, creates an intent for
// the fixed price with all fields attached as metadata, and returns the
// client secret. No local state is created; the intent lives in Stripe until
// its terminal webhook event arrives.
func handleCreatePaymentIntent(intents IntentCreator, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req paymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "All fields are required")
		return
	}
	if req.ImageID == "" || req.Name == "" || req.Address == "" ||
		req.City == "" || req.State == "" || req.Zip == "" || req.Country == "" {
		badRequest(w, "All fields are required")
		return
	}

	metadata := map[string]string{
		"imageId": req.ImageID,
		"name":    req.Name,
		"address": req.Address,
		"city":    req.City,
		"state":   req.State,
		"zip":     req.Zip,
		"country": req.Country,
	}

	intent, err := intents.CreateIntent(r.Context(), pickPriceMinorUnits, pickCurrency, metadata)
	if err != nil {
		log.Printf("[Payments] Error creating payment intent: %v", err)
		upstreamError(w, "Failed to create payment intent")
		return
	}

	writeJSON(w, map[string]any{
		"clientSecret": intent.ClientSecret,
	})
}
