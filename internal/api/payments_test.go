package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modster/pickforge/internal/payments"
	"github.com/stretchr/testify/require"
)

func newPaymentServer(intents IntentCreator) *httptest.Server {
	mux := http.NewServeMux()
	RegisterPaymentRoutes(mux, intents)
	return httptest.NewServer(mux)
}

func validIntentRequest() map[string]string {
	return map[string]string{
		"imageId": "abc",
		"name":    "Jane Doe",
		"address": "1 Main St",
		"city":    "Springfield",
		"state":   "IL",
		"zip":     "62704",
		"country": "US",
	}
}

func TestCreatePaymentIntentReturnsClientSecret(t *testing.T) {
	intents := &fakeIntentCreator{intent: payments.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}}
	srv := newPaymentServer(intents)
	defer srv.Close()

	body, _ := json.Marshal(validIntentRequest())
	resp, err := http.Post(srv.URL+"/api/create-payment-intent", "application/json",
		strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		ClientSecret string `json:"clientSecret"`
	}
	require.NoError(t, decodeJSON(resp.Body, &out))
	require.Equal(t, "pi_1_secret", out.ClientSecret)

	// Fixed price, single product, metadata copied verbatim.
	require.Equal(t, int64(999), intents.gotAmount)
	require.Equal(t, "usd", intents.gotCurrency)
	require.Equal(t, validIntentRequest(), intents.gotMetadata)
}

func TestCreatePaymentIntentRejectsAnyMissingField(t *testing.T) {
	for field := range validIntentRequest() {
		intents := &fakeIntentCreator{}
		srv := newPaymentServer(intents)

		req := validIntentRequest()
		delete(req, field)
		body, _ := json.Marshal(req)

		resp, err := http.Post(srv.URL+"/api/create-payment-intent", "application/json",
			strings.NewReader(string(body)))
		require.NoError(t, err)
		resp.Body.Close()
		srv.Close()

		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing field %q", field)
		require.Nil(t, intents.gotMetadata, "no intent may be created when %q is missing", field)
	}
}

func TestCreatePaymentIntentUpstreamFailure(t *testing.T) {
	intents := &fakeIntentCreator{err: errors.New("stripe unreachable")}
	srv := newPaymentServer(intents)
	defer srv.Close()

	body, _ := json.Marshal(validIntentRequest())
	resp, err := http.Post(srv.URL+"/api/create-payment-intent", "application/json",
		strings.NewReader(string(body)))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
