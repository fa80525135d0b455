package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modster/pickforge/internal/order"
	"github.com/stretchr/testify/require"
)

func TestGetOrderReturnsPersistedRecord(t *testing.T) {
	orders := newFakeOrderStore()
	orders.orders["ord-1"] = order.Record{
		OrderID:         "ord-1",
		PaymentIntentID: "pi_1",
		ImageID:         "abc",
		Name:            "Jane Doe",
		Status:          order.StatusPaid,
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	mux := http.NewServeMux()
	RegisterOrderRoutes(mux, orders)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/orders/ord-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec order.Record
	require.NoError(t, decodeJSON(resp.Body, &rec))
	require.Equal(t, orders.orders["ord-1"], rec)
}

func TestGetOrderUnknownIDReturns404(t *testing.T) {
	mux := http.NewServeMux()
	RegisterOrderRoutes(mux, newFakeOrderStore())
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/orders/missing")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
