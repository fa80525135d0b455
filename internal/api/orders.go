package api

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/modster/pickforge/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RegisterOrderRoutes exposes a read-only lookup of persisted orders.
func RegisterOrderRoutes(mux *http.ServeMux, orders OrderStore) {
	mux.Handle("/api/orders/", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleGetOrder(orders, w, r)
	}), "orders"))
}

func handleGetOrder(orders OrderStore, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orderID := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	if orderID == "" {
		badRequest(w, "order id required")
		return
	}

	rec, err := orders.Get(r.Context(), orderID)
	if errors.Is(err, storage.ErrNotFound) {
		notFound(w, "order not found")
		return
	}
	if err != nil {
		log.Printf("[Orders] Error reading order %s: %v", orderID, err)
		upstreamError(w, "Failed to read order")
		return
	}

	writeJSON(w, rec)
}
