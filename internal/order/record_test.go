package order

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The serialized field names are consumed outside this service; a rename here
// is a breaking change even if every Go caller still compiles.
func TestRecordWireFormat(t *testing.T) {
	rec := Record{
		OrderID:         "ord-1",
		PaymentIntentID: "pi_123",
		ImageID:         "abc",
		Name:            "Jane Doe",
		Address:         "1 Main St",
		City:            "Springfield",
		State:           "IL",
		Zip:             "62704",
		Country:         "US",
		Status:          StatusPaid,
		CreatedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))

	for _, key := range []string{
		"orderId", "paymentIntentId", "imageId", "name", "address",
		"city", "state", "zip", "country", "status", "createdAt",
	} {
		require.Contains(t, m, key)
	}
	require.Len(t, m, 11)
	require.Equal(t, "paid", m["status"])
	require.Equal(t, "2026-08-30T12:00:00Z", m["createdAt"])
}
