package order

import "time"

// StatusPaid is the only terminal status an order reaches in this service.
// Orders are written once when payment succeeds and never updated.
const StatusPaid = "paid"

// Record is the persisted order document. The JSON field names are the
// durable wire format consumed downstream; do not rename them.
type Record struct {
	OrderID         string    `json:"orderId"`
	PaymentIntentID string    `json:"paymentIntentId"`
	ImageID         string    `json:"imageId"`
	Name            string    `json:"name"`
	Address         string    `json:"address"`
	City            string    `json:"city"`
	State           string    `json:"state"`
	Zip             string    `json:"zip"`
	Country         string    `json:"country"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}
