package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/modster/pickforge/internal/email"
	"github.com/modster/pickforge/internal/events"
)

func main() {
	log.Println("Receipt worker starting...")
	startConsumer()
}

func startConsumer() {
	brokers := splitAndTrim(getenv("KAFKA_BROKERS", "localhost:9092"))
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "orders.v1",
		GroupID:  "receipt-workers", // its own consumer group
		MinBytes: 1e3, MaxBytes: 10e6,
	})
	defer reader.Close()

	sender := pickSender()
	log.Println("[receipt-worker] consuming (group=receipt-workers)")
	for {
		msg, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("[receipt-worker] read error: %v", err)
			return
		}

		var evt events.Envelope
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			log.Printf("[receipt-worker] bad json: %v; payload=%s", err, string(msg.Value))
			continue
		}

		switch evt.EventType {
		case "OrderCreated":
			handleOrderCreated(sender, evt)
		default:
			// ignore other event types
		}
	}
}

func handleOrderCreated(sender email.Sender, evt events.Envelope) {
	data := toMap(evt.Data)
	orderID := toString(data["orderId"])
	name := toString(data["name"])
	imageURL := toString(data["imageUrl"])
	// Customer email isn't collected at checkout yet; for demo accept override via env:
	to := getenv("DEMO_TO_EMAIL", "test@example.local")

	body := email.RenderOrderReceiptEmail(orderID, name, imageURL)
	if err := sender.Send(to, "Your guitar pick order", body); err != nil {
		log.Printf("[receipt-worker] send failed: %v", err)
		return
	}

	log.Printf("[receipt-worker] sent OrderCreated receipt to=%s order=%s", to, orderID)
}

func pickSender() email.Sender {
	// Use SMTP if configured; else fallback to log
	if os.Getenv("SMTP_HOST") != "" || os.Getenv("SMTP_PORT") != "" {
		return email.NewSMTPSender()
	}
	return email.LogSender{}
}

// helpers
func getenv(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func toMap(v interface{}) map[string]interface{} { if m, ok := v.(map[string]interface{}); ok { return m }; return map[string]interface{}{} }
func toString(v interface{}) string { if s, ok := v.(string); ok { return s }; return "" }
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
