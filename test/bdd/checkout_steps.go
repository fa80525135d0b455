package bdd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

func (w *CheckoutWorld) registerCheckoutSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a customer requests an image for prompt "([^"]+)"$`, w.requestGeneratedImage)
	sc.Step(`^the response is a PNG containing "([^"]+)"$`, w.assertPNGResponse)
	sc.Step(`^a customer uploads a pick design$`, w.uploadPickDesign)
	sc.Step(`^the upload succeeds with an image id and url$`, w.assertUploadResponse)
	sc.Step(`^fetching the stored image returns it with a long-lived cache header$`, w.fetchStoredImage)
	sc.Step(`^fetching image "([^"]+)" returns not found$`, w.fetchMissingImage)
	sc.Step(`^a customer submits checkout details$`, w.submitCheckout)
	sc.Step(`^a customer submits checkout details without "([^"]+)"$`, w.submitCheckoutWithout)
	sc.Step(`^a payment intent is created for (\d+) cents in "([^"]+)"$`, w.assertIntentCreated)
	sc.Step(`^the response contains a client secret$`, w.assertClientSecret)
	sc.Step(`^the request is rejected as a bad request$`, w.assertBadRequest)
	sc.Step(`^the checkout details travel as intent metadata$`, w.assertIntentMetadata)
}

func checkoutPayload() map[string]string {
	return map[string]string{
		"name":    "Pat Smith",
		"address": "1 Guitar Way",
		"city":    "Nashville",
		"state":   "TN",
		"zip":     "37201",
		"country": "US",
		"imageId": "img-bdd-1",
	}
}

func (w *CheckoutWorld) requestGeneratedImage(prompt string) error {
	body, _ := json.Marshal(map[string]string{"prompt": prompt})
	resp, err := http.Post(w.server.URL+"/api/generate-image", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return w.capture(resp)
}

func (w *CheckoutWorld) assertPNGResponse(substr string) error {
	if w.httpStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.httpStatus, w.httpBody)
	}
	if ct := w.httpHeader.Get("Content-Type"); ct != "image/png" {
		return fmt.Errorf("expected image/png, got %q", ct)
	}
	if !strings.Contains(string(w.httpBody), substr) {
		return fmt.Errorf("expected body to contain %q, got %q", substr, w.httpBody)
	}
	return nil
}

func (w *CheckoutWorld) uploadPickDesign() error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "pick.png")
	if err != nil {
		return err
	}
	if _, err := part.Write([]byte("fake-png-bytes")); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := http.Post(w.server.URL+"/api/create-guitar-pick", mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	return w.capture(resp)
}

func (w *CheckoutWorld) assertUploadResponse() error {
	if w.httpStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.httpStatus, w.httpBody)
	}
	if ok, _ := w.httpJSON["success"].(bool); !ok {
		return fmt.Errorf("expected success=true, got %v", w.httpJSON)
	}
	id, _ := w.httpJSON["imageId"].(string)
	if id == "" {
		return fmt.Errorf("expected imageId in response, got %v", w.httpJSON)
	}
	url, _ := w.httpJSON["imageUrl"].(string)
	if url != "/api/get-image/"+id {
		return fmt.Errorf("expected imageUrl to reference %s, got %q", id, url)
	}
	w.imageID = id
	return nil
}

func (w *CheckoutWorld) fetchStoredImage() error {
	if w.imageID == "" {
		return fmt.Errorf("no image uploaded in this scenario")
	}
	resp, err := http.Get(w.server.URL + "/api/get-image/" + w.imageID)
	if err != nil {
		return err
	}
	if err := w.capture(resp); err != nil {
		return err
	}
	if w.httpStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.httpStatus, w.httpBody)
	}
	if string(w.httpBody) != "fake-png-bytes" {
		return fmt.Errorf("stored bytes did not round-trip, got %q", w.httpBody)
	}
	if cc := w.httpHeader.Get("Cache-Control"); !strings.Contains(cc, "max-age=31536000") {
		return fmt.Errorf("expected year-long cache header, got %q", cc)
	}
	return nil
}

func (w *CheckoutWorld) fetchMissingImage(id string) error {
	resp, err := http.Get(w.server.URL + "/api/get-image/" + id)
	if err != nil {
		return err
	}
	if err := w.capture(resp); err != nil {
		return err
	}
	if w.httpStatus != http.StatusNotFound {
		return fmt.Errorf("expected 404, got %d", w.httpStatus)
	}
	return nil
}

func (w *CheckoutWorld) submitCheckout() error {
	return w.postCheckout(checkoutPayload())
}

func (w *CheckoutWorld) submitCheckoutWithout(field string) error {
	payload := checkoutPayload()
	delete(payload, field)
	return w.postCheckout(payload)
}

func (w *CheckoutWorld) postCheckout(payload map[string]string) error {
	body, _ := json.Marshal(payload)
	resp, err := http.Post(w.server.URL+"/api/create-payment-intent", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	return w.capture(resp)
}

func (w *CheckoutWorld) assertIntentCreated(cents int, currency string) error {
	w.intents.mu.Lock()
	defer w.intents.mu.Unlock()
	if len(w.intents.amounts) != 1 {
		return fmt.Errorf("expected exactly one intent, got %d", len(w.intents.amounts))
	}
	if w.intents.amounts[0] != int64(cents) {
		return fmt.Errorf("expected amount %d, got %d", cents, w.intents.amounts[0])
	}
	if w.intents.currency != currency {
		return fmt.Errorf("expected currency %q, got %q", currency, w.intents.currency)
	}
	return nil
}

func (w *CheckoutWorld) assertClientSecret() error {
	if w.httpStatus != http.StatusOK {
		return fmt.Errorf("expected 200, got %d: %s", w.httpStatus, w.httpBody)
	}
	secret, _ := w.httpJSON["clientSecret"].(string)
	if secret == "" {
		return fmt.Errorf("expected clientSecret, got %v", w.httpJSON)
	}
	return nil
}

func (w *CheckoutWorld) assertBadRequest() error {
	if w.httpStatus != http.StatusBadRequest {
		return fmt.Errorf("expected 400, got %d: %s", w.httpStatus, w.httpBody)
	}
	return nil
}

func (w *CheckoutWorld) assertIntentMetadata() error {
	w.intents.mu.Lock()
	defer w.intents.mu.Unlock()
	want := checkoutPayload()
	for k, v := range want {
		if w.intents.metadata[k] != v {
			return fmt.Errorf("metadata[%s]: expected %q, got %q", k, v, w.intents.metadata[k])
		}
	}
	return nil
}
