// Package imagegen calls the Cloudflare Workers AI REST API to synthesize an
// image from a text prompt. The model is treated as an opaque prompt→bytes
// function; the caller owns retries (there are none).
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultModel = "@cf/stabilityai/stable-diffusion-xl-base-1.0"

type Config struct {
	BaseURL   string // defaults to the public Cloudflare API endpoint
	AccountID string
	APIToken  string
	Model     string
}

type WorkersAI struct {
	cfg    Config
	client *http.Client
}

func NewWorkersAI(cfg Config) *WorkersAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cloudflare.com/client/v4"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &WorkersAI{
		cfg:    cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Generate runs the model with the prompt and returns the raw PNG bytes.
func (g *WorkersAI) Generate(ctx context.Context, prompt string) ([]byte, error) {
	payload, _ := json.Marshal(map[string]any{"prompt": prompt})
	url := fmt.Sprintf("%s/accounts/%s/ai/run/%s",
		strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.AccountID, g.cfg.Model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build Workers AI request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call Workers AI: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("workers AI request failed: status=%d body=%s",
			resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	img, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generated image: %w", err)
	}
	return img, nil
}
