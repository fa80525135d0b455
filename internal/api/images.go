package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/modster/pickforge/internal/ids"
	"github.com/modster/pickforge/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// Stored images are immutable once written, so clients may cache for a year.
	imageCacheControl = "public, max-age=31536000"
	maxUploadBytes    = 10 << 20
)

func blobKey(imageID string) string {
	return fmt.Sprintf("guitar-picks/%s.png", imageID)
}

func imageURL(imageID string) string {
	return "/api/get-image/" + imageID
}

// RegisterImageRoutes mounts image generation, intake and retrieval endpoints.
func RegisterImageRoutes(mux *http.ServeMux, gen ImageGenerator, blobs BlobStore, idgen ids.Generator) {
	mux.Handle("/api/generate-image", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleGenerateImage(gen, w, r)
	}), "generate-image"))

	mux.Handle("/api/create-guitar-pick", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCreateGuitarPick(blobs, idgen, w, r)
	}), "create-guitar-pick"))

	mux.Handle("/api/get-image/", otelhttp.NewHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleGetImage(blobs, w, r)
	}), "get-image"))
}

// handleGenerateImage invokes the generation adapter synchronously and streams
// the produced bytes back unmodified. No retry on adapter failure.
func handleGenerateImage(gen ImageGenerator, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		badRequest(w, "Prompt is required")
		return
	}

	img, err := gen.Generate(r.Context(), req.Prompt)
	if err != nil {
		log.Printf("[Images] Error generating image: %v", err)
		upstreamError(w, "Failed to generate image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(img)
}

// handleCreateGuitarPick stores an uploaded image under a fresh random id and
// returns the retrieval handle.
func handleCreateGuitarPick(blobs BlobStore, idgen ids.Generator, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "Image is required")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		badRequest(w, "Image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "Image is required")
		return
	}

	imageID := idgen.NewID()
	if err := blobs.Put(r.Context(), blobKey(imageID), "image/png", data); err != nil {
		log.Printf("[Images] Error creating guitar pick: %v", err)
		upstreamError(w, "Failed to create guitar pick")
		return
	}

	writeJSON(w, map[string]any{
		"success":  true,
		"imageId":  imageID,
		"imageUrl": imageURL(imageID),
	})
}

// handleGetImage resolves an image id to stored bytes. Ids are never reused,
// so hits are served with a long-lived cache directive.
func handleGetImage(blobs BlobStore, w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	imageID := strings.TrimPrefix(r.URL.Path, "/api/get-image/")
	if imageID == "" {
		badRequest(w, "Image ID is required")
		return
	}

	data, contentType, err := blobs.Get(r.Context(), blobKey(imageID))
	if errors.Is(err, storage.ErrNotFound) {
		notFound(w, "Image not found")
		return
	}
	if err != nil {
		log.Printf("[Images] Error retrieving image %s: %v", imageID, err)
		upstreamError(w, "Failed to retrieve image")
		return
	}

	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", imageCacheControl)
	_, _ = w.Write(data)
}
