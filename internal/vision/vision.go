// Package vision talks to the food recognition model. The model runs as a
// separate inference service; this package only ships an image over and
// decodes the labels that come back.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Label is one detection returned by the model.
type Label struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Detector recognizes food items in an image.
type Detector interface {
	Detect(ctx context.Context, image []byte, filename string) ([]Label, error)
}

// New returns the HTTP detector when an endpoint is configured and the
// static fallback otherwise, so development setups work without a model
// server running.
func New(endpoint string) Detector {
	if endpoint == "" {
		return StaticDetector{}
	}
	return NewHTTPDetector(endpoint)
}

// HTTPDetector posts the image to an inference endpoint as multipart form
// data and expects a JSON array of labels back.
type HTTPDetector struct {
	client   *http.Client
	endpoint string
}

func NewHTTPDetector(endpoint string) *HTTPDetector {
	return &HTTPDetector{
		client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: endpoint,
	}
}

func (d *HTTPDetector) Detect(ctx context.Context, image []byte, filename string) ([]Label, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build vision request: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("build vision request: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("build vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("build vision request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read vision response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision api error (%d): %s", resp.StatusCode, preview(body))
	}

	// Bare array is the primary format; some deployments wrap it.
	var labels []Label
	if err := json.Unmarshal(body, &labels); err == nil {
		return labels, nil
	}
	var wrapped struct {
		Labels []Label `json:"labels"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode vision response: %w", err)
	}
	return wrapped.Labels, nil
}

func preview(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// StaticDetector returns a fixed guess list. It stands in for the model in
// development and tests when no endpoint is configured.
type StaticDetector struct{}

func (StaticDetector) Detect(context.Context, []byte, string) ([]Label, error) {
	return []Label{
		{Label: "ayam", Confidence: 0.82},
		{Label: "kentang", Confidence: 0.61},
	}, nil
}
