// Package sentiment labels feedback comments with a hosted Indonesian
// sentiment model served over gradio's predict API. Labels are decoration
// on the admin feedback list; callers treat a failure as "no label".
package sentiment

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

// Classifier labels a piece of feedback text (e.g. "Positif", "Negatif").
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// New returns the HTTP classifier when an endpoint is configured and the
// disabled one otherwise, so feedback works without the model reachable.
func New(endpoint string) Classifier {
	if endpoint == "" {
		return Disabled{}
	}
	return NewHTTPClassifier(endpoint)
}

// HTTPClassifier posts text to a gradio predict endpoint. The request and
// response both wrap their payload in a "data" array.
type HTTPClassifier struct {
	client   *http.Client
	endpoint string
}

func NewHTTPClassifier(endpoint string) *HTTPClassifier {
	return &HTTPClassifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	payload, err := json.Marshal(map[string]any{"data": []string{text}})
	if err != nil {
		return "", fmt.Errorf("build sentiment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build sentiment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sentiment request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read sentiment response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sentiment api error (%d)", resp.StatusCode)
	}

	var decoded struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode sentiment response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return "", fmt.Errorf("decode sentiment response: empty data")
	}

	// The model returns either a bare label string or a {"label": ...}
	// object depending on the deployment.
	var label string
	if err := json.Unmarshal(decoded.Data[0], &label); err == nil {
		return label, nil
	}
	var wrapped struct {
		Label string `json:"label"`
	}
	if err := json.Unmarshal(decoded.Data[0], &wrapped); err != nil || wrapped.Label == "" {
		return "", fmt.Errorf("decode sentiment response: unrecognized payload")
	}
	return wrapped.Label, nil
}

// Disabled skips classification; feedback is stored without a label.
type Disabled struct{}

func (Disabled) Classify(context.Context, string) (string, error) {
	return "", nil
}
