package conversion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docfoxhq/DocFox/internal/pkg/env"
)

// DispatchRequest is the payload handed to the processing backend
type DispatchRequest struct {
	JobUUID      string          `json:"job_uuid"`
	Type         JobType         `json:"type"`
	OutputFormat string          `json:"output_format,omitempty"`
	Options      json.RawMessage `json:"options,omitempty"`
	InputKeys    []string        `json:"input_keys"`
	OutputKey    string          `json:"output_key"`
	CallbackURL  string          `json:"callback_url"`
}

// Result is the outcome a backend reports for a job
type Result struct {
	Success   bool   `json:"success"`
	ResultURL string `json:"result_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Backend dispatches jobs to the document processing engine. A synchronous
// backend returns the result directly; an asynchronous one returns (nil, nil)
// and delivers the result later through the callback endpoint.
type Backend interface {
	Dispatch(ctx context.Context, req DispatchRequest) (*Result, error)
}

// HTTPBackend talks to the processing engine over HTTP. A 200 response
// carries the result inline; a 202 means the engine accepted the job and will
// call back when done.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend creates a backend from PROCESSING_ENGINE_URL
func NewHTTPBackend() *HTTPBackend {
	return &HTTPBackend{
		baseURL: env.GetEnv("PROCESSING_ENGINE_URL", "http://localhost:9090"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (b *HTTPBackend) Dispatch(ctx context.Context, req DispatchRequest) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode dispatch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/jobs", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach processing engine: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("failed to decode engine response: %w", err)
		}
		return &result, nil
	case http.StatusAccepted:
		// Result arrives via callback
		return nil, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("processing engine returned %d: %s", resp.StatusCode, string(body))
	}
}
