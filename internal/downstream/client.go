// Package downstream submits cleaned batches to the records service over HTTP.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/vetimport/internal/config"
	"github.com/JonMunkholm/vetimport/internal/core"
	"github.com/JonMunkholm/vetimport/internal/logging"
)

// maxErrorBody bounds how much of a failed response is kept for the error.
const maxErrorBody = 4 << 10

// Client posts one batch per import to base URL + table endpoint.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a Client from the downstream configuration.
// The base URL falls back to DOWNSTREAM_FALLBACK_URL when DOWNSTREAM_URL is unset.
func NewClient(cfg config.DownstreamConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL(), "/"),
		token:   cfg.Token,
		timeout: cfg.Timeout,
		client:  &http.Client{},
	}
}

// Submit implements core.Submitter. It makes exactly one attempt.
func (c *Client) Submit(ctx context.Context, def core.TableDefinition, req core.SubmitRequest) (core.SubmitResponse, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return core.SubmitResponse{}, fmt.Errorf("marshal batch: %w", err)
	}

	url := c.baseURL + def.Endpoint
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return core.SubmitResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := logging.WithFields(ctx, "endpoint", def.Endpoint, "batch_id", req.BatchID)
	start := time.Now()

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return core.SubmitResponse{}, fmt.Errorf("downstream request: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("downstream responded",
		"status", resp.StatusCode,
		"rows", len(req.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return core.SubmitResponse{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out submitReply
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty 2xx body: accepted without details.
			return core.SubmitResponse{Success: true}, nil
		}
		return core.SubmitResponse{}, fmt.Errorf("decode response: %w", err)
	}

	return out.response(), nil
}

// submitReply is the records service's answer as sent. A 2xx reply that
// leaves out success is an acceptance; only an explicit false rejects.
type submitReply struct {
	Success       *bool  `json:"success"`
	InsertedCount *int   `json:"insertedCount"`
	BatchID       string `json:"batchId"`
	Message       string `json:"message"`
}

func (r submitReply) response() core.SubmitResponse {
	return core.SubmitResponse{
		Success:       r.Success == nil || *r.Success,
		InsertedCount: r.InsertedCount,
		BatchID:       r.BatchID,
		Message:       r.Message,
	}
}

// StatusError is a non-2xx answer from the records service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("downstream returned status %d", e.Code)
	}
	return fmt.Sprintf("downstream returned status %d: %s", e.Code, e.Body)
}
