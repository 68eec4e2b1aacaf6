package syncclient

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

	"github.com/marcus/taskpad/internal/sync"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnavailable = errors.New("server unavailable")
	ErrBadRequest  = errors.New("bad request")
)

const (
	batchTimeout  = 30 * time.Second
	healthTimeout = 5 * time.Second
)

// Client is the HTTP transport for the sync server. It is stateless; semantic
// outcomes ride inside the batch response, not in HTTP status codes.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a sync client for the given base URL (e.g. http://host:3000/api).
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: batchTimeout},
	}
}

// Health probes GET /sync/health with a 5-second deadline. Any 2xx response
// counts as reachable.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/sync/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: health returned HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// PostBatch transmits one batch to POST /sync/batch with a 30-second deadline.
// A non-nil error is a transport or protocol failure for the whole batch.
func (c *Client) PostBatch(ctx context.Context, batch *sync.BatchRequest) (*sync.BatchResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/sync/batch", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			if resp.StatusCode == http.StatusBadRequest {
				return nil, fmt.Errorf("%w: %s", ErrBadRequest, apiErr.Message)
			}
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var batchResp sync.BatchResponse
	if err := json.Unmarshal(body, &batchResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &batchResp, nil
}
