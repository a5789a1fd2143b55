package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ingestResult mirrors ingest.Result without importing the ingest package
// (which would pull in pgx and other server-side dependencies).
type ingestResult struct {
	SessionsReceived int      `json:"sessions_received"`
	SessionsInserted int      `json:"sessions_inserted"`
	SessionsSkipped  int      `json:"sessions_skipped"`
	SessionsRejected int      `json:"sessions_rejected"`
	RejectedReasons  []string `json:"rejected_reasons,omitempty"`
	Message          string   `json:"message"`
}

// Client sends export files to the GripDose server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the GripDose server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SendCSV POSTs raw CSV bytes to the server's CSV ingest endpoint.
// Retries up to 3 times with exponential backoff on failure.
func (c *Client) SendCSV(data []byte) (*ingestResult, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			time.Sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		req, err := http.NewRequest(
			http.MethodPost,
			c.serverURL+"/api/v1/ingest/csv",
			bytes.NewReader(data),
		)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "text/csv")
		if c.apiKey != "" {
			req.Header.Set("X-API-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			var result ingestResult
			if err := json.Unmarshal(body, &result); err != nil {
				return nil, fmt.Errorf("decoding ingest response: %w", err)
			}
			return &result, nil
		}
		lastErr = fmt.Errorf("ingest failed (status %d): %s", resp.StatusCode, body)
	}

	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}
