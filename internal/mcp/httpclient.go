package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/gripdose/internal/models"
	"github.com/meltforce/gripdose/internal/storage"
)

// HTTPClient implements DataSource by calling the GripDose REST API. Used
// for remote MCP mode where the binary runs locally (stdio) but history
// lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: reading %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s: status %d: %s", path, resp.StatusCode, body)
	}
	return body, nil
}

// QuerySessions fetches history in a date range. The userID argument is
// ignored: the remote server resolves identity from the connection.
func (c *HTTPClient) QuerySessions(ctx context.Context, start, end time.Time, _ int, side models.Side) ([]models.SessionRecord, error) {
	params := url.Values{
		"start": {start.Format(time.RFC3339)},
		"end":   {end.Format(time.RFC3339)},
	}
	if side != "" {
		params.Set("side", string(side))
	}

	body, err := c.get(ctx, "/api/v1/sessions", params)
	if err != nil {
		return nil, err
	}

	var sessions []models.SessionRecord
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decoding sessions: %w", err)
	}
	return sessions, nil
}

// QueryRecentSessions fetches the last year of one side's history and keeps
// the most recent n records, preserving chronological order.
func (c *HTTPClient) QueryRecentSessions(ctx context.Context, userID int, side models.Side, n int) ([]models.SessionRecord, error) {
	if n <= 0 {
		n = 50
	}
	end := time.Now()
	sessions, err := c.QuerySessions(ctx, end.AddDate(-1, 0, 0), end, userID, side)
	if err != nil {
		return nil, err
	}
	if len(sessions) > n {
		sessions = sessions[len(sessions)-n:]
	}
	return sessions, nil
}

// GetDosingSettings fetches the stored settings for one side.
func (c *HTTPClient) GetDosingSettings(ctx context.Context, _ int, side models.Side) (*models.DosingSettings, error) {
	body, err := c.get(ctx, "/api/v1/settings", url.Values{"side": {string(side)}})
	if err != nil {
		return nil, err
	}

	var settings models.DosingSettings
	if err := json.Unmarshal(body, &settings); err != nil {
		return nil, fmt.Errorf("httpclient: decoding settings: %w", err)
	}
	return &settings, nil
}

// GetDataStats fetches aggregate history statistics.
func (c *HTTPClient) GetDataStats(ctx context.Context, _ int) (*storage.DataStats, error) {
	body, err := c.get(ctx, "/api/v1/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats storage.DataStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decoding stats: %w", err)
	}
	return &stats, nil
}
