// Package portal holds the portal-side services the dashboard consumes: the restricted
// words cache, debounced remote fetches and the HTTP client behind them.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// HTTPConfig configures the portal HTTP client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to the portal backend over REST.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client for the portal backend.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("portal: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

type restrictedWordsResponse struct {
	Words []string `json:"words"`
}

// FetchRestrictedWords implements WordsSource via the restricted words endpoint.
func (c *HTTPClient) FetchRestrictedWords(ctx context.Context) ([]string, error) {
	var resp restrictedWordsResponse
	if err := c.do(ctx, http.MethodGet, "/restricted-words", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Words, nil
}

type snapshotRequest struct {
	Presets           []dashboard.Preset `json:"presets"`
	ActivePresetIndex int                `json:"activePresetIndex"`
	CycleInterval     int                `json:"cycleInterval"`
	IsCycling         bool               `json:"isCycling"`
}

// PushSnapshot implements SnapshotPusher by uploading a user's committed presets.
func (c *HTTPClient) PushSnapshot(ctx context.Context, userID string, snap dashboard.Snapshot) error {
	req := snapshotRequest{
		Presets:           snap.Presets,
		ActivePresetIndex: snap.ActivePresetIndex,
		CycleInterval:     snap.CycleInterval,
		IsCycling:         snap.IsCycling,
	}
	return c.do(ctx, http.MethodPut, "/dashboards/"+url.PathEscape(userID), req, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("portal: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("portal: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("portal: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("portal: remote error %d: %s", resp.StatusCode, buf.String())
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("portal: decode response: %w", err)
	}
	return nil
}
