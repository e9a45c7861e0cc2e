package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	syncpkg "github.com/xelth-com/eckposgo/internal/sync"
)

// Client is the register's HTTP client for the cloud sync API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tenantID    string
	deviceToken string
}

// NewClient creates a sync API client for one tenant/device
func NewClient(baseURL, tenantID, deviceToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		tenantID:    tenantID,
		deviceToken: deviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Push sends one delta batch to the server
func (c *Client) Push(ctx context.Context, req *syncpkg.SyncPushRequest) (*syncpkg.SyncPushResponse, error) {
	var resp syncpkg.SyncPushResponse
	if err := c.doRequest(ctx, "POST", "/api/sync/push", req, &resp); err != nil {
		return nil, fmt.Errorf("push request failed: %w", err)
	}
	return &resp, nil
}

// Pull fetches one delta page from the server
func (c *Client) Pull(ctx context.Context, req *syncpkg.SyncPullRequest) (*syncpkg.SyncPullResponse, error) {
	var resp syncpkg.SyncPullResponse
	if err := c.doRequest(ctx, "POST", "/api/sync/pull", req, &resp); err != nil {
		return nil, fmt.Errorf("pull request failed: %w", err)
	}
	return &resp, nil
}

// Status probes server liveness and sync mode
func (c *Client) Status(ctx context.Context) (*syncpkg.SyncStatusResponse, error) {
	var resp syncpkg.SyncStatusResponse
	if err := c.doRequest(ctx, "GET", "/api/sync/status", nil, &resp); err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return &resp, nil
}

// doRequest performs one HTTP round trip with auth and tenant headers
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.deviceToken)
	req.Header.Set("X-Tenant-ID", c.tenantID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("server error: %s", resp.Status)
	}
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnprocessableEntity {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("request rejected: %s", apiErr.Error)
		}
		return fmt.Errorf("request rejected: %s", resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
