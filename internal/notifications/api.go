package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"collab-realtime/internal/credentials"
	"collab-realtime/internal/models"
)

// APIClient talks to the marketplace's notification REST endpoints. The
// bearer token is read from the credential store per request, never
// cached, so externally refreshed tokens take effect immediately.
type APIClient struct {
	baseURL string
	creds   credentials.Store
	http    *http.Client
	perPage int
}

func NewAPIClient(baseURL string, creds credentials.Store, timeout time.Duration, perPage int) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		creds:   creds,
		http:    &http.Client{Timeout: timeout},
		perPage: perPage,
	}
}

// Fetch retrieves the most recent page of notifications along with the
// server's authoritative unread count.
func (c *APIClient) Fetch(ctx context.Context) (*models.NotificationPage, error) {
	endpoint := c.baseURL + "/notifications?per_page=" + strconv.Itoa(c.perPage)
	req, err := c.newRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch notifications: unexpected status %d", resp.StatusCode)
	}

	var page models.NotificationPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode notifications response: %w", err)
	}
	return &page, nil
}

// MarkRead persists a single notification's read flag.
func (c *APIClient) MarkRead(ctx context.Context, id string) error {
	endpoint := c.baseURL + "/notifications/" + url.PathEscape(id) + "/read"
	return c.post(ctx, endpoint)
}

// MarkAllRead persists the read flag for every notification.
func (c *APIClient) MarkAllRead(ctx context.Context) error {
	return c.post(ctx, c.baseURL+"/notifications/mark-all-read")
}

func (c *APIClient) post(ctx context.Context, endpoint string) error {
	req, err := c.newRequest(ctx, http.MethodPost, endpoint)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request to %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	return nil
}

func (c *APIClient) newRequest(ctx context.Context, method, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	creds, err := c.creds.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}
