package authgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the admin API of the external auth identity provider.
// It is used for one thing: pushing verified display-name metadata after
// approval. All calls are best-effort from the caller's perspective.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Enabled reports whether the gateway is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// UpdateDisplayName writes display-name metadata onto the auth-provider
// identity referenced by authProviderID.
func (c *Client) UpdateDisplayName(ctx context.Context, authProviderID, displayName string) error {
	if !c.Enabled() {
		return fmt.Errorf("auth gateway not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"user_metadata": map[string]string{
			"display_name": displayName,
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/admin/users/%s", c.baseURL, authProviderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("auth gateway returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
