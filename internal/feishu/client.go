package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	tenantAccessTokenPath = "/open-apis/auth/v3/tenant_access_token/internal"
	messageReplyPath      = "/open-apis/im/v1/messages/%s/reply"
)

// Client calls the Feishu open platform API.
type Client struct {
	baseURL   string
	appID     string
	appSecret string
	client    *http.Client
}

// NewClient creates a Feishu client. baseURL defaults to the public
// endpoint; tests point it at a local server.
func NewClient(baseURL, appID, appSecret string) *Client {
	if baseURL == "" {
		baseURL = "https://open.feishu.cn"
	}
	return &Client{
		baseURL:   baseURL,
		appID:     appID,
		appSecret: appSecret,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
}

// TenantAccessToken fetches a fresh delivery credential for the app.
func (c *Client) TenantAccessToken(ctx context.Context) (string, error) {
	body, err := json.Marshal(map[string]string{
		"app_id":     c.appID,
		"app_secret": c.appSecret,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tenantAccessTokenPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling auth endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth endpoint returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decoding auth response: %w", err)
	}
	if token.Code != 0 {
		return "", fmt.Errorf("auth failed: code %d: %s", token.Code, token.Msg)
	}
	if token.TenantAccessToken == "" {
		return "", fmt.Errorf("auth response has no tenant_access_token")
	}
	return token.TenantAccessToken, nil
}

type replyResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// Reply posts a text answer addressed to the originating message.
func (c *Client) Reply(ctx context.Context, token, messageID, text string) error {
	content, err := json.Marshal(messageContent{Text: text})
	if err != nil {
		return err
	}
	body, err := json.Marshal(map[string]string{
		"msg_type": "text",
		"content":  string(content),
	})
	if err != nil {
		return err
	}

	url := c.baseURL + fmt.Sprintf(messageReplyPath, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling reply endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reply endpoint returned status %d", resp.StatusCode)
	}

	var reply replyResponse
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return fmt.Errorf("decoding reply response: %w", err)
	}
	if reply.Code != 0 {
		return fmt.Errorf("reply failed: code %d: %s", reply.Code, reply.Msg)
	}
	return nil
}
