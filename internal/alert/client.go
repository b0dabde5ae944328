// Package alert pushes new-message alerts to a Bark server.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Client is a thin wrapper over the Bark server HTTP API.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// NewClient creates a Bark API client.
func NewClient(rawURL, token string, timeout time.Duration) (*Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("base url must include scheme")
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	return &Client{
		baseURL: parsed,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// Ping checks Bark server health.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve("/ping"), nil)
	if err != nil {
		return err
	}
	var payload CommonResponse[map[string]any]
	return c.do(req, &payload)
}

// Push sends a plain alert to a device.
func (c *Client) Push(ctx context.Context, deviceKey string, p Payload) (*CommonResponse[struct{}], error) {
	return c.post(ctx, deviceKey, p)
}

// PushEncrypted sends an AES ciphertext to a device; the device holds the key.
func (c *Client) PushEncrypted(ctx context.Context, deviceKey, ciphertext, iv string) (*CommonResponse[struct{}], error) {
	return c.post(ctx, deviceKey, map[string]string{
		"ciphertext": ciphertext,
		"iv":         iv,
	})
}

func (c *Client) post(ctx context.Context, deviceKey string, body any) (*CommonResponse[struct{}], error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve("/"+url.PathEscape(deviceKey)), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var payload CommonResponse[struct{}]
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}
	if payload.Code != http.StatusOK {
		return &payload, fmt.Errorf("push rejected: %d %s", payload.Code, payload.Message)
	}
	return &payload, nil
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("API-TOKEN", c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) resolve(p string) string {
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, p)
	return u.String()
}

// BaseURL returns the configured Bark server URL without trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// Payload is the visible part of an alert.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Group string `json:"group,omitempty"`
	URL   string `json:"url,omitempty"`
}

// CommonResponse models Bark server standard response.
type CommonResponse[T any] struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Data      T      `json:"data"`
}
