package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	// maxItemResponseSize limits an item document
	maxItemResponseSize = 2 * 1024 * 1024
	// maxImageResponseSize limits a downloaded photo
	maxImageResponseSize = 20 * 1024 * 1024
	// DefaultTimeout bounds every request made by the client
	DefaultTimeout = 30 * time.Second
)

// Config holds the inventory service connection settings
type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
	Timeout   time.Duration
}

// Client is an ERPNext REST client
type Client struct {
	baseURL    *url.URL
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// NewClient creates a client for the service at cfg.BaseURL
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, ErrMissingBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("inventory: invalid base URL %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the service base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// GetItem fetches the Item document for itemCode
func (c *Client) GetItem(ctx context.Context, itemCode string) (*Item, error) {
	endpoint := c.BaseURL() + "/api/resource/Item/" + url.PathEscape(itemCode)

	body, err := c.get(ctx, endpoint, "application/json", maxItemResponseSize)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data *Item `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if strings.TrimSpace(resp.Data.ItemName) == "" {
		return nil, fmt.Errorf("%w: missing item_name", ErrMalformedResponse)
	}
	if resp.Data.ItemCode == "" {
		resp.Data.ItemCode = itemCode
	}
	return resp.Data, nil
}

// ResolveImageURL turns an item image reference into a downloadable URL.
// Site-relative paths are joined with the base URL, absolute http(s) URLs are
// kept, anything else cannot be resolved.
func (c *Client) ResolveImageURL(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	switch {
	case strings.HasPrefix(ref, "/"):
		return c.BaseURL() + ref, true
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref, true
	default:
		return "", false
	}
}

// FetchImage downloads and decodes the image at rawURL
func (c *Client) FetchImage(ctx context.Context, rawURL string) (image.Image, error) {
	body, err := c.get(ctx, rawURL, "image/*", maxImageResponseSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageFetch, err)
	}
	img, err := imaging.Decode(bytes.NewReader(body), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrImageFetch, err)
	}
	return img, nil
}

func (c *Client) get(ctx context.Context, rawURL, accept string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("inventory: failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if c.sameOrigin(req.URL) && c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("token %s:%s", c.apiKey, c.apiSecret))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("inventory request",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrItemNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, limit)
	}
	return body, nil
}

// sameOrigin reports whether u points at the inventory service
func (c *Client) sameOrigin(u *url.URL) bool {
	return strings.EqualFold(u.Scheme, c.baseURL.Scheme) && strings.EqualFold(u.Host, c.baseURL.Host)
}

var (
	_ ItemSource   = (*Client)(nil)
	_ ImageFetcher = (*Client)(nil)
)
