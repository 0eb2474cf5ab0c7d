// Package http provides the HTTP transport used to fetch workshop pages.
package http

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/PentesterFlow/workshopgraph/internal/errors"
)

// maxBodySize caps how much of a page is read.
const maxBodySize = 5 * 1024 * 1024

// Client fetches workshop pages. It is safe for concurrent use.
type Client struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	retrier   *errors.Retrier
}

// ClientConfig holds configuration for the HTTP client.
type ClientConfig struct {
	Timeout             time.Duration     `json:"timeout" yaml:"timeout"`
	MaxIdleConns        int               `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int               `json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	UserAgent           string            `json:"user_agent" yaml:"user_agent"`
	Headers             map[string]string `json:"headers" yaml:"headers"`
	MaxRetries          int               `json:"max_retries" yaml:"max_retries"`
	RetryDelay          time.Duration     `json:"retry_delay" yaml:"retry_delay"`
	MaxRetryDelay       time.Duration     `json:"max_retry_delay" yaml:"max_retry_delay"`
	SkipTLSVerify       bool              `json:"skip_tls_verify" yaml:"skip_tls_verify"`
}

// DefaultClientConfig returns defaults tuned for steamcommunity.com.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Timeout:             15 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		MaxRetries:          2,
	}
}

// NewClient creates a new HTTP client.
func NewClient(config ClientConfig) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.SkipTLSVerify,
		},
	}

	retryConfig := errors.DefaultRetryConfig()
	if config.MaxRetries >= 0 {
		retryConfig.MaxRetries = config.MaxRetries
	}
	if config.RetryDelay > 0 {
		retryConfig.InitialDelay = config.RetryDelay
	}
	if config.MaxRetryDelay > 0 {
		retryConfig.MaxDelay = config.MaxRetryDelay
	}

	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		userAgent: config.UserAgent,
		headers:   config.Headers,
		retrier:   errors.NewRetrier(retryConfig),
	}
}

// Page is a fetched workshop page.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Status     string
	Body       []byte
	Duration   time.Duration
}

// Get performs a single GET. Non-2xx responses return the page together
// with a FetchFailed error.
func (c *Client) Get(ctx context.Context, targetURL string) (*Page, error) {
	start := time.Now()
	page := &Page{URL: targetURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return page, errors.NewFetchError(targetURL, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return page, errors.Categorize(err, targetURL)
	}
	defer resp.Body.Close()

	page.StatusCode = resp.StatusCode
	page.Status = resp.Status
	page.FinalURL = resp.Request.URL.String()

	if httpErr := errors.CategorizeHTTPStatus(resp.StatusCode, resp.Status, targetURL); httpErr != nil {
		page.Duration = time.Since(start)
		return page, httpErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return page, errors.NewFetchError(targetURL, err)
	}
	page.Body = body
	page.Duration = time.Since(start)
	return page, nil
}

// Fetch performs a GET, retrying transient failures. On failure the page
// from the last attempt is returned alongside the error.
func (c *Client) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	page, err := errors.Retry(ctx, c.retrier, targetURL, func(ctx context.Context) (*Page, error) {
		return c.Get(ctx, targetURL)
	})
	if page == nil {
		page = &Page{URL: targetURL}
	}
	return page, err
}

// Close closes idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
