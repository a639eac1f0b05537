// Package upstream provides the shared outbound HTTP client and the
// mapping from logical targets (provider name, model id) to real upstream
// endpoints with server-held credentials.
package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"seo-gateway/internal/config"
	"seo-gateway/internal/metrics"
)

// Client sends requests to upstream APIs. One connection-pooled client is
// shared by all proxies for the process lifetime; per-call deadlines come
// from the request context so long-lived streams are not cut off by a
// global timeout.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a Client with connection pooling and a connect timeout.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   time.Duration(cfg.Upstream.ConnectTimeoutSeconds) * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		httpClient: &http.Client{Transport: transport},
		logger:     logger.With("component", "upstream_client"),
		metrics:    m,
	}
}

// Response is an upstream response whose body has not been read yet.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Do executes an HTTP request against the named upstream and returns the
// raw response. The caller is responsible for closing the response body.
func (c *Client) Do(name string, req *http.Request) (*Response, error) {
	c.logger.Debug("upstream request",
		"upstream", name,
		"method", req.Method,
		"host", req.URL.Host,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via Response
	duration := time.Since(start).Seconds()

	method := metrics.NormalizeMethod(req.Method)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(name, method).Observe(duration)
		}
		return nil, fmt.Errorf("upstream request: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(name, method).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(name, method, status).Inc()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// DoStream builds and executes a request whose body may be relayed
// incrementally. The caller is responsible for closing the returned body.
// The provided context controls the lifetime of the upstream request:
// when it is canceled (e.g. the caller disconnects), the upstream read is
// canceled too.
func (c *Client) DoStream(ctx context.Context, name, method, url string, header http.Header, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	if header != nil {
		req.Header = header
	}

	return c.Do(name, req)
}
