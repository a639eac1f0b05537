// Package service implements the gateway's forwarding logic: the generic
// allowlist proxy, the DataForSEO proxy and the LLM proxy.
package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"seo-gateway/internal/allowlist"
	"seo-gateway/internal/config"
	"seo-gateway/internal/gwerror"
	"seo-gateway/internal/metrics"
	"seo-gateway/internal/model"
	"seo-gateway/internal/upstream"
)

// allowedMethods are the HTTP methods the generic proxy will forward.
var allowedMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true,
	http.MethodHead: true, http.MethodOptions: true,
}

// ForwardService is the generic whitelist proxy: it forwards caller-described
// requests to third-party APIs, restricted by the domain allowlist. It never
// injects credentials.
type ForwardService struct {
	client  *upstream.Client
	allow   *allowlist.Allowlist
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

// NewForwardService creates a ForwardService. The allowlist is the built-in
// domain set extended by proxy.extra_domains. Metrics may be nil.
func NewForwardService(c *upstream.Client, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ForwardService {
	return &ForwardService{
		client:  c,
		allow:   allowlist.New(cfg.Proxy.ExtraDomains...),
		logger:  logger.With("component", "forward_service"),
		metrics: m,
		timeout: time.Duration(cfg.Proxy.TimeoutSeconds) * time.Second,
	}
}

// Forward validates the target, sanitizes headers, decodes the body and
// issues the request. A denied domain never results in an outbound call.
// The response is fully buffered; only the content type survives from the
// upstream headers, with JSON normalized to application/json and anything
// undeclared defaulting to application/octet-stream.
func (s *ForwardService) Forward(ctx context.Context, pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	method := strings.ToUpper(pr.Method)
	if method == "" {
		method = http.MethodPost
	}
	if !allowedMethods[method] {
		return nil, gwerror.Newf(gwerror.KindValidation, "unsupported method %q", pr.Method)
	}

	u, err := url.Parse(pr.URL)
	if err != nil || !u.IsAbs() || u.Hostname() == "" {
		return nil, gwerror.New(gwerror.KindValidation, "target url must be an absolute URL with a host")
	}
	if u.User != nil {
		// Fail closed: userinfo can smuggle an allowed-looking authority.
		return nil, gwerror.New(gwerror.KindAuthorization, "credentials embedded in target url are not allowed")
	}

	host := strings.ToLower(u.Hostname())
	if !s.allow.Allows(host) {
		s.logger.Warn("blocked proxy request to unauthorized domain", "host", host)
		if s.metrics != nil {
			s.metrics.ProxyDenied.Inc()
		}
		return nil, gwerror.New(gwerror.KindAuthorization, "domain not allowed in proxy")
	}

	header := sanitizeHeaders(pr.Headers)

	var body io.Reader
	switch {
	case pr.Encoding == model.EncodingBase64 && pr.Payload != "":
		raw, err := base64.StdEncoding.DecodeString(pr.Payload)
		if err != nil {
			return nil, gwerror.New(gwerror.KindValidation, "payload is not valid base64")
		}
		body = bytes.NewReader(raw)
	case len(pr.Body) > 0:
		body = bytes.NewReader(pr.Body)
		if header.Get("Content-Type") == "" {
			header.Set("Content-Type", "application/json")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.DoStream(ctx, upstream.NameProxy, method, pr.URL, header, body)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	ct := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(ct, "application/json"):
		ct = "application/json"
	case ct == "":
		ct = "application/octet-stream"
	}

	return &model.ProxyResponse{
		StatusCode:  resp.StatusCode,
		ContentType: ct,
		Body:        data,
	}, nil
}
