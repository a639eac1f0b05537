package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"seo-gateway/internal/model"
	"seo-gateway/internal/upstream"
)

// SearchService proxies to the DataForSEO API with server-held Basic-Auth
// credentials.
type SearchService struct {
	client   *upstream.Client
	resolver *upstream.Resolver
	logger   *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(c *upstream.Client, r *upstream.Resolver, logger *slog.Logger) *SearchService {
	return &SearchService{
		client:   c,
		resolver: r,
		logger:   logger.With("component", "search_service"),
	}
}

// Forward POSTs payload to the configured base URL joined with
// endpointPath. The upstream status and body are passed through verbatim,
// including logical-error bodies DataForSEO returns with HTTP 200; only
// transport failures become gateway errors.
func (s *SearchService) Forward(ctx context.Context, endpointPath string, payload []byte) (*model.ProxyResponse, error) {
	target, err := s.resolver.Search()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint(endpointPath), bytes.NewReader(payload))
	if err != nil {
		return nil, transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	target.Auth.Apply(req)

	s.logger.Debug("forwarding search request", "endpoint", endpointPath)

	resp, err := s.client.Do(upstream.NameDataForSEO, req)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}

	return &model.ProxyResponse{
		StatusCode:  resp.StatusCode,
		ContentType: ct,
		Body:        body,
	}, nil
}
