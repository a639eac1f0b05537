package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"seo-gateway/internal/gwerror"
	"seo-gateway/internal/model"
	"seo-gateway/internal/upstream"
)

// LLMService proxies chat-completion requests to OpenAI-compatible
// providers, injecting the provider's bearer key resolved from the
// requested model id.
type LLMService struct {
	client   *upstream.Client
	resolver *upstream.Resolver
	logger   *slog.Logger
}

// NewLLMService creates an LLMService.
func NewLLMService(c *upstream.Client, r *upstream.Resolver, logger *slog.Logger) *LLMService {
	return &LLMService{
		client:   c,
		resolver: r,
		logger:   logger.With("component", "llm_service"),
	}
}

// Complete issues a buffered chat-completion call. A non-2xx upstream
// status becomes an upstream_http error carrying that status and the
// upstream's error text.
func (s *LLMService) Complete(ctx context.Context, modelID string, payload []byte) (*model.ProxyResponse, error) {
	target, err := s.resolver.LLM(modelID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	resp, err := s.post(ctx, target, payload)
	if err != nil {
		return nil, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn("upstream provider error",
			"provider", target.Provider,
			"status", resp.StatusCode,
		)
		return nil, gwerror.Upstream(resp.StatusCode,
			"upstream provider error: "+truncateDetail(string(body)))
	}

	return &model.ProxyResponse{
		StatusCode:  resp.StatusCode,
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// OpenStream opens the upstream call for a streaming completion and
// returns the unread response; the caller relays it and must close the
// body. No total deadline is applied; stream lifetime is governed by the
// caller's context, so a disconnect cancels the upstream read.
func (s *LLMService) OpenStream(ctx context.Context, modelID string, payload []byte) (*upstream.Response, error) {
	target, err := s.resolver.LLM(modelID)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("opening llm stream", "provider", target.Provider, "model", modelID)

	resp, err := s.post(ctx, target, payload)
	if err != nil {
		return nil, transportError(err)
	}
	return resp, nil
}

func (s *LLMService) post(ctx context.Context, target upstream.Target, payload []byte) (*upstream.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint("chat/completions"), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	target.Auth.Apply(req)

	return s.client.Do(upstream.NameLLM, req)
}
