package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"seo-gateway/internal/config"
	"seo-gateway/internal/gwerror"
	"seo-gateway/internal/service"
	"seo-gateway/internal/upstream"
)

func newLLMHandler(cfg *config.Config) *LLMHandler {
	logger := testLogger()
	client := upstream.NewClient(cfg, logger, nil)
	return NewLLMHandler(service.NewLLMService(client, upstream.NewResolver(cfg), logger), logger)
}

func llmConfig(baseURL, key string) *config.Config {
	cfg := &config.Config{}
	cfg.LLM.OpenAI.BaseURL = baseURL
	cfg.LLM.OpenAI.APIKey = key
	cfg.SetDefaults()
	return cfg
}

func TestLLMHandler_BufferedCompletion(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer upstreamSrv.Close()

	h := newLLMHandler(llmConfig(upstreamSrv.URL, "sk-test"))

	e := echo.New()
	rec, c := postJSON(e, "/api/llm/openai-compatible", `{"model":"gpt-4o","messages":[]}`)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"content":"hi"`) {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestLLMHandler_UpstreamErrorStatusSurfaced(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer upstreamSrv.Close()

	h := newLLMHandler(llmConfig(upstreamSrv.URL, "sk-test"))

	e := echo.New()
	rec, c := postJSON(e, "/api/llm/openai-compatible", `{"model":"gpt-4o"}`)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want upstream's 401", rec.Code)
	}

	var body gwerror.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Error.Kind != gwerror.KindUpstreamHTTP {
		t.Errorf("kind = %q, want %q", body.Error.Kind, gwerror.KindUpstreamHTTP)
	}
	if strings.Contains(body.Error.Detail, "sk-test") {
		t.Errorf("detail leaks API key: %q", body.Error.Detail)
	}
}

func TestLLMHandler_ModelRequired(t *testing.T) {
	h := newLLMHandler(llmConfig("https://api.openai.com/v1", "sk-test"))

	e := echo.New()
	rec, c := postJSON(e, "/api/llm/openai-compatible", `{"messages":[]}`)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLLMHandler_MissingKeyIsConfigurationError(t *testing.T) {
	h := newLLMHandler(llmConfig("https://api.openai.com/v1", ""))

	e := echo.New()
	rec, c := postJSON(e, "/api/llm/openai-compatible", `{"model":"gpt-4o"}`)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}

	var body gwerror.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Error.Kind != gwerror.KindConfiguration {
		t.Errorf("kind = %q, want %q", body.Error.Kind, gwerror.KindConfiguration)
	}
}

func TestLLMHandler_StreamRelaysChunks(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"data: a\n\n", "data: b\n\n", "data: [DONE]\n\n"} {
			_, _ = w.Write([]byte(chunk))
			flusher.Flush()
		}
	}))
	defer upstreamSrv.Close()

	h := newLLMHandler(llmConfig(upstreamSrv.URL, "sk-test"))

	e := echo.New()
	rec, c := postJSON(e, "/api/llm/openai-compatible", `{"model":"gpt-4o","stream":true}`)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
	want := "data: a\n\ndata: b\n\ndata: [DONE]\n\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("stream body = %q, want %q", got, want)
	}
}

func TestLLMHandler_StreamUpstreamErrorBecomesTerminalEvent(t *testing.T) {
	upstreamSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("provider down"))
	}))
	defer upstreamSrv.Close()

	h := newLLMHandler(llmConfig(upstreamSrv.URL, "sk-test"))

	e := echo.New()
	rec, c := postJSON(e, "/api/llm/openai-compatible", `{"model":"gpt-4o","stream":true}`)

	if err := h.Handle(c); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	// The SSE response itself is 200; the failure arrives in-band as a
	// single terminal event.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	got := rec.Body.String()
	if !strings.HasPrefix(got, "data: ") || !strings.HasSuffix(got, "\n\n") {
		t.Fatalf("terminal event not SSE-framed: %q", got)
	}
	var event map[string]string
	if err := json.Unmarshal([]byte(strings.TrimSuffix(strings.TrimPrefix(got, "data: "), "\n\n")), &event); err != nil {
		t.Fatalf("terminal event payload not JSON: %v", err)
	}
	if !strings.Contains(event["error"], "provider down") {
		t.Errorf("error payload = %q, want upstream body", event["error"])
	}
}
