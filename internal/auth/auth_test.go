package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"seo-gateway/internal/config"
	"seo-gateway/internal/gwerror"
)

func clientFor(url string) *Client {
	cfg := &config.Config{}
	cfg.Auth.BaseURL = url
	cfg.Auth.ServiceKey = "service-key"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(cfg, logger)
}

func TestValidate_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Errorf("path = %q, want /auth/v1/user", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "service-key" {
			t.Errorf("apikey = %q, want service-key", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer caller-token" {
			t.Errorf("Authorization = %q, want caller bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-42","email":"a@b.c"}`))
	}))
	defer srv.Close()

	id, err := clientFor(srv.URL).Validate(context.Background(), "caller-token")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if id.ID != "user-42" {
		t.Errorf("ID = %q, want user-42", id.ID)
	}
	if id.Email != "a@b.c" {
		t.Errorf("Email = %q, want a@b.c", id.Email)
	}
}

func TestValidate_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := clientFor(srv.URL).Validate(context.Background(), "bad-token")
	if err == nil {
		t.Fatal("Validate() succeeded for rejected token")
	}

	status, body := gwerror.ResponseFor(err)
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
	if body.Error.Kind != gwerror.KindAuthorization {
		t.Errorf("kind = %q, want %q", body.Error.Kind, gwerror.KindAuthorization)
	}
}

func TestValidate_EmptyIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := clientFor(srv.URL).Validate(context.Background(), "t"); err == nil {
		t.Fatal("Validate() accepted a response without a user id")
	}
}

func TestValidate_ProviderUnreachable(t *testing.T) {
	_, err := clientFor("http://127.0.0.1:1").Validate(context.Background(), "t")
	if err == nil {
		t.Fatal("Validate() succeeded with unreachable provider")
	}
	// Fail closed: unreachable provider means 401, not 5xx.
	if status, _ := gwerror.ResponseFor(err); status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
}

func TestValidate_NotConfigured(t *testing.T) {
	cfg := &config.Config{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewClient(cfg, logger)

	_, err := c.Validate(context.Background(), "t")
	if err == nil {
		t.Fatal("Validate() succeeded without configuration")
	}
	if gwerror.KindOf(err) != gwerror.KindConfiguration {
		t.Errorf("kind = %q, want %q", gwerror.KindOf(err), gwerror.KindConfiguration)
	}
}
