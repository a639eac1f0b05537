package upstream

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"seo-gateway/internal/config"
	"seo-gateway/internal/gwerror"
)

func resolverWithKeys(openai, gemini, deepseek string) *Resolver {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.LLM.OpenAI.APIKey = openai
	cfg.LLM.Gemini.APIKey = gemini
	cfg.LLM.DeepSeek.APIKey = deepseek
	return NewResolver(cfg)
}

func TestLLM_RuleOrdering(t *testing.T) {
	r := resolverWithKeys("sk-openai", "sk-gemini", "sk-deepseek")

	tests := []struct {
		name         string
		model        string
		wantProvider string
		wantToken    string
	}{
		{"gemini model", "gemini-2.0-flash", "gemini", "sk-gemini"},
		{"deepseek model", "deepseek-chat", "deepseek", "sk-deepseek"},
		{"unknown model falls back", "gpt-4o-mini", "openai", "sk-openai"},
		// Gemini is checked before DeepSeek; a model matching both must
		// resolve to Gemini.
		{"ambiguous model first rule wins", "gemini-deepseek-hybrid", "gemini", "sk-gemini"},
		{"deepseek containing gemini later", "deepseek-gemini", "gemini", "sk-gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := r.LLM(tt.model)
			if err != nil {
				t.Fatalf("LLM(%q) error = %v", tt.model, err)
			}
			if target.Provider != tt.wantProvider {
				t.Errorf("provider = %q, want %q", target.Provider, tt.wantProvider)
			}
			bearer, ok := target.Auth.(BearerAuth)
			if !ok {
				t.Fatalf("auth = %T, want BearerAuth", target.Auth)
			}
			if bearer.Token != tt.wantToken {
				t.Errorf("token = %q, want %q", bearer.Token, tt.wantToken)
			}
		})
	}
}

func TestLLM_MissingKey(t *testing.T) {
	r := resolverWithKeys("sk-openai", "", "sk-deepseek")

	_, err := r.LLM("gemini-2.0-flash")
	if err == nil {
		t.Fatal("LLM() succeeded with unconfigured Gemini key")
	}

	var gerr *gwerror.Error
	if !errors.As(err, &gerr) || gerr.Kind != gwerror.KindConfiguration {
		t.Errorf("error = %v, want configuration kind", err)
	}
	// The error must not carry any configured key.
	if got := err.Error(); strings.Contains(got, "sk-openai") || strings.Contains(got, "sk-deepseek") {
		t.Errorf("error leaks a configured key: %q", got)
	}
}

func TestSearch(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()
	cfg.DataForSEO.Login = "login"
	cfg.DataForSEO.Password = "pass"

	target, err := NewResolver(cfg).Search()
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if target.BaseURL != "https://api.dataforseo.com/v3" {
		t.Errorf("BaseURL = %q", target.BaseURL)
	}

	basic, ok := target.Auth.(BasicAuth)
	if !ok {
		t.Fatalf("auth = %T, want BasicAuth", target.Auth)
	}
	if basic.Username != "login" || basic.Password != "pass" {
		t.Errorf("credentials = %q/%q", basic.Username, basic.Password)
	}
}

func TestSearch_MissingCredentials(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()

	_, err := NewResolver(cfg).Search()
	if err == nil {
		t.Fatal("Search() succeeded without credentials")
	}
	if gwerror.KindOf(err) != gwerror.KindConfiguration {
		t.Errorf("kind = %q, want %q", gwerror.KindOf(err), gwerror.KindConfiguration)
	}
}

func TestTarget_Endpoint(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"https://api.dataforseo.com/v3", "serp/google/organic/live", "https://api.dataforseo.com/v3/serp/google/organic/live"},
		{"https://api.dataforseo.com/v3/", "/serp/google/organic/live", "https://api.dataforseo.com/v3/serp/google/organic/live"},
		{"https://api.openai.com/v1", "chat/completions", "https://api.openai.com/v1/chat/completions"},
	}

	for _, tt := range tests {
		got := Target{BaseURL: tt.base}.Endpoint(tt.path)
		if got != tt.want {
			t.Errorf("Endpoint(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestAuth_Apply(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)

	BearerAuth{Token: "tok"}.Apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer tok" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
	}

	req2, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
	BasicAuth{Username: "u", Password: "p"}.Apply(req2)
	user, pass, ok := req2.BasicAuth()
	if !ok || user != "u" || pass != "p" {
		t.Errorf("BasicAuth = %q/%q ok=%v", user, pass, ok)
	}

	req3, _ := http.NewRequest(http.MethodPost, "https://example.com", nil)
	NoAuth{}.Apply(req3)
	if got := req3.Header.Get("Authorization"); got != "" {
		t.Errorf("NoAuth set Authorization = %q", got)
	}
}
