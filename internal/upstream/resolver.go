package upstream

import (
	"net/http"
	"strings"
	"time"

	"seo-gateway/internal/config"
	"seo-gateway/internal/gwerror"
)

// Upstream names used for metrics labels and logging.
const (
	NameDataForSEO = "dataforseo"
	NameProxy      = "proxy"
	NameLLM        = "llm"
)

// totalTimeout bounds every buffered upstream call.
const totalTimeout = 60 * time.Second

// Auth is an upstream credential applied to an outbound request.
type Auth interface {
	Apply(req *http.Request)
}

// NoAuth sends the request as-is; used by the generic proxy where the
// caller supplies its own credentials.
type NoAuth struct{}

func (NoAuth) Apply(*http.Request) {}

// BasicAuth carries HTTP Basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(a.Username, a.Password)
}

// BearerAuth carries an Authorization bearer token.
type BearerAuth struct {
	Token string
}

func (a BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// Target is a resolved upstream endpoint with its injected credential.
type Target struct {
	Provider string
	BaseURL  string
	Auth     Auth
	Timeout  time.Duration
}

// llmRule maps a model-id predicate to a provider. Rules are evaluated in
// declaration order and the first match wins, so a model id matching
// several substrings resolves deterministically.
type llmRule struct {
	provider string
	matches  func(model string) bool
	conf     func(cfg *config.Config) config.ProviderConfig
}

var llmRules = []llmRule{
	{
		provider: "gemini",
		matches:  func(m string) bool { return strings.Contains(m, "gemini") },
		conf:     func(c *config.Config) config.ProviderConfig { return c.LLM.Gemini },
	},
	{
		provider: "deepseek",
		matches:  func(m string) bool { return strings.Contains(m, "deepseek") },
		conf:     func(c *config.Config) config.ProviderConfig { return c.LLM.DeepSeek },
	},
	{
		provider: "openai",
		matches:  func(string) bool { return true },
		conf:     func(c *config.Config) config.ProviderConfig { return c.LLM.OpenAI },
	},
}

// Resolver maps logical keys to upstream targets from the process-wide
// configuration. Read-only after construction.
type Resolver struct {
	cfg *config.Config
}

// NewResolver creates a Resolver.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// LLM resolves a model identifier to its provider endpoint and bearer key.
// Resolution is ordered substring matching (gemini, then deepseek, then
// the OpenAI-compatible default). A provider without a configured key
// yields a configuration error; no request is sent.
func (r *Resolver) LLM(model string) (Target, error) {
	for _, rule := range llmRules {
		if !rule.matches(model) {
			continue
		}
		pc := rule.conf(r.cfg)
		if pc.APIKey == "" {
			return Target{}, gwerror.Newf(gwerror.KindConfiguration,
				"no API key configured for %s models", rule.provider)
		}
		if pc.BaseURL == "" {
			return Target{}, gwerror.Newf(gwerror.KindConfiguration,
				"no base URL configured for %s models", rule.provider)
		}
		return Target{
			Provider: rule.provider,
			BaseURL:  pc.BaseURL,
			Auth:     BearerAuth{Token: pc.APIKey},
			Timeout:  totalTimeout,
		}, nil
	}
	// Unreachable: the last rule matches everything.
	return Target{}, gwerror.New(gwerror.KindConfiguration, "no provider rule matched")
}

// Search resolves the fixed DataForSEO upstream with its Basic-Auth
// credentials.
func (r *Resolver) Search() (Target, error) {
	d := r.cfg.DataForSEO
	if d.Login == "" || d.Password == "" {
		return Target{}, gwerror.New(gwerror.KindConfiguration,
			"missing DataForSEO credentials")
	}
	if d.BaseURL == "" {
		return Target{}, gwerror.New(gwerror.KindConfiguration,
			"missing DataForSEO base URL")
	}
	return Target{
		Provider: NameDataForSEO,
		BaseURL:  d.BaseURL,
		Auth:     BasicAuth{Username: d.Login, Password: d.Password},
		Timeout:  totalTimeout,
	}, nil
}

// Endpoint joins the target's base URL with a path segment.
func (t Target) Endpoint(path string) string {
	return strings.TrimSuffix(t.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
