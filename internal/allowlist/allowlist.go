// Package allowlist decides which hosts the generic forwarding proxy may
// reach. Matching is exact or dot-suffix (subdomain), case-insensitive.
package allowlist

import "strings"

// defaultDomains are the third-party APIs the frontend is known to call
// through the generic proxy. Additional entries come from configuration.
var defaultDomains = []string{
	"api.deepl.com",
	"api-free.deepl.com",
	"translation.googleapis.com",
	"api.cognitive.microsofttranslator.com",
	"api.replicate.com",
	"api.openai.com",
	"api.anthropic.com",
	"api.siliconflow.cn",
	"image.pollinations.ai",
	"api-inference.huggingface.co",
	"api.cloudflare.com",
	"openrouter.ai",
	"api.studio.nebius.ai",
	"open.bigmodel.cn",
	"ark.cn-beijing.volces.com",
	"pixabay.com",
	"api.unsplash.com",
	"libretranslate.com",
	"modelscope.cn",
	"api.stability.ai",
}

// Allowlist is an immutable set of permitted upstream domains.
type Allowlist struct {
	entries []string
}

// New returns the default allowlist extended with extra entries.
// Entries are compared lower-cased.
func New(extra ...string) *Allowlist {
	entries := make([]string, 0, len(defaultDomains)+len(extra))
	for _, d := range defaultDomains {
		entries = append(entries, strings.ToLower(d))
	}
	for _, d := range extra {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			entries = append(entries, d)
		}
	}
	return &Allowlist{entries: entries}
}

// Allows reports whether host may be proxied to. The host must already be
// stripped of port and userinfo; an empty host is always rejected.
//
// Note: ports are not part of the comparison, so every port on an allowed
// host is reachable. A stricter deployment can tighten this by listing
// host:port entries and matching on the full authority.
func (a *Allowlist) Allows(host string) bool {
	if host == "" {
		return false
	}
	host = strings.ToLower(host)
	for _, entry := range a.entries {
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
