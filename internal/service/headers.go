package service

import (
	"net/http"
	"strings"
)

const defaultUserAgent = "seo-gateway/1.0"

// sanitizeHeaders converts caller-supplied headers into safe outbound
// headers. The Host header is dropped regardless of case (the transport
// sets its own), a default User-Agent is added when the caller supplied
// none, and everything else passes through unchanged. A caller-supplied
// Authorization is kept, since the generic proxy exists for APIs the
// caller already holds credentials for.
func sanitizeHeaders(in map[string]string) http.Header {
	out := make(http.Header, len(in)+1)
	for k, v := range in {
		if strings.EqualFold(k, "Host") {
			continue
		}
		out.Set(k, v)
	}
	if out.Get("User-Agent") == "" {
		out.Set("User-Agent", defaultUserAgent)
	}
	return out
}
