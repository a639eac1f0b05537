// Package model defines shared request/response types for the gateway.
package model

import "encoding/json"

// EncodingBase64 marks a ProxyRequest whose Payload field carries the
// request body base64-encoded. Any other Encoding value means the JSON
// Body field is forwarded as-is.
const EncodingBase64 = "base64"

// ProxyRequest is the body of POST /api/proxy: a caller-described request
// to a third-party API. The target host must pass the domain allowlist.
type ProxyRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	// Body is a structured JSON value forwarded as a JSON body.
	Body json.RawMessage `json:"body"`
	// Payload is a base64-encoded raw body, used with Encoding. It lets
	// callers ship bodies that intermediary content inspection would
	// otherwise mangle, and round-trips byte-exactly.
	Payload  string `json:"payload"`
	Encoding string `json:"encoding"`
}

// ProxyResponse is a fully buffered upstream response relayed to the
// caller. Only the content type is preserved from the upstream headers.
type ProxyResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}
