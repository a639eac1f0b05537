// Package gwerror defines the gateway's error taxonomy and its mapping
// to HTTP responses.
package gwerror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable machine-readable error category exposed to clients.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindAuthorization      Kind = "authorization_error"
	KindConfiguration      Kind = "configuration_error"
	KindUpstreamConnection Kind = "upstream_connection_error"
	KindUpstreamHTTP       Kind = "upstream_http_error"
	KindInternal           Kind = "internal_error"
)

// Error is a classified gateway error. Detail is client-facing and must
// never contain injected secrets; the wrapped cause is for logs only.
type Error struct {
	Kind   Kind
	Detail string
	// Status overrides the kind's default HTTP status when non-zero.
	// Set to the upstream's own status for KindUpstreamHTTP passthrough.
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an Error of the given kind.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf creates an Error with a formatted detail string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that records err as its cause. The cause is not
// part of the client-facing detail.
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// Upstream creates a KindUpstreamHTTP error carrying the upstream's own
// status code.
func Upstream(status int, detail string) *Error {
	return &Error{Kind: KindUpstreamHTTP, Detail: detail, Status: status}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// defaultStatus maps each kind to its HTTP status code.
var defaultStatus = map[Kind]int{
	KindValidation:         http.StatusBadRequest,
	KindAuthorization:      http.StatusForbidden,
	KindConfiguration:      http.StatusInternalServerError,
	KindUpstreamConnection: http.StatusBadGateway,
	KindUpstreamHTTP:       http.StatusBadGateway,
	KindInternal:           http.StatusInternalServerError,
}

// Body is the JSON error response shape.
type Body struct {
	Error Payload `json:"error"`
}

// Payload carries the machine-readable kind and human-readable detail.
type Payload struct {
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

// ResponseFor converts any error into an HTTP status and response body.
// Unclassified errors become an opaque internal_error so that raw error
// strings (which may reference upstream URLs) never reach the client.
func ResponseFor(err error) (int, Body) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, Body{Error: Payload{
			Kind:   KindInternal,
			Detail: "internal error",
		}}
	}

	status := e.Status
	if status == 0 {
		status = defaultStatus[e.Kind]
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return status, Body{Error: Payload{Kind: e.Kind, Detail: e.Detail}}
}
