package service

import (
	"context"
	"errors"
	"net"

	"seo-gateway/internal/gwerror"
)

// transportError classifies an outbound transport failure. Client-facing
// details are fixed strings; the raw cause (which may embed upstream URLs)
// stays wrapped for logging only.
func transportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return gwerror.Wrap(gwerror.KindUpstreamConnection, "upstream request timed out", err)
	case errors.Is(err, context.Canceled):
		return gwerror.Wrap(gwerror.KindUpstreamConnection, "request canceled", err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return gwerror.Wrap(gwerror.KindUpstreamConnection, "upstream host unreachable", err)
	}

	return gwerror.Wrap(gwerror.KindUpstreamConnection, "upstream connection failed", err)
}

// truncateDetail bounds upstream error bodies embedded in client-facing
// details.
func truncateDetail(s string) string {
	const max = 4096
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
