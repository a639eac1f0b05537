// Package stream relays an upstream byte stream to a caller without
// buffering the whole body.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"seo-gateway/internal/upstream"
)

// ContentType is the media type of the relayed event stream.
const ContentType = "text/event-stream"

// maxErrorBody caps how much of an upstream error body is read into the
// terminal event.
const maxErrorBody = 64 * 1024

// chunkSize bounds per-chunk memory; one buffer is live at a time.
const chunkSize = 32 * 1024

// Relay pumps resp to w. When the upstream status is not 200 the short
// error body is wrapped in a single terminal server-sent event and the
// stream ends; otherwise chunks are forwarded unmodified in arrival order
// until upstream EOF. Mid-stream upstream read failures produce one
// terminal error event; a failed write to w (caller gone) stops the pump.
// The caller owns resp.Body and must close it, which also cancels any
// in-flight upstream read.
func Relay(w io.Writer, resp *upstream.Response, logger *slog.Logger) error {
	flusher, _ := w.(http.Flusher)

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if err != nil {
			logger.Error("reading upstream error body", "err", err)
		}
		writeErrorEvent(w, flusher, string(body))
		return nil
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				// Caller disconnected; stop reading upstream.
				return fmt.Errorf("write to caller: %w", werr)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			logger.Error("upstream stream failed mid-relay", "err", err)
			writeErrorEvent(w, flusher, "upstream stream interrupted")
			return fmt.Errorf("read upstream: %w", err)
		}
	}
}

// writeErrorEvent emits the single synthetic terminal event. Best effort:
// if the caller is already gone there is nobody left to tell.
func writeErrorEvent(w io.Writer, flusher http.Flusher, detail string) {
	payload, err := json.Marshal(map[string]string{"error": detail})
	if err != nil {
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return
	}
	if flusher != nil {
		flusher.Flush()
	}
}
