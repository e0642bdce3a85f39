package chi

import (
	"encoding/json"
	"net/http"

	"github.com/rehmatsg/quest-search-public-api/internal/metrics"
)

// ndjsonWriter writes one JSON document per line and flushes each frame.
// Headers are sent with the first frame so that errors found before any
// output can still become a JSON error response.
type ndjsonWriter struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	started bool
	done    func()
}

func newNDJSONWriter(w http.ResponseWriter) *ndjsonWriter {
	return &ndjsonWriter{w: w, enc: json.NewEncoder(w)}
}

func (n *ndjsonWriter) emit(frame any) error {
	if !n.started {
		n.started = true
		n.done = metrics.StreamStarted()
		h := n.w.Header()
		h.Set("Content-Type", "application/x-ndjson")
		h.Set("Cache-Control", "no-cache")
		h.Set("X-Content-Type-Options", "nosniff")
		n.w.WriteHeader(http.StatusOK)
	}
	if err := n.enc.Encode(frame); err != nil {
		return err //nolint:wrapcheck // surfaced to the orchestrator as a client write failure
	}
	if f, ok := n.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (n *ndjsonWriter) close() {
	if n.done != nil {
		n.done()
	}
}
