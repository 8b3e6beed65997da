package live

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Renderer turns a snapshot into the HTML fragment for one region.
// A snapshot with Err set should render an inline error fragment; the
// feed ends after it, leaving sibling regions untouched.
type Renderer func(Snapshot) (string, error)

const heartbeatInterval = 15 * time.Second

// ServeRegion streams one live region over Server-Sent Events. The
// cached fragment, if any, is replayed before the first authoritative
// snapshot. The handler returns when the client disconnects, the feed
// is released, or the feed fails.
func ServeRegion(w http.ResponseWriter, r *http.Request, binder *Binder, cache *Cache, log *zap.Logger, key string, q Query, render Renderer) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if fragment, ok := cache.Get(key); ok {
		writeEvent(w, "snapshot", fragment)
		flusher.Flush()
	}

	snapshots := binder.Bind(r.Context(), key, q)
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case s, open := <-snapshots:
			if !open {
				return
			}
			fragment, err := render(s)
			if err != nil {
				log.Error("live: render failed",
					zap.String("key", key), zap.Error(err))
				return
			}
			writeEvent(w, "snapshot", fragment)
			flusher.Flush()
			if s.Err == nil {
				cache.Put(key, fragment)
			}
			if s.Err != nil {
				// Error snapshots end the feed.
				return
			}
		}
	}
}

// writeEvent writes one SSE event. Multi-line fragments get one data:
// line per line, per the SSE framing rules.
func writeEvent(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
