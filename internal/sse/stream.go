package sse

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

var sseLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	sseLogger = l
}

const (
	EventConnected = "connected"
	EventSnapshot  = "snapshot"
)

// Stream writes every value received by client as a snapshot event until the
// request ends or the client is closed. The caller owns unsubscribing.
func Stream[T any](w http.ResponseWriter, r *http.Request, client *Client[T], encode func(T) ([]byte, error)) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Del("X-Content-Type-Options")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: %s\ndata: SSE connection established\n\n", EventConnected)
	flusher.Flush()

	sseLogger.Debug().Str("path", r.URL.Path).Msg("SSE client connected")
	defer sseLogger.Debug().Str("path", r.URL.Path).Msg("SSE client disconnected")

	done := r.Context().Done()
	for {
		select {
		case msg, ok := <-client.Msg:
			if !ok {
				return
			}
			data, err := encode(msg)
			if err != nil {
				sseLogger.Error().Err(err).Msg("Failed to encode snapshot")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventSnapshot, data)
			flusher.Flush()
		case <-done:
			return
		}
	}
}
