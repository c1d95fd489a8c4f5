package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yourusername/nardengine/pkg/engine"
)

// RolloutSSE handles Server-Sent Events for streaming rollout progress.
// GET /api/rollout/stream?games=...&seed=...&workers=...&max_plies=...&first_player=...
func (h *Handlers) RolloutSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", CodeRolloutError)
		return
	}

	if h.pool != nil {
		if err := h.pool.AcquireSlow(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
			return
		}
		defer h.pool.ReleaseSlow()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	req, err := rolloutRequestFromQuery(r)
	if err != nil {
		writeSSEError(w, err.Error())
		return
	}

	callback := func(p engine.RolloutProgress) {
		writeSSEEvent(w, "progress", ProgressToResponse(p))
		flusher.Flush()
	}

	resp, apiErr := h.runRollout(r.Context(), req, callback)
	if apiErr != nil {
		writeSSEError(w, apiErr.Error())
		return
	}

	writeSSEEvent(w, "result", resp)
	writeSSEEvent(w, "done", nil)
	flusher.Flush()
}

func rolloutRequestFromQuery(r *http.Request) (*RolloutRequest, error) {
	query := r.URL.Query()
	req := &RolloutRequest{FirstPlayer: query.Get("first_player")}

	var err error
	if req.Games, err = parseIntParam(query.Get("games"), 0); err != nil {
		return nil, fmt.Errorf("games: %w", err)
	}
	if req.Workers, err = parseIntParam(query.Get("workers"), 0); err != nil {
		return nil, fmt.Errorf("workers: %w", err)
	}
	if req.MaxPlies, err = parseIntParam(query.Get("max_plies"), 0); err != nil {
		return nil, fmt.Errorf("max_plies: %w", err)
	}
	if s := query.Get("seed"); s != "" {
		if req.Seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	return req, nil
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprint(w, "\n")
}

// writeSSEError writes an error event and closes the stream.
func writeSSEError(w http.ResponseWriter, message string) {
	writeSSEEvent(w, "error", ErrorResponse{Error: message})
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(s string, defaultVal int) (int, error) {
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}
