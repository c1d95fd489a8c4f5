package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/yourusername/nardengine/internal/random"
	"github.com/yourusername/nardengine/pkg/engine"
	"github.com/yourusername/nardengine/pkg/nard"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidJSON     = "INVALID_JSON"
	CodeInvalidPlayer   = "INVALID_PLAYER"
	CodeInvalidDice     = "INVALID_DICE"
	CodeInvalidPosition = "INVALID_POSITION"
	CodeInvalidMove     = "INVALID_MOVE"
	CodeInvalidRollout  = "INVALID_ROLLOUT"
	CodeTooManyGames    = "TOO_MANY_GAMES"
	CodeServerBusy      = "SERVER_BUSY"
	CodeAnalysisError   = "ANALYSIS_ERROR"
	CodeRolloutError    = "ROLLOUT_ERROR"
)

// DefaultMaxRolloutGames caps the games a single request may ask for.
const DefaultMaxRolloutGames = 100000

// DefaultMaxRolloutWorkers caps the workers a single request may ask for.
const DefaultMaxRolloutWorkers = 32

// Handlers holds the HTTP handlers and engine reference.
type Handlers struct {
	engine     *engine.Engine
	version    string
	pool       *WorkerPool
	rollout    engine.RolloutOptions
	maxGames   int
	maxWorkers int
	upgrader   websocket.Upgrader
	origins    []string
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(e *engine.Engine, version string) *Handlers {
	return NewHandlersWithPool(e, version, nil)
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(e *engine.Engine, version string, pool *WorkerPool) *Handlers {
	h := &Handlers{
		engine:     e,
		version:    version,
		pool:       pool,
		rollout:    engine.DefaultRolloutOptions(),
		maxGames:   DefaultMaxRolloutGames,
		maxWorkers: DefaultMaxRolloutWorkers,
		origins:    []string{"*"},
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// SetRolloutLimits sets the games and ply cap used when a rollout request
// leaves them out, and the largest game count a request may ask for.
func (h *Handlers) SetRolloutLimits(games, maxPlies, maxGames int) {
	if games > 0 {
		h.rollout.Games = games
	}
	if maxPlies > 0 {
		h.rollout.MaxPlies = maxPlies
	}
	if maxGames > 0 {
		h.maxGames = maxGames
	}
}

// SetMaxRolloutWorkers sets the largest worker count a rollout request may
// ask for. Values above engine.MaxWorkers are lowered to it.
func (h *Handlers) SetMaxRolloutWorkers(n int) {
	if n > 0 {
		h.maxWorkers = min(n, engine.MaxWorkers)
	}
}

// SetAllowedOrigins restricts the origins that may open a WebSocket. "*"
// allows every origin; an empty list keeps the current setting.
func (h *Handlers) SetAllowedOrigins(origins []string) {
	if len(origins) > 0 {
		h.origins = slices.Clone(origins)
	}
}

// apiError carries the HTTP status and code for a failed request.
type apiError struct {
	status int
	code   string
	err    error
}

func (e *apiError) Error() string { return e.err.Error() }

func (e *apiError) Unwrap() error { return e.err }

func badRequest(code string, err error) *apiError {
	return &apiError{status: http.StatusBadRequest, code: code, err: err}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

func writeAPIError(w http.ResponseWriter, r *http.Request, err *apiError) {
	if err.status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err.err).Str("code", err.code).Msg("request failed")
	}
	writeError(w, err.status, err.Error(), err.code)
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.engine != nil,
	}

	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	if h.engine != nil && h.engine.Cache() != nil {
		stats := h.engine.Cache().Stats()
		resp.Cache = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// Moves handles POST /api/moves
func (h *Handlers) Moves(w http.ResponseWriter, r *http.Request) {
	if h.pool != nil {
		if err := h.pool.AcquireFast(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
			return
		}
		defer h.pool.ReleaseFast()
	}

	var req MovesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}

	resp, apiErr := h.analyzeMoves(&req)
	if apiErr != nil {
		writeAPIError(w, r, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// analyzeMoves serves a moves request for both HTTP and WebSocket clients.
func (h *Handlers) analyzeMoves(req *MovesRequest) (*MovesResponse, *apiError) {
	player, err := nard.ParsePlayer(req.Player)
	if err != nil {
		return nil, badRequest(CodeInvalidPlayer, err)
	}

	var move *nard.Move
	if req.Move != "" {
		m, err := engine.ParseMove(req.Move)
		if err != nil {
			return nil, badRequest(CodeInvalidMove, err)
		}
		move = &m
	}

	pos, err := req.position()
	if err != nil {
		return nil, badRequest(CodeInvalidPosition, err)
	}
	analysis, err := h.engine.AnalyzePosition(pos, player, req.Dice)
	switch {
	case errors.Is(err, engine.ErrInvalidDice):
		return nil, badRequest(CodeInvalidDice, err)
	case errors.Is(err, nard.ErrInvalidPosition):
		return nil, badRequest(CodeInvalidPosition, err)
	case err != nil:
		return nil, &apiError{status: http.StatusInternalServerError, code: CodeAnalysisError, err: err}
	}

	resp := MovesToResponse(analysis)
	if move != nil {
		legal := slices.Contains(analysis.Moves, *move)
		resp.Legal = &legal
	}
	return &resp, nil
}

// Rollout handles POST /api/rollout
func (h *Handlers) Rollout(w http.ResponseWriter, r *http.Request) {
	// Rollouts are CPU-intensive
	if h.pool != nil {
		if err := h.pool.AcquireSlow(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", CodeServerBusy)
			return
		}
		defer h.pool.ReleaseSlow()
	}

	var req RolloutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", CodeInvalidJSON)
		return
	}

	resp, apiErr := h.runRollout(r.Context(), &req, nil)
	if apiErr != nil {
		writeAPIError(w, r, apiErr)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runRollout validates a rollout request and runs it. A zero seed is
// replaced by a fresh one so the response can report it.
func (h *Handlers) runRollout(ctx context.Context, req *RolloutRequest, progress engine.ProgressCallback) (*RolloutResponse, *apiError) {
	if req.Games < 0 || req.Workers < 0 || req.MaxPlies < 0 {
		return nil, badRequest(CodeInvalidRollout, errors.New("games, workers and max_plies must not be negative"))
	}
	opts, err := req.rolloutOptions(h.rollout)
	if err != nil {
		return nil, badRequest(CodeInvalidPlayer, err)
	}
	if req.Workers > h.maxWorkers {
		return nil, badRequest(CodeInvalidRollout, fmt.Errorf("at most %d workers per rollout", h.maxWorkers))
	}
	if opts.Games > h.maxGames {
		return nil, badRequest(CodeTooManyGames, fmt.Errorf("at most %d games per rollout", h.maxGames))
	}
	if opts.Seed == 0 {
		opts.Seed = random.MustSeed()
	}

	result, err := h.engine.RolloutWithProgress(ctx, opts, progress)
	if err != nil {
		return nil, &apiError{status: http.StatusInternalServerError, code: CodeRolloutError, err: err}
	}
	resp := RolloutToResponse(result, opts.Seed)
	return &resp, nil
}
