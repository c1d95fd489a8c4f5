// Package api provides an HTTP/JSON API for Nard position analysis and
// self-play rollouts.
package api

import (
	"fmt"

	"github.com/yourusername/nardengine/pkg/engine"
	"github.com/yourusername/nardengine/pkg/nard"
)

// ============================================================================
// Request Types
// ============================================================================

// MovesRequest is the request body for legal-move analysis.
type MovesRequest struct {
	Slots    *[nard.NumPoints]int `json:"slots,omitempty"`     // Raw slots, white positive (default starting position)
	WhiteOff int                  `json:"white_off,omitempty"` // Checkers borne off by white
	BlackOff int                  `json:"black_off,omitempty"` // Checkers borne off by black
	Player   string               `json:"player"`              // "white" or "black"
	Dice     []int                `json:"dice"`                // Pending dice, e.g. [3,1] or [5,5,5,5]
	Move     string               `json:"move,omitempty"`      // Optional move to check, e.g. "1/4"
}

// RolloutRequest is the request body for self-play rollouts.
type RolloutRequest struct {
	Games       int    `json:"games,omitempty"`        // Number of games (default from config)
	Workers     int    `json:"workers,omitempty"`      // Parallel workers (0 = GOMAXPROCS)
	Seed        uint64 `json:"seed,omitempty"`         // Random seed (0 = random)
	MaxPlies    int    `json:"max_plies,omitempty"`    // Truncate each game (0 = default)
	FirstPlayer string `json:"first_player,omitempty"` // Preset starting player (empty = first roll)
}

// ============================================================================
// Response Types
// ============================================================================

// MoveResponse describes one legal move.
type MoveResponse struct {
	Move        string `json:"move"`        // Notation, e.g. "1/4" or "19/off"
	Kind        string `json:"kind"`        // "travel" or "bear_off"
	Source      int    `json:"source"`      // 0-based point in the mover's view
	Destination int    `json:"destination"` // 0-based point, -1 for bear-off
}

// MovesResponse is the response for legal-move analysis.
type MovesResponse struct {
	Player      string         `json:"player"`
	Dice        []int          `json:"dice"`
	Moves       []MoveResponse `json:"moves"`
	NumLegal    int            `json:"num_legal"`
	OffPossible bool           `json:"off_possible"`
	Cached      bool           `json:"cached"`
	Legal       *bool          `json:"legal,omitempty"` // Set when the request named a move
}

// RolloutResponse is the response for a rollout.
type RolloutResponse struct {
	Games              int     `json:"games"`
	Finished           int     `json:"finished"`
	Unfinished         int     `json:"unfinished"`
	WhiteWins          int     `json:"white_wins"`
	BlackWins          int     `json:"black_wins"`
	WhiteWinRate       float64 `json:"white_win_rate"` // Percent of finished games
	WinRateCI          float64 `json:"win_rate_ci"`    // 95% CI half-width, percent
	FirstPlayerWinRate float64 `json:"first_player_win_rate"`
	MeanPlies          float64 `json:"mean_plies"`
	StdDevPlies        float64 `json:"stddev_plies"`
	MeanSkips          float64 `json:"mean_skips"`
	ElapsedMs          int64   `json:"elapsed_ms"`
	Seed               uint64  `json:"seed,omitempty"`
}

// RolloutProgressResponse is sent while a streamed rollout runs.
type RolloutProgressResponse struct {
	GamesCompleted int     `json:"games_completed"`
	GamesTotal     int     `json:"games_total"`
	Percent        float64 `json:"percent"`
	WhiteWinRate   float64 `json:"white_win_rate"`
}

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error string `json:"error"`          // Error message
	Code  string `json:"code,omitempty"` // Error code
}

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status  string             `json:"status"`
	Version string             `json:"version"`
	Ready   bool               `json:"ready"`
	Pool    *PoolStats         `json:"pool,omitempty"`
	Cache   *engine.CacheStats `json:"cache,omitempty"`
}

// ============================================================================
// Conversions
// ============================================================================

// errOffWithoutSlots rejects off counts that come without a board to go with.
var errOffWithoutSlots = fmt.Errorf("%w: white_off and black_off need slots", nard.ErrInvalidPosition)

// position returns the requested position, or the starting position when
// no slots were sent.
func (r *MovesRequest) position() (nard.Position, error) {
	if r.Slots == nil {
		if r.WhiteOff != 0 || r.BlackOff != 0 {
			return nard.Position{}, errOffWithoutSlots
		}
		return engine.StartingPosition(), nil
	}
	return nard.Position{Slots: *r.Slots, WhiteOff: r.WhiteOff, BlackOff: r.BlackOff}, nil
}

// rolloutOptions converts the request, filling games and plies from defaults.
func (r *RolloutRequest) rolloutOptions(defaults engine.RolloutOptions) (engine.RolloutOptions, error) {
	opts := engine.RolloutOptions{
		Games:    r.Games,
		Workers:  r.Workers,
		Seed:     r.Seed,
		MaxPlies: r.MaxPlies,
	}
	if opts.Games <= 0 {
		opts.Games = defaults.Games
	}
	if opts.MaxPlies <= 0 {
		opts.MaxPlies = defaults.MaxPlies
	}
	if r.FirstPlayer != "" {
		p, err := nard.ParsePlayer(r.FirstPlayer)
		if err != nil {
			return opts, err
		}
		opts.FirstPlayer = &p
	}
	return opts, nil
}

// MovesToResponse converts an engine analysis into its JSON form.
func MovesToResponse(a *engine.MoveAnalysis) MovesResponse {
	moves := make([]MoveResponse, len(a.Moves))
	for i, m := range a.Moves {
		moves[i] = MoveResponse{
			Move:        engine.FormatMove(m),
			Kind:        moveKind(m),
			Source:      m.Source,
			Destination: m.Destination,
		}
		if m.IsBearOff() {
			moves[i].Destination = -1
		}
	}
	return MovesResponse{
		Player:      a.Player.String(),
		Dice:        a.Dice,
		Moves:       moves,
		NumLegal:    a.NumMoves,
		OffPossible: a.OffPossible,
		Cached:      a.Cached,
	}
}

func moveKind(m nard.Move) string {
	switch m.Kind {
	case nard.Travel:
		return "travel"
	case nard.BearOff:
		return "bear_off"
	default:
		panic(fmt.Sprintf("unknown move kind %d", m.Kind))
	}
}

// RolloutToResponse converts rollout statistics into their JSON form.
func RolloutToResponse(res *engine.RolloutResult, seed uint64) RolloutResponse {
	return RolloutResponse{
		Games:              res.Games,
		Finished:           res.Finished,
		Unfinished:         res.Unfinished,
		WhiteWins:          res.WhiteWins,
		BlackWins:          res.BlackWins,
		WhiteWinRate:       res.WhiteWinRate * 100,
		WinRateCI:          res.WinRateCI * 100,
		FirstPlayerWinRate: res.FirstPlayerWinRate * 100,
		MeanPlies:          res.MeanPlies,
		StdDevPlies:        res.StdDevPlies,
		MeanSkips:          res.MeanSkips,
		ElapsedMs:          res.Elapsed.Milliseconds(),
		Seed:               seed,
	}
}

// ProgressToResponse converts a rollout progress update.
func ProgressToResponse(p engine.RolloutProgress) RolloutProgressResponse {
	return RolloutProgressResponse{
		GamesCompleted: p.GamesCompleted,
		GamesTotal:     p.GamesTotal,
		Percent:        p.Percent,
		WhiteWinRate:   p.WhiteWinRate * 100,
	}
}
