// Package engine provides position analysis and self-play rollouts on top
// of the Nard rules in package nard.
package engine

import (
	"github.com/rs/zerolog"
)

// Engine analyses positions and runs self-play rollouts. It is safe for
// concurrent use.
type Engine struct {
	cache *MoveCache
	log   zerolog.Logger
}

// EngineOptions configures the engine
type EngineOptions struct {
	CacheSize int             // Legal-move cache entries (0 = default, negative = disabled)
	Logger    *zerolog.Logger // Logger for rollout progress (nil = discard)
}

// NewEngine creates a new engine with the given options
func NewEngine(opts EngineOptions) *Engine {
	e := &Engine{log: zerolog.Nop()}
	if opts.Logger != nil {
		e.log = opts.Logger.With().Str("component", "engine").Logger()
	}

	switch {
	case opts.CacheSize == 0:
		e.cache = NewMoveCache(DefaultCacheSize)
	case opts.CacheSize > 0:
		e.cache = NewMoveCache(uint32(opts.CacheSize))
	}
	return e
}

// Cache returns the legal-move cache, or nil when caching is disabled.
func (e *Engine) Cache() *MoveCache {
	return e.cache
}
