package engine

import (
	"slices"

	"github.com/yourusername/nardengine/pkg/nard"
)

// MoveAnalysis contains the legal moves of a position for one player and roll
type MoveAnalysis struct {
	Player      nard.Player
	Dice        []int
	Moves       []nard.Move // Legal moves in generation order
	NumMoves    int         // Total number of legal moves
	OffPossible bool        // All of the player's checkers are home
	Cached      bool        // Served from the move cache
}

// AnalyzePosition returns the legal moves for p with the given pending dice.
func (e *Engine) AnalyzePosition(pos nard.Position, p nard.Player, dice []int) (*MoveAnalysis, error) {
	if err := ValidateDice(dice); err != nil {
		return nil, err
	}
	board, err := nard.NewBoardFromPosition(pos)
	if err != nil {
		return nil, err
	}

	result := &MoveAnalysis{
		Player:      p,
		Dice:        slices.Clone(dice),
		OffPossible: board.IsOffPossible(p),
	}

	key := MakeCacheKey(pos, p, dice)
	if e.cache != nil {
		if moves, ok := e.cache.Lookup(key); ok {
			result.Moves = moves
			result.NumMoves = len(moves)
			result.Cached = true
			return result, nil
		}
	}

	result.Moves = board.ValidMoves(p, dice)
	result.NumMoves = len(result.Moves)
	if e.cache != nil {
		e.cache.Add(key, result.Moves)
	}
	return result, nil
}

// IsLegal reports whether m is among the legal moves for p.
func (e *Engine) IsLegal(pos nard.Position, p nard.Player, dice []int, m nard.Move) (bool, error) {
	analysis, err := e.AnalyzePosition(pos, p, dice)
	if err != nil {
		return false, err
	}
	return slices.Contains(analysis.Moves, m), nil
}
