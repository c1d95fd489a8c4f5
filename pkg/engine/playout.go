package engine

import (
	"context"
	"fmt"

	"github.com/yourusername/nardengine/pkg/nard"
)

// Policy picks one move from a non-empty list of legal moves.
type Policy interface {
	ChooseMove(moves []nard.Move) nard.Move
}

// RandomPolicy chooses uniformly among legal moves.
type RandomPolicy struct {
	src nard.Source
}

// NewRandomPolicy returns a policy drawing from src.
func NewRandomPolicy(src nard.Source) *RandomPolicy {
	return &RandomPolicy{src: src}
}

// ChooseMove implements Policy.
func (r *RandomPolicy) ChooseMove(moves []nard.Move) nard.Move {
	return moves[r.src.Intn(len(moves))]
}

// PlayOutOptions controls a single self-play game.
type PlayOutOptions struct {
	MaxPlies int // Stop after N plies (0 = play to the end)

	// Observer, if set, is called after every ply with the player who
	// acted. move is nil for a skip.
	Observer func(ply int, mover nard.Player, move *nard.Move, g *nard.Game)
}

// GameRecord summarises a finished or truncated game.
type GameRecord struct {
	FirstPlayer nard.Player
	Winner      nard.Player
	Finished    bool // False when MaxPlies was reached first
	Plies       int  // Moves plus skips
	Moves       int
	Skips       int
	BearOffs    int
}

// PlayOut drives g to the end, using policy for every move and skipping
// whenever the player on turn has no legal move.
func PlayOut(ctx context.Context, g *nard.Game, policy Policy, opts PlayOutOptions) (GameRecord, error) {
	var rec GameRecord
	if g.State() == nard.Playing {
		rec.FirstPlayer = g.Turn()
	}

	for {
		if err := ctx.Err(); err != nil {
			return rec, err
		}

		switch g.State() {
		case nard.FirstRoll:
			p, err := g.FirstRoll()
			if err != nil {
				return rec, fmt.Errorf("first roll: %w", err)
			}
			rec.FirstPlayer = p

		case nard.Playing:
			if opts.MaxPlies > 0 && rec.Plies >= opts.MaxPlies {
				return rec, nil
			}
			moves, err := g.ValidMoves()
			if err != nil {
				return rec, fmt.Errorf("ply %d: %w", rec.Plies, err)
			}

			mover := g.Turn()
			var played *nard.Move
			if len(moves) == 0 {
				if err := g.Skip(); err != nil {
					return rec, fmt.Errorf("ply %d: skip: %w", rec.Plies, err)
				}
				rec.Skips++
			} else {
				m := policy.ChooseMove(moves)
				if err := g.PlayMove(m); err != nil {
					return rec, fmt.Errorf("ply %d: play %s: %w", rec.Plies, m, err)
				}
				rec.Moves++
				if m.IsBearOff() {
					rec.BearOffs++
				}
				played = &m
			}
			rec.Plies++
			if opts.Observer != nil {
				opts.Observer(rec.Plies, mover, played, g)
			}

		case nard.Ended:
			rec.Winner = g.Outcome().Winner
			rec.Finished = true
			return rec, nil

		default:
			return rec, fmt.Errorf("unknown game state %s", g.State())
		}
	}
}
