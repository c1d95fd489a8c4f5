// Package nard implements the rules of Nard, the long backgammon variant played
// with fifteen checkers per side, no hitting and a single starting stack.
package nard

import (
	"fmt"
	"strings"
)

// Player identifies one of the two sides.
type Player uint8

const (
	White Player = iota
	Black
)

// NumCheckers is the number of checkers each player starts with.
const NumCheckers = 15

// NumPoints is the number of points on the board.
const NumPoints = 24

// String returns the lowercase player name.
func (p Player) String() string {
	switch p {
	case White:
		return "white"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("Player(%d)", uint8(p))
	}
}

// Opponent returns the other player.
func (p Player) Opponent() Player {
	switch p {
	case White:
		return Black
	case Black:
		return White
	default:
		panic(fmt.Sprintf("nard: invalid player %d", uint8(p)))
	}
}

// sign is the slot value contributed by one of the player's checkers.
func (p Player) sign() int {
	switch p {
	case White:
		return 1
	case Black:
		return -1
	default:
		panic(fmt.Sprintf("nard: invalid player %d", uint8(p)))
	}
}

// ParsePlayer parses "white"/"w" or "black"/"b" (case-insensitive).
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return 0, fmt.Errorf("unknown player %q", s)
}

// State is the lifecycle stage of a game.
type State uint8

const (
	FirstRoll State = iota
	Playing
	Ended
)

func (s State) String() string {
	switch s {
	case FirstRoll:
		return "first roll"
	case Playing:
		return "playing"
	case Ended:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Outcome records the winner of a finished game.
type Outcome struct {
	Winner Player
}
