package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/nardengine/pkg/nard"
)

// FormatMove converts a move to 1-based notation, e.g. "1/4" or "19/off".
func FormatMove(m nard.Move) string {
	return m.String()
}

// FormatMoves joins move notations with spaces.
func FormatMoves(moves []nard.Move) string {
	parts := make([]string, len(moves))
	for i, m := range moves {
		parts[i] = FormatMove(m)
	}
	return strings.Join(parts, " ")
}

// ParseMove parses a single move in FormatMove notation. Points are 1-based
// in the mover's point of view.
func ParseMove(s string) (nard.Move, error) {
	from, to, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return nard.Move{}, fmt.Errorf("move %q: expected from/to", s)
	}

	src, err := parsePoint(from)
	if err != nil {
		return nard.Move{}, fmt.Errorf("move %q: %w", s, err)
	}
	if strings.EqualFold(strings.TrimSpace(to), "off") {
		return nard.BearOffMove(src), nil
	}
	dst, err := parsePoint(to)
	if err != nil {
		return nard.Move{}, fmt.Errorf("move %q: %w", s, err)
	}
	return nard.TravelMove(src, dst), nil
}

func parsePoint(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid point %q", s)
	}
	if n < 1 || n > nard.NumPoints {
		return 0, fmt.Errorf("point %d out of range 1-%d", n, nard.NumPoints)
	}
	return n - 1, nil
}
