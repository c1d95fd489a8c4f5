package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/nardengine/pkg/nard"
)

// ErrInvalidDice is returned for dice that cannot form a Nard roll.
var ErrInvalidDice = errors.New("invalid dice")

// StartingPosition returns the Nard starting position
func StartingPosition() nard.Position {
	return nard.NewBoard().Position()
}

// ValidateDice checks that dice form pending dice of a turn: one to four
// values in 1-6, with more than two only when all are equal.
func ValidateDice(dice []int) error {
	if len(dice) == 0 || len(dice) > 4 {
		return fmt.Errorf("%w: need 1 to 4 values, got %d", ErrInvalidDice, len(dice))
	}
	for _, d := range dice {
		if d < 1 || d > 6 {
			return fmt.Errorf("%w: dice values must be 1-6", ErrInvalidDice)
		}
	}
	if len(dice) > 2 {
		for _, d := range dice[1:] {
			if d != dice[0] {
				return fmt.Errorf("%w: more than two dice must be a double", ErrInvalidDice)
			}
		}
	}
	return nil
}

// ParseDice parses dice in the form "3,1" or "3-1". A double such as "5-5"
// expands to four dice.
func ParseDice(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) == 1 {
		parts = strings.Split(s, "-")
	}

	dice := make([]int, 0, 4)
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: dice should be in format '3,1' or '3-1'", ErrInvalidDice)
		}
		dice = append(dice, d)
	}
	if len(dice) == 2 && dice[0] == dice[1] {
		dice = append(dice, dice[0], dice[0])
	}
	if err := ValidateDice(dice); err != nil {
		return nil, err
	}
	return dice, nil
}

// ParsePosition parses 24 comma-separated raw slot values, optionally
// followed by ":whiteOff:blackOff". Without off counts they are derived
// from the checkers on the board.
func ParsePosition(s string) (nard.Position, error) {
	var pos nard.Position

	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != 1 && len(fields) != 3 {
		return pos, fmt.Errorf("%w: expected slots or slots:white_off:black_off", nard.ErrInvalidPosition)
	}

	slots := strings.Split(fields[0], ",")
	if len(slots) != nard.NumPoints {
		return pos, fmt.Errorf("%w: expected %d slots, got %d", nard.ErrInvalidPosition, nard.NumPoints, len(slots))
	}
	white, black := 0, 0
	for i, f := range slots {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return pos, fmt.Errorf("%w: slot %d: %v", nard.ErrInvalidPosition, i, err)
		}
		pos.Slots[i] = v
		if v > 0 {
			white += v
		} else {
			black -= v
		}
	}

	if len(fields) == 3 {
		var err error
		if pos.WhiteOff, err = strconv.Atoi(strings.TrimSpace(fields[1])); err != nil {
			return pos, fmt.Errorf("%w: white off: %v", nard.ErrInvalidPosition, err)
		}
		if pos.BlackOff, err = strconv.Atoi(strings.TrimSpace(fields[2])); err != nil {
			return pos, fmt.Errorf("%w: black off: %v", nard.ErrInvalidPosition, err)
		}
	} else {
		pos.WhiteOff = nard.NumCheckers - white
		pos.BlackOff = nard.NumCheckers - black
	}

	if _, err := nard.NewBoardFromPosition(pos); err != nil {
		return pos, err
	}
	return pos, nil
}

// FormatPosition is the inverse of ParsePosition, always including the
// off counts.
func FormatPosition(pos nard.Position) string {
	parts := make([]string, len(pos.Slots))
	for i, v := range pos.Slots {
		parts[i] = strconv.Itoa(v)
	}
	return fmt.Sprintf("%s:%d:%d", strings.Join(parts, ","), pos.WhiteOff, pos.BlackOff)
}
