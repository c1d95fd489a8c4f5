package nard

import "fmt"

// MoveKind distinguishes a checker travelling between points from a bear-off.
type MoveKind uint8

const (
	Travel MoveKind = iota
	BearOff
)

// Move is a single checker move in the mover's point-of-view numbering.
// Destination is only meaningful for Travel moves.
type Move struct {
	Kind        MoveKind
	Source      int
	Destination int
}

// TravelMove returns a move from source to destination.
func TravelMove(source, destination int) Move {
	return Move{Kind: Travel, Source: source, Destination: destination}
}

// BearOffMove returns a move taking the checker on source off the board.
func BearOffMove(source int) Move {
	return Move{Kind: BearOff, Source: source}
}

// IsBearOff reports whether m removes a checker from the board.
func (m Move) IsBearOff() bool {
	return m.Kind == BearOff
}

// Distance is the number of pips travelled by a Travel move, wrapping
// around the end of the board.
func (m Move) Distance() int {
	if m.Destination > m.Source {
		return m.Destination - m.Source
	}
	return (NumPoints - m.Source) + m.Destination
}

// String formats the move with 1-based points, e.g. "1/4" or "19/off".
func (m Move) String() string {
	switch m.Kind {
	case Travel:
		return fmt.Sprintf("%d/%d", m.Source+1, m.Destination+1)
	case BearOff:
		return fmt.Sprintf("%d/off", m.Source+1)
	default:
		return fmt.Sprintf("Move(%d, %d, %d)", m.Kind, m.Source, m.Destination)
	}
}
