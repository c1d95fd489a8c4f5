package nard

import (
	"fmt"
	"slices"
)

const (
	// homeStart is the first point of a player's home quadrant in
	// point-of-view numbering.
	homeStart = 18
	// primeLength is the shortest run of own points that counts as a closed prime.
	primeLength = 6
	// blackOffset rotates raw indices into Black's point of view.
	blackOffset = 12
)

// Board holds checker positions for both players.
//
// Slots are stored once, in raw board order: positive values are white
// checkers and negative values black checkers. Each player reads and writes
// the board through its own point of view, where points 0-23 run in that
// player's direction of travel and 18-23 are home.
type Board struct {
	slots    [NumPoints]int
	whiteOff int
	blackOff int
}

// Position is a value snapshot of a board.
type Position struct {
	Slots    [NumPoints]int
	WhiteOff int
	BlackOff int
}

// NewBoard returns the starting layout: all white checkers on point 0 and
// all black checkers on point 12.
func NewBoard() *Board {
	b := &Board{}
	b.slots[0] = NumCheckers
	b.slots[blackOffset] = -NumCheckers
	return b
}

// NewBoardFromPosition builds a board from a snapshot, checking that every
// checker of both players is accounted for.
func NewBoardFromPosition(pos Position) (*Board, error) {
	if pos.WhiteOff < 0 || pos.WhiteOff > NumCheckers {
		return nil, fmt.Errorf("%w: white off count %d", ErrInvalidPosition, pos.WhiteOff)
	}
	if pos.BlackOff < 0 || pos.BlackOff > NumCheckers {
		return nil, fmt.Errorf("%w: black off count %d", ErrInvalidPosition, pos.BlackOff)
	}

	b := &Board{slots: pos.Slots, whiteOff: pos.WhiteOff, blackOff: pos.BlackOff}
	if n := b.CheckerCount(White) + pos.WhiteOff; n != NumCheckers {
		return nil, fmt.Errorf("%w: white has %d checkers, want %d", ErrInvalidPosition, n, NumCheckers)
	}
	if n := b.CheckerCount(Black) + pos.BlackOff; n != NumCheckers {
		return nil, fmt.Errorf("%w: black has %d checkers, want %d", ErrInvalidPosition, n, NumCheckers)
	}
	return b, nil
}

// povIndex maps between raw and point-of-view indices. It is its own inverse.
func povIndex(p Player, i int) int {
	if p == Black {
		return (i + blackOffset) % NumPoints
	}
	return i
}

// Slots returns the raw slot values.
func (b *Board) Slots() [NumPoints]int {
	return b.slots
}

// POVSlots returns the slot values as seen by p.
func (b *Board) POVSlots(p Player) [NumPoints]int {
	var view [NumPoints]int
	for i := range view {
		view[i] = b.slots[povIndex(p, i)]
	}
	return view
}

// WhiteOff is the number of white checkers borne off.
func (b *Board) WhiteOff() int { return b.whiteOff }

// BlackOff is the number of black checkers borne off.
func (b *Board) BlackOff() int { return b.blackOff }

// OffCount returns the number of checkers p has borne off.
func (b *Board) OffCount(p Player) int {
	if p == White {
		return b.whiteOff
	}
	return b.blackOff
}

// CheckerCount returns the number of checkers p has on the board.
func (b *Board) CheckerCount(p Player) int {
	n := 0
	for _, v := range b.slots {
		if IsPlayerCell(p, v) {
			n += v * p.sign()
		}
	}
	return n
}

// Position returns a snapshot of the board.
func (b *Board) Position() Position {
	return Position{Slots: b.slots, WhiteOff: b.whiteOff, BlackOff: b.blackOff}
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// IsPlayerCell reports whether a slot value holds checkers of p.
func IsPlayerCell(p Player, value int) bool {
	if value == 0 {
		return false
	}
	return (p == White && value > 0) || (p == Black && value < 0)
}

// IsOffPossible reports whether all of p's remaining checkers are home.
func (b *Board) IsOffPossible(p Player) bool {
	for i := 0; i < homeStart; i++ {
		if IsPlayerCell(p, b.slots[povIndex(p, i)]) {
			return false
		}
	}
	return true
}

// ValidMoves returns the legal single-checker moves for p with the pending
// dice. Bear-off moves, when any exist, replace the regular moves entirely.
func (b *Board) ValidMoves(p Player, dice []int) []Move {
	view := b.POVSlots(p)

	var moves []Move
	for i, v := range view {
		if !IsPlayerCell(p, v) {
			continue
		}
		for _, d := range dice {
			dst := i + d
			if dst >= NumPoints {
				continue
			}
			if view[dst] != 0 && !IsPlayerCell(p, view[dst]) {
				continue
			}
			if isUnacceptableMars(view, p, i, dst) {
				continue
			}
			moves = appendUnique(moves, TravelMove(i, dst))
		}
	}

	if !b.IsOffPossible(p) {
		return moves
	}

	var offMoves []Move
	for i := homeStart; i < NumPoints; i++ {
		if !IsPlayerCell(p, view[i]) {
			continue
		}
		for _, d := range dice {
			// Without any regular move, a home checker may use any die.
			if 6-(i-homeStart) == d || len(moves) == 0 {
				offMoves = appendUnique(offMoves, BearOffMove(i))
			}
		}
	}

	if len(offMoves) > 0 {
		return offMoves
	}
	return moves
}

// isUnacceptableMars reports whether moving a checker from src to dst in
// view builds a prime of six or more points that leaves the opponent no
// checker in front of it.
func isUnacceptableMars(view [NumPoints]int, p Player, src, dst int) bool {
	after := view
	after[src] -= p.sign()
	after[dst] += p.sign()

	opp := p.Opponent()
	run := 0
	for i, v := range after {
		if !IsPlayerCell(p, v) {
			run = 0
			continue
		}
		run++
		if run < primeLength {
			continue
		}
		if i <= 12 && !hasChecker(after[:13], opp) {
			return true
		}
		if i >= 13 && !hasChecker(after[14:], opp) && !hasChecker(after[:13], opp) {
			return true
		}
	}
	return false
}

func hasChecker(slots []int, p Player) bool {
	return slices.ContainsFunc(slots, func(v int) bool { return IsPlayerCell(p, v) })
}

func appendUnique(moves []Move, m Move) []Move {
	if slices.Contains(moves, m) {
		return moves
	}
	return append(moves, m)
}

// AddMove applies m for p. Bear-off moves are delegated to Off.
func (b *Board) AddMove(p Player, m Move) error {
	if m.Kind == BearOff {
		return b.Off(p, m.Source)
	}
	if err := b.checkSource(p, m.Source); err != nil {
		return err
	}
	if m.Destination < 0 || m.Destination >= NumPoints {
		return fmt.Errorf("%w: destination %d out of range", ErrIllegalMove, m.Destination)
	}
	src, dst := povIndex(p, m.Source), povIndex(p, m.Destination)
	if b.slots[dst] != 0 && !IsPlayerCell(p, b.slots[dst]) {
		return fmt.Errorf("%w: point %d is held by %s", ErrIllegalMove, m.Destination, p.Opponent())
	}

	b.slots[src] -= p.sign()
	b.slots[dst] += p.sign()
	return nil
}

// Off removes one of p's checkers from source and counts it as borne off.
func (b *Board) Off(p Player, source int) error {
	if !b.IsOffPossible(p) {
		return ErrCheckersOutsideHome
	}
	if err := b.checkSource(p, source); err != nil {
		return err
	}

	b.slots[povIndex(p, source)] -= p.sign()
	if p == White {
		b.whiteOff++
	} else {
		b.blackOff++
	}
	return nil
}

func (b *Board) checkSource(p Player, source int) error {
	if source < 0 || source >= NumPoints {
		return fmt.Errorf("%w: source %d out of range", ErrIllegalMove, source)
	}
	if !IsPlayerCell(p, b.slots[povIndex(p, source)]) {
		return fmt.Errorf("%w: no %s checker on point %d", ErrIllegalMove, p, source)
	}
	return nil
}
