package nard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustBoard builds a board from raw slots, deriving off counts so that
// each side has fifteen checkers.
func mustBoard(t *testing.T, slots map[int]int) *Board {
	t.Helper()
	var pos Position
	for i, v := range slots {
		pos.Slots[i] = v
	}
	probe := &Board{slots: pos.Slots}
	pos.WhiteOff = NumCheckers - probe.CheckerCount(White)
	pos.BlackOff = NumCheckers - probe.CheckerCount(Black)
	b, err := NewBoardFromPosition(pos)
	require.NoError(t, err)
	return b
}

func requireConserved(t *testing.T, b *Board) {
	t.Helper()
	require.Equal(t, NumCheckers, b.CheckerCount(White)+b.WhiteOff(), "white checkers")
	require.Equal(t, NumCheckers, b.CheckerCount(Black)+b.BlackOff(), "black checkers")
}

func TestNewBoardLayout(t *testing.T) {
	b := NewBoard()
	slots := b.Slots()

	assert.Equal(t, 15, slots[0])
	assert.Equal(t, -15, slots[12])
	for i, v := range slots {
		if i != 0 && i != 12 {
			assert.Zero(t, v, "slot %d", i)
		}
	}
	assert.Zero(t, b.WhiteOff())
	assert.Zero(t, b.BlackOff())
	requireConserved(t, b)
}

func TestPOVIndexRoundTrip(t *testing.T) {
	for _, p := range []Player{White, Black} {
		for i := 0; i < NumPoints; i++ {
			assert.Equal(t, i, povIndex(p, povIndex(p, i)), "%s index %d", p, i)
		}
	}

	b := NewBoard()
	white := b.POVSlots(White)
	black := b.POVSlots(Black)
	assert.Equal(t, 15, white[0])
	assert.Equal(t, -15, black[0], "black sees its stack on its own point 0")
	assert.Equal(t, 15, black[12])
}

func TestIsPlayerCell(t *testing.T) {
	tests := []struct {
		player Player
		value  int
		want   bool
	}{
		{White, 3, true},
		{White, -3, false},
		{White, 0, false},
		{Black, -1, true},
		{Black, 1, false},
		{Black, 0, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, IsPlayerCell(tc.player, tc.value), "%s %d", tc.player, tc.value)
	}
}

func TestIsOffPossibleBoundary(t *testing.T) {
	home := mustBoard(t, map[int]int{18: 15, 13: -15})
	assert.True(t, home.IsOffPossible(White))

	oneOutside := mustBoard(t, map[int]int{18: 14, 17: 1, 13: -15})
	assert.False(t, oneOutside.IsOffPossible(White))

	// Black's home is raw 6-11.
	blackHome := mustBoard(t, map[int]int{6: -10, 11: -5, 0: 15})
	assert.True(t, blackHome.IsOffPossible(Black))
	assert.False(t, blackHome.IsOffPossible(White))

	blackOutside := mustBoard(t, map[int]int{5: -1, 6: -14, 0: 15})
	assert.False(t, blackOutside.IsOffPossible(Black))

	assert.False(t, NewBoard().IsOffPossible(White))
	assert.False(t, NewBoard().IsOffPossible(Black))
}

func TestValidMovesFromStart(t *testing.T) {
	b := NewBoard()

	moves := b.ValidMoves(White, []int{1, 2})
	assert.Equal(t, []Move{TravelMove(0, 1), TravelMove(0, 2)}, moves)

	moves = b.ValidMoves(Black, []int{3, 5})
	assert.Equal(t, []Move{TravelMove(0, 3), TravelMove(0, 5)}, moves)
}

func TestValidMovesDeduplicatesDoubles(t *testing.T) {
	moves := NewBoard().ValidMoves(White, []int{4, 4, 4, 4})
	assert.Equal(t, []Move{TravelMove(0, 4)}, moves)
}

func TestValidMovesIdempotent(t *testing.T) {
	b := mustBoard(t, map[int]int{0: 10, 3: 2, 7: 3, 12: -12, 16: -3})
	first := b.ValidMoves(White, []int{3, 5})
	second := b.ValidMoves(White, []int{3, 5})
	assert.Equal(t, first, second)
	assert.NotEmpty(t, first)
}

func TestValidMovesBlockedByOpponent(t *testing.T) {
	b := mustBoard(t, map[int]int{11: 15, 12: -15})
	assert.Empty(t, b.ValidMoves(White, []int{1}))
	assert.Equal(t, []Move{TravelMove(11, 13)}, b.ValidMoves(White, []int{2}))
}

func TestValidMovesPastLastPointDiscarded(t *testing.T) {
	b := mustBoard(t, map[int]int{0: 14, 22: 1, 12: -15})
	moves := b.ValidMoves(White, []int{3})
	assert.Equal(t, []Move{TravelMove(0, 3)}, moves)
}

func TestValidMovesUnacceptableMars(t *testing.T) {
	// White holds points 1-5 and 7; moving 1->6 would close 2-7 while all
	// black checkers sit beyond it.
	trapped := mustBoard(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 7: 10, 13: -15})
	moves := trapped.ValidMoves(White, []int{5, 1})
	assert.NotContains(t, moves, TravelMove(1, 6))
	assert.Contains(t, moves, TravelMove(1, 2))
	assert.Contains(t, moves, TravelMove(5, 6))

	// A black checker in front of the prime makes it acceptable.
	escape := mustBoard(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1, 5: 1, 7: 10, 10: -1, 13: -14})
	moves = escape.ValidMoves(White, []int{5, 1})
	assert.Contains(t, moves, TravelMove(1, 6))
	assert.NotContains(t, moves, TravelMove(5, 10), "point held by black")
}

func TestValidMovesUnacceptableMarsBlack(t *testing.T) {
	// Same trap seen from black: its points 1-5 and 7 are raw 13-17 and
	// 19, and every white checker sits on black's point 13 (raw 1).
	trapped := mustBoard(t, map[int]int{13: -1, 14: -1, 15: -1, 16: -1, 17: -1, 19: -10, 1: 15})
	require.Equal(t, -10, trapped.POVSlots(Black)[7])
	require.Equal(t, 15, trapped.POVSlots(Black)[13])

	moves := trapped.ValidMoves(Black, []int{5, 1})
	assert.NotContains(t, moves, TravelMove(1, 6))
	assert.Contains(t, moves, TravelMove(1, 2))
	assert.Contains(t, moves, TravelMove(5, 6))

	escape := mustBoard(t, map[int]int{13: -1, 14: -1, 15: -1, 16: -1, 17: -1, 19: -10, 22: 1, 1: 14})
	assert.Contains(t, escape.ValidMoves(Black, []int{5, 1}), TravelMove(1, 6))
}

func TestIsUnacceptableMarsLatePrime(t *testing.T) {
	// A prime reaching past point 13 is only illegal when black has no
	// checker on 0-12 nor on 14-23.
	view := [NumPoints]int{}
	view[0] = 9
	for i := 15; i <= 19; i++ {
		view[i] = 1
	}
	view[13] = -15
	assert.True(t, isUnacceptableMars(view, White, 0, 14))

	view[13] = -14
	view[22] = -1
	assert.False(t, isUnacceptableMars(view, White, 0, 14))
}

func TestValidMovesBearOffExact(t *testing.T) {
	b := mustBoard(t, map[int]int{20: 5, 21: 5, 23: 5, 13: -15})
	moves := b.ValidMoves(White, []int{3, 4})
	assert.ElementsMatch(t, []Move{BearOffMove(20), BearOffMove(21)}, moves)
}

func TestValidMovesBearOffPriority(t *testing.T) {
	// Regular moves exist, but an exact bear-off hides them.
	b := mustBoard(t, map[int]int{18: 14, 23: 1, 13: -15})
	moves := b.ValidMoves(White, []int{1, 2})
	assert.Equal(t, []Move{BearOffMove(23)}, moves)
}

func TestValidMovesBearOffFallback(t *testing.T) {
	// No exact die and no regular move: every home checker may bear off.
	b := mustBoard(t, map[int]int{22: 3, 23: 12, 13: -15})
	moves := b.ValidMoves(White, []int{3, 4})
	assert.Equal(t, []Move{BearOffMove(22), BearOffMove(23)}, moves)
}

func TestValidMovesBearOffFallsBackToRegular(t *testing.T) {
	// Dice too small to bear off from 18 leave only regular moves.
	b := mustBoard(t, map[int]int{18: 15, 13: -15})
	moves := b.ValidMoves(White, []int{2, 3})
	assert.Equal(t, []Move{TravelMove(18, 20), TravelMove(18, 21)}, moves)
}

func TestValidMovesNoDice(t *testing.T) {
	assert.Empty(t, NewBoard().ValidMoves(White, nil))
}

func TestAddMoveBlack(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.AddMove(Black, TravelMove(0, 3)))

	slots := b.Slots()
	assert.Equal(t, -14, slots[12])
	assert.Equal(t, -1, slots[15])
	assert.Equal(t, -1, b.POVSlots(Black)[3])
	requireConserved(t, b)
}

func TestAddMoveRejectsInvalid(t *testing.T) {
	b := NewBoard()
	before := b.Position()

	err := b.AddMove(White, TravelMove(5, 6))
	require.ErrorIs(t, err, ErrIllegalMove)

	err = b.AddMove(White, TravelMove(0, 12))
	require.ErrorIs(t, err, ErrIllegalMove)

	assert.Equal(t, before, b.Position())
}

func TestOff(t *testing.T) {
	b := NewBoard()
	before := b.Position()
	require.ErrorIs(t, b.Off(White, 0), ErrCheckersOutsideHome)
	assert.Equal(t, before, b.Position())

	home := mustBoard(t, map[int]int{6: -15, 22: 15})
	require.NoError(t, home.Off(Black, 18))
	assert.Equal(t, 1, home.BlackOff())
	assert.Equal(t, -14, home.Slots()[6])
	requireConserved(t, home)

	require.NoError(t, home.AddMove(White, BearOffMove(22)))
	assert.Equal(t, 1, home.WhiteOff())
	requireConserved(t, home)
}

func TestNewBoardFromPositionInvalid(t *testing.T) {
	var pos Position
	pos.Slots[0] = 14
	pos.Slots[12] = -15
	_, err := NewBoardFromPosition(pos)
	require.ErrorIs(t, err, ErrInvalidPosition)

	pos.Slots[0] = 15
	pos.BlackOff = 16
	_, err = NewBoardFromPosition(pos)
	require.ErrorIs(t, err, ErrInvalidPosition)

	pos.BlackOff = 0
	b, err := NewBoardFromPosition(pos)
	require.NoError(t, err)
	assert.Equal(t, NewBoard().Position(), b.Position())
}

func TestCloneIsIndependent(t *testing.T) {
	b := NewBoard()
	c := b.Clone()
	require.NoError(t, c.AddMove(White, TravelMove(0, 1)))
	assert.Equal(t, 15, b.Slots()[0])
	assert.Equal(t, 14, c.Slots()[0])
}
