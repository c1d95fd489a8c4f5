package nard

import (
	"fmt"
	"slices"
)

// Game sequences turns, dice and moves over a single Board.
//
// A Game is not safe for concurrent use.
type Game struct {
	board   *Board
	state   State
	turn    Player
	dice    []int
	outcome *Outcome
	src     Source
}

type gameOptions struct {
	first *Player
	src   Source
	board *Board
}

// Option configures a new Game.
type Option func(*gameOptions)

// WithFirstPlayer starts the game with p on turn, skipping the first roll.
func WithFirstPlayer(p Player) Option {
	return func(o *gameOptions) { o.first = &p }
}

// WithSource sets the dice source. The default is seeded from crypto/rand.
func WithSource(src Source) Option {
	return func(o *gameOptions) { o.src = src }
}

// WithBoard starts the game from a copy of b instead of the initial layout.
func WithBoard(b *Board) Option {
	return func(o *gameOptions) { o.board = b.Clone() }
}

// NewGame creates a game. Without WithFirstPlayer it starts in FirstRoll;
// with it, it starts in Playing with the opening dice already rolled.
func NewGame(opts ...Option) *Game {
	var o gameOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.src == nil {
		o.src = newDefaultSource()
	}
	if o.board == nil {
		o.board = NewBoard()
	}

	g := &Game{board: o.board, state: FirstRoll, src: o.src}
	if o.first != nil {
		g.turn = *o.first
		g.state = Playing
		g.dice = rollPair(g.src)
	}
	return g
}

// State returns the lifecycle state.
func (g *Game) State() State { return g.state }

// Turn returns the player on turn. It is meaningless before the first roll.
func (g *Game) Turn() Player { return g.turn }

// Dice returns a copy of the pending dice.
func (g *Game) Dice() []int { return slices.Clone(g.dice) }

// Outcome returns the result of an ended game, or nil.
func (g *Game) Outcome() *Outcome {
	if g.outcome == nil {
		return nil
	}
	o := *g.outcome
	return &o
}

// Board returns a copy of the current board.
func (g *Game) Board() *Board { return g.board.Clone() }

// FirstRoll rolls one die for each player until they differ. The higher
// roller starts and both dice become the opening roll.
func (g *Game) FirstRoll() (Player, error) {
	if g.state != FirstRoll {
		return 0, ErrNotFirstRoll
	}

	var white, black int
	for {
		white, black = rollDie(g.src), rollDie(g.src)
		if white != black {
			break
		}
	}

	g.dice = []int{white, black}
	if white > black {
		g.turn = White
	} else {
		g.turn = Black
	}
	g.state = Playing
	return g.turn, nil
}

// ValidMoves returns the legal moves for the player on turn.
func (g *Game) ValidMoves() ([]Move, error) {
	return g.ValidMovesFor(g.turn)
}

// ValidMovesFor returns the legal moves for p with the pending dice.
func (g *Game) ValidMovesFor(p Player) ([]Move, error) {
	if g.state != Playing {
		return nil, fmt.Errorf("%w: %s", ErrWrongState, g.state)
	}
	if len(g.dice) == 0 {
		return nil, ErrNoDice
	}
	return g.board.ValidMoves(p, g.dice), nil
}

// PlayMove applies m for the player on turn and consumes the die it used.
// When the last die is used the turn passes and new dice are rolled.
func (g *Game) PlayMove(m Move) error {
	moves, err := g.ValidMoves()
	if err != nil {
		return err
	}
	if !slices.Contains(moves, m) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	switch m.Kind {
	case Travel:
		if err := g.board.AddMove(g.turn, m); err != nil {
			return err
		}
		g.removeDie(m.Distance())
	case BearOff:
		if err := g.board.Off(g.turn, m.Source); err != nil {
			return err
		}
		g.removeBearOffDie(m.Source)
	default:
		return fmt.Errorf("%w: unknown move kind %d", ErrIllegalMove, m.Kind)
	}

	if len(g.dice) == 0 {
		g.nextTurn()
	}

	switch {
	case g.board.WhiteOff() == NumCheckers:
		g.outcome = &Outcome{Winner: White}
	case g.board.BlackOff() == NumCheckers:
		g.outcome = &Outcome{Winner: Black}
	}
	if g.outcome != nil {
		g.state = Ended
	}
	return nil
}

// Skip passes the turn when the player on turn has no legal move.
func (g *Game) Skip() error {
	moves, err := g.ValidMoves()
	if err != nil {
		return err
	}
	if len(moves) > 0 {
		return ErrSkipUnavailable
	}
	g.nextTurn()
	return nil
}

func (g *Game) nextTurn() {
	g.turn = g.turn.Opponent()
	g.dice = rollTurn(g.src)
}

func (g *Game) removeDie(d int) bool {
	i := slices.Index(g.dice, d)
	if i < 0 {
		return false
	}
	g.dice = slices.Delete(g.dice, i, i+1)
	return true
}

// removeBearOffDie credits a bear-off from source against the smallest die
// that covers it. A bear-off allowed without a covering die uses the
// largest pending die.
func (g *Game) removeBearOffDie(source int) {
	for d := NumPoints - source; d <= 6; d++ {
		if g.removeDie(d) {
			return
		}
	}
	if len(g.dice) > 0 {
		g.removeDie(slices.Max(g.dice))
	}
}
