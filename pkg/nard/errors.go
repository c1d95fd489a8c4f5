package nard

import "errors"

var (
	// ErrNotFirstRoll is returned by FirstRoll once the starting player is known.
	ErrNotFirstRoll = errors.New("the first roll has already been made")
	// ErrWrongState is returned when an operation is not allowed in the current state.
	ErrWrongState = errors.New("operation not allowed in current game state")
	// ErrNoDice is returned when no dice are pending.
	ErrNoDice = errors.New("dice are not rolled")
	// ErrIllegalMove is returned when a move is not in the legal move set.
	ErrIllegalMove = errors.New("move is not valid")
	// ErrCheckersOutsideHome is returned when bearing off with checkers outside home.
	ErrCheckersOutsideHome = errors.New("there are checkers that are not at home")
	// ErrSkipUnavailable is returned by Skip while a legal move exists.
	ErrSkipUnavailable = errors.New("skip is not available")
	// ErrInvalidPosition is returned for slot layouts that break checker conservation.
	ErrInvalidPosition = errors.New("invalid position")
)
