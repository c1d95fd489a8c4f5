package nard

import (
	"golang.org/x/exp/rand"

	"github.com/yourusername/nardengine/internal/random"
)

// Source supplies uniformly distributed integers in [0, n).
// *rand.Rand from golang.org/x/exp/rand satisfies it.
type Source interface {
	Intn(n int) int
}

// NewSource returns a deterministic dice source for seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewSource(seed))
}

func newDefaultSource() Source {
	return NewSource(random.MustSeed())
}

func rollDie(src Source) int {
	return src.Intn(6) + 1
}

// rollPair rolls two dice without expanding doubles.
func rollPair(src Source) []int {
	return []int{rollDie(src), rollDie(src)}
}

// rollTurn rolls the dice for a new turn. A double yields four moves.
func rollTurn(src Source) []int {
	dice := rollPair(src)
	if dice[0] == dice[1] {
		return append(dice, dice[0], dice[0])
	}
	return dice
}
