// Package random provides seed generation for the pseudo-random sources used
// to roll dice.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"time"
)

// NewSeed generates a seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// MustSeed returns a crypto/rand seed, falling back to the wall clock if the
// system entropy source is unavailable.
func MustSeed() uint64 {
	seed, err := NewSeed()
	if err != nil {
		return uint64(time.Now().UnixNano())
	}
	return seed
}
