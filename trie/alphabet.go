package trie

import (
	"github.com/pkg/errors"
)

const (
	// unknownIndex marks a character that has not been observed yet.
	unknownIndex = 255
	// maxAlphabetSize leaves unknownIndex available as a sentinel.
	maxAlphabetSize = 255
)

// alphabet is an ordered, growing injection between 8-bit characters
// and small indices. fromIndex holds the characters in index order,
// toIndex holds the index at each character's position, with
// unknownIndex for characters that have not been observed.
type alphabet struct {
	fromIndex [256]byte
	toIndex   [256]uint8
	size      int
}

func (a *alphabet) init(seed string) error {
	for i := range a.toIndex {
		a.toIndex[i] = unknownIndex
	}
	for i := 0; i < len(seed); i++ {
		c := seed[i]
		if c >= 128 {
			return errors.Wrapf(ErrBadInput, "alphabet character %q is not ASCII", c)
		}
		if a.toIndex[c] != unknownIndex {
			return errors.Wrapf(ErrBadInput, "alphabet character %q is repeated", c)
		}
		if a.size >= maxAlphabetSize {
			return ErrAlphabetFull
		}
		a.toIndex[c] = uint8(a.size)
		a.fromIndex[a.size] = c
		a.size++
	}
	return nil
}

// grow assigns the next free index to c. c must not be present yet.
func (a *alphabet) grow(c byte) (uint8, error) {
	if a.size >= maxAlphabetSize {
		return unknownIndex, ErrAlphabetFull
	}
	i := uint8(a.size)
	a.toIndex[c] = i
	a.fromIndex[i] = c
	a.size++
	return i, nil
}

// String returns the alphabet characters in index order.
func (a *alphabet) String() string {
	return string(a.fromIndex[:a.size])
}
