package merkle

import "errors"

var (
	// ErrTreeFull is returned when appending to, or requesting the next-leaf
	// proof of, a tree that already holds its maximum number of leaves.
	ErrTreeFull = errors.New("tree is full")

	// ErrOutOfRange is returned for negative or inconsistent size parameters
	// at construction time, and for addresses or sizes that fall outside what
	// a tree or buffer covers (misaligned words, out-of-bounds nodes).
	ErrOutOfRange = errors.New("size parameter out of range")
)
