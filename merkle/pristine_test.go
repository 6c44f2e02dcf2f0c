package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPristineDoubling(t *testing.T) {
	p, err := NewPristineHashes(16, 3)
	require.NoError(t, err)
	require.Equal(t, HashData(make([]byte, 8)), p.Hash(3), "base is the zero word hash")
	for h := 3; h < 16; h++ {
		require.Equal(t, HashPair(p.Hash(h), p.Hash(h)), p.Hash(h+1), "doubling at height %d", h)
	}
}

func TestPristineBounds(t *testing.T) {
	p, err := NewPristineHashes(8, 3)
	require.NoError(t, err)
	require.Panics(t, func() { p.Hash(2) })
	require.Panics(t, func() { p.Hash(9) })
}

func TestPristineConstruction(t *testing.T) {
	_, err := NewPristineHashes(-1, 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewPristineHashes(3, -1)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewPristineHashes(3, 4)
	require.ErrorIs(t, err, ErrOutOfRange)

	p, err := NewPristineHashes(0, 0)
	require.NoError(t, err)
	require.Equal(t, HashData([]byte{0}), p.Hash(0), "single zero byte")
}

func TestPristineShared(t *testing.T) {
	a, err := SharedPristineHashes(32, 3)
	require.NoError(t, err)
	b, err := SharedPristineHashes(32, 3)
	require.NoError(t, err)
	require.Same(t, a, b, "same parameter pair must share one table")
	c, err := SharedPristineHashes(32, 5)
	require.NoError(t, err)
	require.NotSame(t, a, c)
}
