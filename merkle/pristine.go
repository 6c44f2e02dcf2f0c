package merkle

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// PristineHashes holds the hashes of all-zero subtrees for every size between
// the word and the root. Since a pristine subtree of height h+1 is two
// pristine subtrees of height h side by side, the table is built bottom-up by
// doubling: hashes[i+1] = HashPair(hashes[i], hashes[i]).
//
// The table is immutable after construction and safe for concurrent readers.
type PristineHashes struct {
	log2RootSize int
	log2WordSize int
	hashes       []common.Hash
}

// NewPristineHashes precomputes pristine subtree hashes for sizes
// log2WordSize..log2RootSize inclusive.
func NewPristineHashes(log2RootSize, log2WordSize int) (*PristineHashes, error) {
	if log2RootSize < 0 {
		return nil, fmt.Errorf("%w: log2RootSize is negative", ErrOutOfRange)
	}
	if log2WordSize < 0 {
		return nil, fmt.Errorf("%w: log2WordSize is negative", ErrOutOfRange)
	}
	if log2WordSize > log2RootSize {
		return nil, fmt.Errorf("%w: log2WordSize is greater than log2RootSize", ErrOutOfRange)
	}
	p := &PristineHashes{
		log2RootSize: log2RootSize,
		log2WordSize: log2WordSize,
		hashes:       make([]common.Hash, log2RootSize-log2WordSize+1),
	}
	word := make([]byte, 1<<log2WordSize)
	p.hashes[0] = HashData(word)
	for i := 1; i < len(p.hashes); i++ {
		p.hashes[i] = HashPair(p.hashes[i-1], p.hashes[i-1])
	}
	return p, nil
}

// Hash returns the hash of the pristine subtree spanning 2^log2Size bytes.
// log2Size must be in [log2WordSize, log2RootSize]; anything else is a
// programmer error.
func (p *PristineHashes) Hash(log2Size int) common.Hash {
	if log2Size < p.log2WordSize || log2Size > p.log2RootSize {
		panic(fmt.Sprintf("pristine hash request for log2Size %d outside [%d, %d]",
			log2Size, p.log2WordSize, p.log2RootSize))
	}
	return p.hashes[log2Size-p.log2WordSize]
}

// Log2RootSize returns the largest size the table covers.
func (p *PristineHashes) Log2RootSize() int { return p.log2RootSize }

// Log2WordSize returns the smallest size the table covers.
func (p *PristineHashes) Log2WordSize() int { return p.log2WordSize }

var pristineCache sync.Map // [2]int{log2RootSize, log2WordSize} -> *PristineHashes

// SharedPristineHashes returns a process-wide table for the given parameter
// pair, building it on first use. Tables are immutable, so sharing is safe.
func SharedPristineHashes(log2RootSize, log2WordSize int) (*PristineHashes, error) {
	key := [2]int{log2RootSize, log2WordSize}
	if v, ok := pristineCache.Load(key); ok {
		return v.(*PristineHashes), nil
	}
	p, err := NewPristineHashes(log2RootSize, log2WordSize)
	if err != nil {
		return nil, err
	}
	v, _ := pristineCache.LoadOrStore(key, p)
	return v.(*PristineHashes), nil
}
