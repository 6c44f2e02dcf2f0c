package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Proof is an inclusion proof for the node spanning 2^Log2TargetSize bytes at
// TargetAddress in a tree spanning 2^Log2RootSize bytes. Siblings holds the
// hash of the subtree sibling at every level on the path from the target up
// to the root, nearest sibling first.
//
// A proof is a value: once filled in it is never mutated, only copied.
type Proof struct {
	TargetAddress  uint64        `json:"target_address"`
	Log2TargetSize int           `json:"log2_target_size"`
	TargetHash     common.Hash   `json:"target_hash"`
	Log2RootSize   int           `json:"log2_root_size"`
	RootHash       common.Hash   `json:"root_hash"`
	Siblings       []common.Hash `json:"sibling_hashes"`
}

// NewProof allocates room for the sibling hashes of a proof with the given
// shape.
func NewProof(log2RootSize, log2TargetSize int) (*Proof, error) {
	if log2RootSize <= 0 {
		return nil, fmt.Errorf("%w: log2RootSize is not positive", ErrOutOfRange)
	}
	if log2TargetSize < 0 {
		return nil, fmt.Errorf("%w: log2TargetSize is negative", ErrOutOfRange)
	}
	if log2TargetSize > log2RootSize {
		return nil, fmt.Errorf("%w: log2TargetSize is greater than log2RootSize", ErrOutOfRange)
	}
	return &Proof{
		Log2TargetSize: log2TargetSize,
		Log2RootSize:   log2RootSize,
		Siblings:       make([]common.Hash, log2RootSize-log2TargetSize),
	}, nil
}

func (p *Proof) siblingIndex(log2Size int) int {
	index := log2Size - p.Log2TargetSize
	if index < 0 || index >= len(p.Siblings) {
		panic(fmt.Sprintf("sibling log2Size %d outside [%d, %d)", log2Size, p.Log2TargetSize, p.Log2RootSize))
	}
	return index
}

// SiblingHash returns the sibling subtree hash at the level spanning
// 2^log2Size bytes. Valid levels are log2TargetSize..log2RootSize-1.
func (p *Proof) SiblingHash(log2Size int) common.Hash {
	return p.Siblings[p.siblingIndex(log2Size)]
}

// SetSiblingHash records the sibling subtree hash at the level spanning
// 2^log2Size bytes.
func (p *Proof) SetSiblingHash(h common.Hash, log2Size int) {
	p.Siblings[p.siblingIndex(log2Size)] = h
}

// RootAfterReplace folds an alternative target hash up through the proof's
// siblings and returns the root that results. The bits of
// TargetAddress >> Log2TargetSize select, per level, whether the sibling sits
// to the left or to the right.
func (p *Proof) RootAfterReplace(target common.Hash) common.Hash {
	h := target
	path := p.TargetAddress >> uint(p.Log2TargetSize)
	for i := range p.Siblings {
		if path&1 != 0 {
			h = HashPair(p.Siblings[i], h)
		} else {
			h = HashPair(h, p.Siblings[i])
		}
		path >>= 1
	}
	return h
}

// Verify refolds the target hash through the siblings and compares the result
// against the claimed root hash.
func (p *Proof) Verify() bool {
	if len(p.Siblings) != p.Log2RootSize-p.Log2TargetSize {
		return false
	}
	return p.RootAfterReplace(p.TargetHash) == p.RootHash
}
