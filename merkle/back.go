package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BackTree is an append-only Merkle accumulator over a fixed-height tree.
// Leaves are pushed back one at a time; positions not yet filled count as
// pristine subtrees. Only O(depth) state is kept: context[i] holds the root
// of the most recent completed subtree of height i that is still waiting for
// a right sibling, one live entry per set bit of leafCount. The array behaves
// exactly like a binary adder's carry chain.
type BackTree struct {
	log2RootSize int
	log2LeafSize int
	log2WordSize int
	leafCount    uint64
	maxLeaves    uint64
	context      []common.Hash
	pristine     *PristineHashes
}

// NewBackTree constructs an empty accumulator for a tree spanning
// 2^log2RootSize bytes with leaves of 2^log2LeafSize bytes, hashed from words
// of 2^log2WordSize bytes.
func NewBackTree(log2RootSize, log2LeafSize, log2WordSize int) (*BackTree, error) {
	if log2RootSize < 0 {
		return nil, fmt.Errorf("%w: log2RootSize is negative", ErrOutOfRange)
	}
	if log2LeafSize < 0 {
		return nil, fmt.Errorf("%w: log2LeafSize is negative", ErrOutOfRange)
	}
	if log2WordSize < 0 {
		return nil, fmt.Errorf("%w: log2WordSize is negative", ErrOutOfRange)
	}
	if log2LeafSize > log2RootSize {
		return nil, fmt.Errorf("%w: log2LeafSize is greater than log2RootSize", ErrOutOfRange)
	}
	if log2WordSize > log2LeafSize {
		return nil, fmt.Errorf("%w: log2WordSize is greater than log2LeafSize", ErrOutOfRange)
	}
	if log2RootSize >= 64 {
		return nil, fmt.Errorf("%w: tree is too large for the address word", ErrOutOfRange)
	}
	pristine, err := SharedPristineHashes(log2RootSize, log2WordSize)
	if err != nil {
		return nil, err
	}
	depth := log2RootSize - log2LeafSize
	return &BackTree{
		log2RootSize: log2RootSize,
		log2LeafSize: log2LeafSize,
		log2WordSize: log2WordSize,
		maxLeaves:    1 << uint(depth),
		context:      make([]common.Hash, depth+1),
		pristine:     pristine,
	}, nil
}

// LeafCount returns the number of leaves appended so far.
func (t *BackTree) LeafCount() uint64 { return t.leafCount }

// MaxLeaves returns the number of leaves the tree can hold.
func (t *BackTree) MaxLeaves() uint64 { return t.maxLeaves }

// PushBack appends one leaf hash. Completed subtrees carry up the context
// array: at each height where leafCount has a set bit, the stored left
// sibling combines with the incoming right subtree and the carry continues;
// at the first clear bit the accumulated subtree parks and the scan stops.
func (t *BackTree) PushBack(leaf common.Hash) error {
	if t.leafCount >= t.maxLeaves {
		return fmt.Errorf("%w: too many leaves", ErrTreeFull)
	}
	right := leaf
	depth := t.log2RootSize - t.log2LeafSize
	for i := 0; i <= depth; i++ {
		if t.leafCount&(1<<uint(i)) != 0 {
			right = HashPair(t.context[i], right)
		} else {
			t.context[i] = right
			break
		}
	}
	t.leafCount++
	return nil
}

// RootHash returns the root of the tree as if all unfilled positions held
// pristine subtrees.
func (t *BackTree) RootHash() common.Hash {
	depth := t.log2RootSize - t.log2LeafSize
	if t.leafCount == t.maxLeaves {
		return t.context[depth]
	}
	root := t.pristine.Hash(t.log2LeafSize)
	for i := 0; i < depth; i++ {
		if t.leafCount&(1<<uint(i)) != 0 {
			root = HashPair(t.context[i], root)
		} else {
			root = HashPair(root, t.pristine.Hash(t.log2LeafSize+i))
		}
	}
	return root
}

// NextLeafProof returns the inclusion proof for the position the next
// PushBack will fill. Its target is the pristine leaf, so the proof doubles
// as a witness of what the tree currently holds at that position.
func (t *BackTree) NextLeafProof() (*Proof, error) {
	if t.leafCount >= t.maxLeaves {
		return nil, fmt.Errorf("%w: tree is full", ErrTreeFull)
	}
	proof, err := NewProof(t.log2RootSize, t.log2LeafSize)
	if err != nil {
		return nil, err
	}
	proof.TargetAddress = t.leafCount << uint(t.log2LeafSize)
	proof.TargetHash = t.pristine.Hash(t.log2LeafSize)
	hash := proof.TargetHash
	depth := t.log2RootSize - t.log2LeafSize
	for i := 0; i < depth; i++ {
		if t.leafCount&(1<<uint(i)) != 0 {
			left := t.context[i]
			proof.SetSiblingHash(left, t.log2LeafSize+i)
			hash = HashPair(left, hash)
		} else {
			right := t.pristine.Hash(t.log2LeafSize + i)
			proof.SetSiblingHash(right, t.log2LeafSize+i)
			hash = HashPair(hash, right)
		}
	}
	proof.RootHash = hash
	if !proof.Verify() {
		panic("back tree produced an invalid next-leaf proof")
	}
	return proof, nil
}
