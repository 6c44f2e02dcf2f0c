package merkle

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// FullTree materializes every node of a fixed-height tree. It is the
// reference the incremental structures are checked against, and it can
// produce an inclusion proof for any node at any granularity between leaf
// and root.
type FullTree struct {
	log2RootSize int
	log2LeafSize int
	maxLeaves    uint64
	// nodes in heap order: index 1 is the root, children of i are 2i, 2i+1
	tree []common.Hash
}

// NewFullTree builds a tree over the given consecutive leaf hashes, padding
// the remaining positions with pristine subtrees.
func NewFullTree(log2RootSize, log2LeafSize, log2WordSize int, leaves []common.Hash) (*FullTree, error) {
	if log2RootSize < 0 || log2LeafSize < 0 || log2WordSize < 0 ||
		log2LeafSize > log2RootSize || log2WordSize > log2LeafSize {
		return nil, fmt.Errorf("%w: inconsistent full tree sizes", ErrOutOfRange)
	}
	if log2RootSize >= 64 {
		return nil, fmt.Errorf("%w: tree is too large for the address word", ErrOutOfRange)
	}
	pristine, err := SharedPristineHashes(log2RootSize, log2WordSize)
	if err != nil {
		return nil, err
	}
	depth := log2RootSize - log2LeafSize
	maxLeaves := uint64(1) << uint(depth)
	if uint64(len(leaves)) > maxLeaves {
		return nil, fmt.Errorf("%w: too many leaves", ErrTreeFull)
	}
	t := &FullTree{
		log2RootSize: log2RootSize,
		log2LeafSize: log2LeafSize,
		maxLeaves:    maxLeaves,
		tree:         make([]common.Hash, 2*maxLeaves),
	}
	// leaf row
	pristineLeaf := pristine.Hash(log2LeafSize)
	for i := uint64(0); i < maxLeaves; i++ {
		if i < uint64(len(leaves)) {
			t.tree[maxLeaves+i] = leaves[i]
		} else {
			t.tree[maxLeaves+i] = pristineLeaf
		}
	}
	// inner rows, bottom-up
	for i := maxLeaves - 1; i >= 1; i-- {
		t.tree[i] = HashPair(t.tree[2*i], t.tree[2*i+1])
	}
	return t, nil
}

// RootHash returns the root of the tree.
func (t *FullTree) RootHash() common.Hash {
	return t.tree[1]
}

// NodeHash returns the hash of the node spanning 2^log2Size bytes at the
// given address.
func (t *FullTree) NodeHash(address uint64, log2Size int) (common.Hash, error) {
	i, err := t.nodeIndex(address, log2Size)
	if err != nil {
		return common.Hash{}, err
	}
	return t.tree[i], nil
}

// Proof returns the inclusion proof for the node spanning 2^log2Size bytes at
// the given address.
func (t *FullTree) Proof(address uint64, log2Size int) (*Proof, error) {
	proof, err := NewProof(t.log2RootSize, log2Size)
	if err != nil {
		return nil, err
	}
	target, err := t.NodeHash(address, log2Size)
	if err != nil {
		return nil, err
	}
	proof.TargetAddress = address
	proof.TargetHash = target
	proof.RootHash = t.RootHash()
	for s := log2Size; s < t.log2RootSize; s++ {
		i, err := t.nodeIndex(address, s)
		if err != nil {
			return nil, err
		}
		proof.SetSiblingHash(t.tree[i^1], s)
	}
	if !proof.Verify() {
		panic("full tree produced an invalid proof")
	}
	return proof, nil
}

// nodeIndex maps (address, log2Size) to heap order. Nodes smaller than a leaf
// do not exist in the materialized tree.
func (t *FullTree) nodeIndex(address uint64, log2Size int) (uint64, error) {
	if log2Size < t.log2LeafSize || log2Size > t.log2RootSize {
		return 0, fmt.Errorf("%w: log2Size is out of bounds", ErrOutOfRange)
	}
	position := address >> uint(log2Size)
	row := uint64(1) << uint(t.log2RootSize-log2Size)
	if position >= row {
		return 0, fmt.Errorf("%w: address is out of bounds", ErrOutOfRange)
	}
	return row + position, nil
}
