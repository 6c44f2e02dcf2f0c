package machine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/W3W-EdU/machine-emulator/merkle"
)

const (
	Log2PageSize = 12
	PageSize     = 1 << Log2PageSize
	PageAddrMask = PageSize - 1

	Log2WordSize = 3
	WordSize     = 1 << Log2WordSize
	WordAddrMask = WordSize - 1

	pageWords = PageSize / WordSize
)

type Page [PageSize]byte

// CachedPage pairs the raw page bytes with the Merkle subtree over its words.
// Nodes are stored in heap order: index 1 is the page root, and the word
// hashes occupy pageWords..2*pageWords-1. A write invalidates only the path
// from the touched word to the page root.
type CachedPage struct {
	Data  *Page
	cache [2 * pageWords]common.Hash
	ok    [2 * pageWords]bool
}

func newCachedPage() *CachedPage {
	return &CachedPage{Data: new(Page)}
}

// invalidate drops the cached hashes on the path from the word containing
// pageAddr up to the page root.
func (p *CachedPage) invalidate(pageAddr uint64) {
	for g := pageWords + (pageAddr >> Log2WordSize); g > 0; g >>= 1 {
		p.ok[g] = false
	}
}

func (p *CachedPage) invalidateFull() {
	p.ok = [2 * pageWords]bool{}
}

func (p *CachedPage) merkleizeSubtree(gindex uint64) common.Hash {
	if p.ok[gindex] {
		return p.cache[gindex]
	}
	var h common.Hash
	if gindex >= pageWords {
		i := (gindex - pageWords) * WordSize
		h = merkle.HashData(p.Data[i : i+WordSize])
	} else {
		h = merkle.HashPair(p.merkleizeSubtree(2*gindex), p.merkleizeSubtree(2*gindex+1))
	}
	p.cache[gindex] = h
	p.ok[gindex] = true
	return h
}

// MerkleRoot returns the hash of the page's word subtree.
func (p *CachedPage) MerkleRoot() common.Hash {
	return p.merkleizeSubtree(1)
}

// rootValid reports whether the page root is still cached; when it is not,
// the tree above the page is stale too.
func (p *CachedPage) rootValid() bool {
	return p.ok[1]
}
