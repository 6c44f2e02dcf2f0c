package machine

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/bits"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/W3W-EdU/machine-emulator/merkle"
)

const (
	Log2RootSize = 64
	pageKeySize  = Log2RootSize - Log2PageSize
)

// StateTree is the machine-state address space with its Merkle tree. Pages
// are allocated on first write; everything untouched hashes as pristine. The
// tree above the pages is a lazily merkleized node cache keyed by generalized
// index: entry missing means the whole subtree is pristine, a nil entry means
// the subtree holds data but its hash is stale, a non-nil entry is a valid
// cached hash. A single word write therefore invalidates one path and a
// re-merkleization re-hashes at most Log2RootSize-Log2WordSize nodes.
type StateTree struct {
	pages map[uint64]*CachedPage
	nodes map[uint64]*common.Hash

	// two entry cache against repeated page lookups: the interpreter tends to
	// fetch instructions from one page and do data accesses on another
	lastPageKeys [2]uint64
	lastPage     [2]*CachedPage

	pristine *merkle.PristineHashes
}

// NewStateTree returns an all-pristine state space.
func NewStateTree() *StateTree {
	pristine, err := merkle.SharedPristineHashes(Log2RootSize, Log2WordSize)
	if err != nil {
		panic(err) // fixed machine parameters are always valid
	}
	return &StateTree{
		pages:        make(map[uint64]*CachedPage),
		nodes:        make(map[uint64]*common.Hash),
		lastPageKeys: [2]uint64{^uint64(0), ^uint64(0)}, // default to invalid keys, to not match any pages
		pristine:     pristine,
	}
}

func (t *StateTree) pageLookup(pageIndex uint64) (*CachedPage, bool) {
	// hit caches
	if pageIndex == t.lastPageKeys[0] {
		return t.lastPage[0], true
	}
	if pageIndex == t.lastPageKeys[1] {
		return t.lastPage[1], true
	}
	p, ok := t.pages[pageIndex]

	// only cache existing pages
	if ok {
		t.lastPageKeys[1] = t.lastPageKeys[0]
		t.lastPage[1] = t.lastPage[0]
		t.lastPageKeys[0] = pageIndex
		t.lastPage[0] = p
	}

	return p, ok
}

func (t *StateTree) allocPage(pageIndex uint64) *CachedPage {
	p := newCachedPage()
	t.pages[pageIndex] = p
	for g := (uint64(1) << pageKeySize) | pageIndex; g > 0; g >>= 1 {
		t.nodes[g] = nil
	}
	return p
}

// invalidate marks the Merkle path containing addr stale.
func (t *StateTree) invalidate(addr uint64) {
	p, ok := t.pageLookup(addr >> Log2PageSize)
	if !ok {
		return // no page, nothing to invalidate
	}
	if !p.rootValid() {
		// the page root was already stale, so the path above it is too
		p.invalidate(addr & PageAddrMask)
		return
	}
	p.invalidate(addr & PageAddrMask)
	for g := (uint64(1) << pageKeySize) | (addr >> Log2PageSize); g > 0; g >>= 1 {
		t.nodes[g] = nil
	}
}

// ReadWord returns the word at the given word-aligned address. Unallocated
// space reads as zero.
func (t *StateTree) ReadWord(addr uint64) uint64 {
	if addr&WordAddrMask != 0 {
		panic(fmt.Sprintf("unaligned word read at %#x", addr))
	}
	p, ok := t.pageLookup(addr >> Log2PageSize)
	if !ok {
		return 0
	}
	pageAddr := addr & PageAddrMask
	return binary.LittleEndian.Uint64(p.Data[pageAddr : pageAddr+WordSize])
}

// WriteWord stores a word at the given word-aligned address, allocating the
// page if needed and staling the Merkle path.
func (t *StateTree) WriteWord(addr uint64, v uint64) {
	if addr&WordAddrMask != 0 {
		panic(fmt.Sprintf("unaligned word write at %#x", addr))
	}
	p, ok := t.pageLookup(addr >> Log2PageSize)
	if !ok {
		p = t.allocPage(addr >> Log2PageSize)
	}
	t.invalidate(addr)
	pageAddr := addr & PageAddrMask
	binary.LittleEndian.PutUint64(p.Data[pageAddr:pageAddr+WordSize], v)
}

// merkleizeSubtree hashes the tree above the pages. gindex 1 is the root;
// page pageIndex sits at (1<<pageKeySize)|pageIndex.
func (t *StateTree) merkleizeSubtree(gindex uint64) common.Hash {
	level := bits.Len64(gindex) - 1
	if level == pageKeySize {
		if _, ok := t.nodes[gindex]; !ok {
			return t.pristine.Hash(Log2PageSize)
		}
		p, ok := t.pageLookup(gindex &^ (uint64(1) << pageKeySize))
		if !ok {
			panic("upper tree entry without a backing page")
		}
		return p.MerkleRoot()
	}
	n, ok := t.nodes[gindex]
	if !ok {
		return t.pristine.Hash(Log2RootSize - level)
	}
	if n != nil {
		return *n
	}
	r := merkle.HashPair(t.merkleizeSubtree(2*gindex), t.merkleizeSubtree(2*gindex+1))
	t.nodes[gindex] = &r
	return r
}

// MerkleRoot returns the root hash of the whole state space.
func (t *StateTree) MerkleRoot() common.Hash {
	return t.merkleizeSubtree(1)
}

// WordProof produces the word-granularity inclusion proof for the word at the
// given aligned address, rooted at the current state root.
func (t *StateTree) WordProof(addr uint64) (*merkle.Proof, error) {
	if addr&WordAddrMask != 0 {
		return nil, fmt.Errorf("%w: address %#x is not word-aligned", merkle.ErrOutOfRange, addr)
	}
	proof, err := merkle.NewProof(Log2RootSize, Log2WordSize)
	if err != nil {
		return nil, err
	}
	proof.TargetAddress = addr

	pageIndex := addr >> Log2PageSize
	pageAddr := addr & PageAddrMask
	if p, ok := t.pageLookup(pageIndex); ok {
		proof.TargetHash = p.merkleizeSubtree(pageWords + (pageAddr >> Log2WordSize))
		for s := Log2WordSize; s < Log2PageSize; s++ {
			g := uint64(PageSize>>s) + (pageAddr >> s)
			proof.SetSiblingHash(p.merkleizeSubtree(g^1), s)
		}
	} else {
		proof.TargetHash = t.pristine.Hash(Log2WordSize)
		for s := Log2WordSize; s < Log2PageSize; s++ {
			proof.SetSiblingHash(t.pristine.Hash(s), s)
		}
	}

	g := (uint64(1) << pageKeySize) | pageIndex
	for s := Log2PageSize; s < Log2RootSize; s++ {
		proof.SetSiblingHash(t.merkleizeSubtree(g^1), s)
		g >>= 1
	}
	proof.RootHash = t.MerkleRoot()
	return proof, nil
}

// PageCount returns the number of allocated pages.
func (t *StateTree) PageCount() int {
	return len(t.pages)
}

// SetRange copies the reader's contents into the state space starting at
// addr, allocating pages along the way.
func (t *StateTree) SetRange(addr uint64, r io.Reader) error {
	for {
		pageIndex := addr >> Log2PageSize
		pageAddr := addr & PageAddrMask
		p, ok := t.pageLookup(pageIndex)
		if !ok {
			p = t.allocPage(pageIndex)
		} else {
			p.invalidateFull()
			for g := (uint64(1) << pageKeySize) | pageIndex; g > 0; g >>= 1 {
				t.nodes[g] = nil
			}
		}
		n, err := r.Read(p.Data[pageAddr:])
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		addr += uint64(n)
	}
}

type rangeReader struct {
	t     *StateTree
	addr  uint64
	count uint64
}

func (r *rangeReader) Read(dest []byte) (n int, err error) {
	if r.count == 0 {
		return 0, io.EOF
	}
	endAddr := r.addr + r.count

	pageIndex := r.addr >> Log2PageSize
	start := r.addr & PageAddrMask
	end := uint64(PageSize)
	if pageIndex == (endAddr >> Log2PageSize) {
		end = endAddr & PageAddrMask
	}
	p, ok := r.t.pageLookup(pageIndex)
	if ok {
		n = copy(dest, p.Data[start:end])
	} else {
		n = copy(dest, make([]byte, end-start)) // default to zeroes
	}
	r.addr += uint64(n)
	r.count -= uint64(n)
	return n, nil
}

// ReadRange streams count bytes of the state space starting at addr.
func (t *StateTree) ReadRange(addr uint64, count uint64) io.Reader {
	return &rangeReader{t: t, addr: addr, count: count}
}

type pageEntry struct {
	Index uint64 `json:"index"`
	Data  *Page  `json:"data"`
}

func (t *StateTree) MarshalJSON() ([]byte, error) {
	pages := make([]pageEntry, 0, len(t.pages))
	for k, p := range t.pages {
		pages = append(pages, pageEntry{Index: k, Data: p.Data})
	}
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Index < pages[j].Index
	})
	return json.Marshal(pages)
}

func (t *StateTree) UnmarshalJSON(data []byte) error {
	var pages []pageEntry
	if err := json.Unmarshal(data, &pages); err != nil {
		return err
	}
	t.pages = make(map[uint64]*CachedPage)
	t.nodes = make(map[uint64]*common.Hash)
	t.lastPageKeys = [2]uint64{^uint64(0), ^uint64(0)}
	t.lastPage = [2]*CachedPage{nil, nil}
	if t.pristine == nil {
		t.pristine, _ = merkle.SharedPristineHashes(Log2RootSize, Log2WordSize)
	}
	for i, p := range pages {
		if _, ok := t.pages[p.Index]; ok {
			return fmt.Errorf("cannot load duplicate page, entry %d, page index %d", i, p.Index)
		}
		t.allocPage(p.Index).Data = p.Data
	}
	return nil
}

// Serialize writes the state space in a simple binary format which can be
// read again using Deserialize. The format is a prefixed page count followed
// by (page index, page data) pairs in ascending index order, all big endian.
func (t *StateTree) Serialize(out io.Writer) error {
	if err := binary.Write(out, binary.BigEndian, uint64(t.PageCount())); err != nil {
		return err
	}
	indices := make([]uint64, 0, len(t.pages))
	for pageIndex := range t.pages {
		indices = append(indices, pageIndex)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for _, pageIndex := range indices {
		if err := binary.Write(out, binary.BigEndian, pageIndex); err != nil {
			return err
		}
		if _, err := out.Write(t.pages[pageIndex].Data[:]); err != nil {
			return err
		}
	}
	return nil
}

func (t *StateTree) Deserialize(in io.Reader) error {
	var pageCount uint64
	if err := binary.Read(in, binary.BigEndian, &pageCount); err != nil {
		return err
	}
	for i := uint64(0); i < pageCount; i++ {
		var pageIndex uint64
		if err := binary.Read(in, binary.BigEndian, &pageIndex); err != nil {
			return err
		}
		page := t.allocPage(pageIndex)
		if _, err := io.ReadFull(in, page.Data[:]); err != nil {
			return err
		}
	}
	return nil
}

// Usage renders the allocated page footprint for logging.
func (t *StateTree) Usage() string {
	total := uint64(len(t.pages)) * PageSize
	const unit = 1024
	if total < unit {
		return fmt.Sprintf("%d B", total)
	}
	div, exp := uint64(unit), 0
	for n := total / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	// KiB, MiB, GiB, TiB, ...
	return fmt.Sprintf("%.1f %ciB", float64(total)/float64(div), "KMGTPE"[exp])
}
