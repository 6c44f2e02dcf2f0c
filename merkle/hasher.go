package merkle

import (
	"encoding/binary"
	"reflect"
	"sync"
	_ "unsafe" // we use go:linkname

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// HashSize is the byte width of every node hash in the tree.
const HashSize = common.HashLength

type keccakState struct {
	a [25]uint64 // main state of the hash
	// and other fields, unimportant
}

//go:noescape
//go:linkname keccakReset golang.org/x/crypto/sha3.(*state).Reset
func keccakReset(st *keccakState)

//go:noescape
//go:linkname keccakWrite golang.org/x/crypto/sha3.(*state).Write
func keccakWrite(st *keccakState, p []byte) (n int, err error)

//go:noescape
//go:linkname keccakRead golang.org/x/crypto/sha3.(*state).Read
func keccakRead(st *keccakState, out []byte) (n int, err error)

// hasher access where the call arguments do not escape to the heap
var hasher = (*keccakState)(reflect.ValueOf(sha3.NewLegacyKeccak256()).UnsafePointer())
var hasherMu sync.Mutex

// HashPair returns keccak256(left ++ right), the inner-node combining hash.
func HashPair(left, right common.Hash) (out common.Hash) {
	hasherMu.Lock()
	keccakReset(hasher)
	_, _ = keccakWrite(hasher, left[:])
	_, _ = keccakWrite(hasher, right[:])
	_, _ = keccakRead(hasher, out[:])
	hasherMu.Unlock()
	return
}

// HashData returns keccak256(data), used to hash raw leaf and word contents.
func HashData(data []byte) (out common.Hash) {
	hasherMu.Lock()
	keccakReset(hasher)
	_, _ = keccakWrite(hasher, data)
	_, _ = keccakRead(hasher, out[:])
	hasherMu.Unlock()
	return
}

// HashWord returns the leaf hash of a single 64-bit machine word,
// in its little-endian memory representation.
func HashWord(v uint64) common.Hash {
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], v)
	return HashData(word[:])
}
