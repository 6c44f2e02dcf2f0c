package machine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/W3W-EdU/machine-emulator/merkle"
)

// AccessType distinguishes logged reads from logged writes.
type AccessType string

const (
	AccessRead  AccessType = "read"
	AccessWrite AccessType = "write"
)

// Access records one word-granularity state access. ReadValue always holds
// the pre-access word; WrittenValue is meaningful for writes only. The proof
// is rooted at the machine root as it stood immediately before the access,
// so its siblings also suffice to recompute the root after a write.
type Access struct {
	Type         AccessType     `json:"type"`
	Address      hexutil.Uint64 `json:"address"`
	Log2Size     int            `json:"log2_size"`
	ReadValue    hexutil.Uint64 `json:"read_value"`
	WrittenValue hexutil.Uint64 `json:"written_value,omitempty"`
	Proof        merkle.Proof   `json:"proof"`
}

// AccessLog is the ordered record of every state access one step performed.
// It is sealed when the step returns and consumed once by a verifier.
type AccessLog struct {
	Log2RootSize int      `json:"log2_root_size"`
	Log2WordSize int      `json:"log2_word_size"`
	Accesses     []Access `json:"accesses"`
}

// NewAccessLog returns an empty log carrying the machine tree parameters.
func NewAccessLog() *AccessLog {
	return &AccessLog{
		Log2RootSize: Log2RootSize,
		Log2WordSize: Log2WordSize,
	}
}

func hexU64(v uint64) hexutil.Uint64 { return hexutil.Uint64(v) }

// replay re-checks a freshly produced log against the roots it claims to
// connect: every record's proof must be rooted at the running root, verify on
// its own, and bind its read value; writes advance the running root through
// the recorded siblings. A failure here means the logging access produced a
// log that does not witness its own transition.
func (l *AccessLog) replay(preRoot, postRoot common.Hash) error {
	current := preRoot
	for i := range l.Accesses {
		acc := &l.Accesses[i]
		proof := &acc.Proof
		if proof.RootHash != current {
			return fmt.Errorf("access %d was proven against root %s, running root is %s", i, proof.RootHash, current)
		}
		if !proof.Verify() {
			return fmt.Errorf("access %d carries a proof that does not verify", i)
		}
		if proof.TargetHash != merkle.HashWord(uint64(acc.ReadValue)) {
			return fmt.Errorf("access %d read value %#x does not hash to the proof target", i, uint64(acc.ReadValue))
		}
		if acc.Type == AccessWrite {
			current = proof.RootAfterReplace(merkle.HashWord(uint64(acc.WrittenValue)))
		}
	}
	if current != postRoot {
		return fmt.Errorf("replayed root %s does not match the post root %s", current, postRoot)
	}
	return nil
}
