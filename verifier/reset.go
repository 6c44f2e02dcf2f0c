package verifier

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/W3W-EdU/machine-emulator/machine"
	"github.com/W3W-EdU/machine-emulator/merkle"
)

// VerifyResetTransition checks that the log is a witness of a reset: every
// record is a write clearing its word to zero, and replaying them takes
// preRoot to the pristine root, which must also be the claimed postRoot.
func VerifyResetTransition(preRoot common.Hash, log *machine.AccessLog, postRoot common.Hash) error {
	for i := range log.Accesses {
		acc := &log.Accesses[i]
		if acc.Type != machine.AccessWrite {
			return errAt(KindShapeMismatch, i, "reset logs contain only writes, found a %s", acc.Type)
		}
		if acc.WrittenValue != 0 {
			return errAt(KindShapeMismatch, i, "reset write stores %#x instead of zero", uint64(acc.WrittenValue))
		}
	}
	current, err := replay(log, preRoot)
	if err != nil {
		return err
	}
	pristine, err := merkle.SharedPristineHashes(machine.Log2RootSize, machine.Log2WordSize)
	if err != nil {
		return err
	}
	if current != pristine.Hash(machine.Log2RootSize) {
		return errAt(KindRootMismatch, -1, "replayed reset root %s is not the pristine root", current)
	}
	if current != postRoot {
		return errAt(KindRootMismatch, -1, "replayed root %s does not match claimed post root %s", current, postRoot)
	}
	return nil
}
