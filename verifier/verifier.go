// Package verifier replays access logs against claimed state roots. It holds
// no machine state: each record carries enough sibling hashes to check the
// access against the current root and, for writes, to fold the written value
// into the next root. Verification is pure and deterministic.
package verifier

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/W3W-EdU/machine-emulator/machine"
	"github.com/W3W-EdU/machine-emulator/merkle"
)

// VerifyStepLog checks a log structurally: schema parameters, proof shapes,
// per-record proof validity, the binding of each proof to its read value, and
// the internal chaining of roots from one record to the next. The pre root is
// taken from the first record; use VerifyStepTransition to pin both ends.
func VerifyStepLog(log *machine.AccessLog) error {
	if len(log.Accesses) == 0 {
		return checkSchema(log)
	}
	_, err := replay(log, log.Accesses[0].Proof.RootHash)
	return err
}

// VerifyStepTransition checks that the log is a witness of the transition
// from preRoot to postRoot.
func VerifyStepTransition(preRoot common.Hash, log *machine.AccessLog, postRoot common.Hash) error {
	current, err := replay(log, preRoot)
	if err != nil {
		return err
	}
	if current != postRoot {
		return errAt(KindRootMismatch, -1, "replayed root %s does not match claimed post root %s", current, postRoot)
	}
	return nil
}

func checkSchema(log *machine.AccessLog) error {
	if log.Log2RootSize != machine.Log2RootSize || log.Log2WordSize != machine.Log2WordSize {
		return errAt(KindSchemaMismatch, -1, "log parameters (%d, %d) disagree with machine parameters (%d, %d)",
			log.Log2RootSize, log.Log2WordSize, machine.Log2RootSize, machine.Log2WordSize)
	}
	return nil
}

// replay runs the core loop: every record's proof must be rooted at the
// current root, verify on its own, and bind the claimed read value; every
// write advances the current root by refolding the written word through the
// same siblings.
func replay(log *machine.AccessLog, preRoot common.Hash) (common.Hash, error) {
	if err := checkSchema(log); err != nil {
		return common.Hash{}, err
	}
	current := preRoot
	for i := range log.Accesses {
		acc := &log.Accesses[i]
		proof := &acc.Proof
		if acc.Log2Size != log.Log2WordSize {
			return common.Hash{}, errAt(KindSchemaMismatch, i, "access is not word sized")
		}
		if proof.Log2RootSize != log.Log2RootSize || proof.Log2TargetSize != log.Log2WordSize {
			return common.Hash{}, errAt(KindSchemaMismatch, i, "proof parameters disagree with log parameters")
		}
		if len(proof.Siblings) != proof.Log2RootSize-proof.Log2TargetSize {
			return common.Hash{}, errAt(KindSchemaMismatch, i, "proof has %d siblings, want %d",
				len(proof.Siblings), proof.Log2RootSize-proof.Log2TargetSize)
		}
		if uint64(acc.Address)&(machine.WordSize-1) != 0 {
			return common.Hash{}, errAt(KindSchemaMismatch, i, "address %#x is not word-aligned", uint64(acc.Address))
		}
		if proof.TargetAddress != uint64(acc.Address) {
			return common.Hash{}, errAt(KindSchemaMismatch, i, "proof target %#x disagrees with access address %#x",
				proof.TargetAddress, uint64(acc.Address))
		}
		if proof.RootHash != current {
			return common.Hash{}, errAt(KindRootMismatch, i, "access was proven against root %s, current root is %s",
				proof.RootHash, current)
		}
		if !proof.Verify() {
			return common.Hash{}, errAt(KindInvalidProof, i, "siblings do not fold to the proof root")
		}
		if proof.TargetHash != merkle.HashWord(uint64(acc.ReadValue)) {
			return common.Hash{}, errAt(KindValueMismatch, i, "read value %#x does not hash to the proof target",
				uint64(acc.ReadValue))
		}
		switch acc.Type {
		case machine.AccessRead:
			// nothing changes
		case machine.AccessWrite:
			current = proof.RootAfterReplace(merkle.HashWord(uint64(acc.WrittenValue)))
		default:
			return common.Hash{}, errAt(KindShapeMismatch, i, "unknown access type %q", acc.Type)
		}
	}
	return current, nil
}
