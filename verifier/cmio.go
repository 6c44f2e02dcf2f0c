package verifier

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"

	"github.com/W3W-EdU/machine-emulator/machine"
)

// VerifyCmioResponseTransition checks that the log is a witness of
// send_cmio_response with the given reason and data: after the yield-flag
// read, the writes deposit the data words into the rx buffer in ascending
// order, announce (reason, length) through htif.fromhost, and lower the
// yield flag. The replay must take preRoot to postRoot.
func VerifyCmioResponseTransition(reason uint16, data []byte, preRoot common.Hash, log *machine.AccessLog, postRoot common.Hash) error {
	dataWords := (len(data) + machine.WordSize - 1) / machine.WordSize
	wantRecords := 1 + dataWords + 2
	if len(log.Accesses) != wantRecords {
		return errAt(KindShapeMismatch, -1, "cmio log has %d records, want %d", len(log.Accesses), wantRecords)
	}

	head := &log.Accesses[0]
	if head.Type != machine.AccessRead || uint64(head.Address) != machine.ShadowIflagsAddr {
		return errAt(KindShapeMismatch, 0, "cmio logs start with the yield-flag read")
	}
	if uint64(head.ReadValue)&machine.IflagsY == 0 {
		return errAt(KindShapeMismatch, 0, "machine was not yielded")
	}

	for w := 0; w < dataWords; w++ {
		acc := &log.Accesses[1+w]
		var word [machine.WordSize]byte
		copy(word[:], data[w*machine.WordSize:])
		wantAddr := machine.CmioRxBufferStart + uint64(w*machine.WordSize)
		if acc.Type != machine.AccessWrite || uint64(acc.Address) != wantAddr {
			return errAt(KindShapeMismatch, 1+w, "expected a data write at %#x", wantAddr)
		}
		if uint64(acc.WrittenValue) != binary.LittleEndian.Uint64(word[:]) {
			return errAt(KindShapeMismatch, 1+w, "data write stores %#x, response holds %#x",
				uint64(acc.WrittenValue), binary.LittleEndian.Uint64(word[:]))
		}
	}

	fromhost := &log.Accesses[1+dataWords]
	wantYield := uint64(reason)<<32 | uint64(len(data))
	if fromhost.Type != machine.AccessWrite || uint64(fromhost.Address) != machine.ShadowHtifFromhostAddr {
		return errAt(KindShapeMismatch, 1+dataWords, "expected the fromhost announcement write")
	}
	if uint64(fromhost.WrittenValue) != wantYield {
		return errAt(KindShapeMismatch, 1+dataWords, "fromhost announces %#x, want %#x",
			uint64(fromhost.WrittenValue), wantYield)
	}

	last := &log.Accesses[len(log.Accesses)-1]
	if last.Type != machine.AccessWrite || uint64(last.Address) != machine.ShadowIflagsAddr {
		return errAt(KindShapeMismatch, len(log.Accesses)-1, "cmio logs end with the yield-flag write")
	}
	if uint64(last.WrittenValue) != uint64(last.ReadValue)&^machine.IflagsY {
		return errAt(KindShapeMismatch, len(log.Accesses)-1, "final write must only lower the yield flag")
	}

	return VerifyStepTransition(preRoot, log, postRoot)
}
