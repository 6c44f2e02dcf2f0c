package machine

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/W3W-EdU/machine-emulator/merkle"
)

// ErrNotYielded is returned when a cmio response is sent to a machine whose
// yield flag is not raised.
var ErrNotYielded = errors.New("iflags.Y is not set")

// sendCmioResponse deposits a response into the cmio rx buffer of a yielded
// machine, announces it through htif.fromhost as reason<<32|length, and
// lowers the yield flag. Like the interpreter body, the function is
// instantiated over both state accesses.
func sendCmioResponse[A StateAccess](a A, reason uint16, data []byte) error {
	iflags := a.ReadIflags()
	if iflags&IflagsY == 0 {
		return ErrNotYielded
	}
	if uint64(len(data)) > 1<<CmioRxBufferLog2Size {
		return fmt.Errorf("%w: response of %d bytes exceeds the rx buffer", merkle.ErrOutOfRange, len(data))
	}
	for i := 0; i < len(data); i += WordSize {
		var word [WordSize]byte
		copy(word[:], data[i:])
		a.WriteMemoryWord(CmioRxBufferStart+uint64(i), binary.LittleEndian.Uint64(word[:]))
	}
	a.WriteHtifFromhost(uint64(reason)<<32 | uint64(len(data)))
	a.WriteIflags(iflags &^ IflagsY)
	return nil
}

// SendCmioResponse feeds a response to a yielded machine directly.
func (m *Machine) SendCmioResponse(reason uint16, data []byte) error {
	return sendCmioResponse(NewDirectAccess(m), reason, data)
}

// LogSendCmioResponse feeds a response to a yielded machine through the
// logging access and returns the access log witnessing it. Like Step, the
// log is replayed before it is returned.
func (m *Machine) LogSendCmioResponse(reason uint16, data []byte) (*AccessLog, error) {
	pre := m.tree.MerkleRoot()
	a := NewLoggedAccess(m)
	if err := sendCmioResponse(a, reason, data); err != nil {
		return nil, err
	}
	log := a.Log()
	if err := log.replay(pre, m.tree.MerkleRoot()); err != nil {
		return nil, fmt.Errorf("cmio response produced an access log that does not replay: %w", err)
	}
	return log, nil
}
