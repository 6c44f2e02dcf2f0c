package machine

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Reset discards the whole machine state, leaving the pristine all-zero
// space. Note this is the zero state, not the boot state NewMachine builds.
func (m *Machine) Reset() {
	m.tree = NewStateTree()
}

// LogReset produces the access log of a reset step: one zeroing write for
// every word that currently holds data, in ascending address order. Replaying
// the log takes any state root to the pristine root. Like Step, the log is
// replayed before it is returned.
func (m *Machine) LogReset() (*AccessLog, error) {
	pre := m.tree.MerkleRoot()
	a := &LoggedAccess{tree: m.tree, log: NewAccessLog()}

	indices := make([]uint64, 0, len(m.tree.pages))
	for pageIndex := range m.tree.pages {
		indices = append(indices, pageIndex)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, pageIndex := range indices {
		p := m.tree.pages[pageIndex]
		base := pageIndex << Log2PageSize
		for w := uint64(0); w < pageWords; w++ {
			off := w * WordSize
			if binary.LittleEndian.Uint64(p.Data[off:off+WordSize]) != 0 {
				a.writeWord(base+off, 0)
			}
		}
	}
	log := a.Log()
	if err := log.replay(pre, m.tree.MerkleRoot()); err != nil {
		return nil, fmt.Errorf("reset produced an access log that does not replay: %w", err)
	}
	return log, nil
}
