package machine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"

	"github.com/W3W-EdU/machine-emulator/merkle"
)

// Machine is one exclusively-owned RISC-V machine state. All execution and
// attestation goes through it: Run drives the direct interpreter, Step the
// logging one.
type Machine struct {
	tree *StateTree
}

// NewMachine returns a machine at its boot state: pc at the start of RAM,
// machine privilege, and the PMA board describing the fixed memory map.
func NewMachine() *Machine {
	m := &Machine{tree: NewStateTree()}
	t := m.tree
	t.WriteWord(shadowPC, RAMStart)
	t.WriteWord(shadowMvendorid, mvendoridInit)
	t.WriteWord(shadowMarchid, marchidInit)
	t.WriteWord(shadowMimpid, mimpidInit)
	t.WriteWord(shadowMisa, misaInit)
	t.WriteWord(shadowIflags, uint64(PrvM)<<IflagsPrvShift)
	t.WriteWord(shadowIlrsc, ^uint64(0))

	setPma := func(i int, start, length, flags uint64) {
		t.WriteWord(shadowPmaIstartAddr(i), start|flags)
		t.WriteWord(shadowPmaIlengthAddr(i), length)
	}
	setPma(0, 0, ShadowSize, pmaMFlag)
	setPma(1, CmioRxBufferStart, 1<<CmioRxBufferLog2Size, pmaMFlag)
	setPma(2, RAMStart, DefaultRAMSize, pmaMFlag)
	setPma(3, 0, 0, pmaEFlag) // board terminator
	return m
}

// MerkleRoot returns the current state root.
func (m *Machine) MerkleRoot() common.Hash {
	return m.tree.MerkleRoot()
}

// WordProof returns the word-granularity inclusion proof for an aligned
// address against the current state root.
func (m *Machine) WordProof(addr uint64) (*merkle.Proof, error) {
	return m.tree.WordProof(addr)
}

// ReadWord peeks one aligned state word without going through a state access.
func (m *Machine) ReadWord(addr uint64) uint64 {
	return m.tree.ReadWord(addr)
}

// WriteWord pokes one aligned state word without going through a state
// access. Meant for tooling and test setup, not for emulation.
func (m *Machine) WriteWord(addr uint64, v uint64) {
	m.tree.WriteWord(addr, v)
}

// PC returns the current program counter.
func (m *Machine) PC() uint64 { return m.tree.ReadWord(shadowPC) }

// Mcycle returns the cycle counter.
func (m *Machine) Mcycle() uint64 { return m.tree.ReadWord(shadowMcycle) }

// Minstret returns the retired-instruction counter.
func (m *Machine) Minstret() uint64 { return m.tree.ReadWord(shadowMinstret) }

// Halted reports whether the halt flag is set.
func (m *Machine) Halted() bool { return m.tree.ReadWord(shadowIflags)&IflagsH != 0 }

// Yielded reports whether the machine yielded and is waiting for a cmio
// response.
func (m *Machine) Yielded() bool { return m.tree.ReadWord(shadowIflags)&IflagsY != 0 }

// Instr returns the instruction the pc currently points at.
func (m *Machine) Instr() uint32 {
	w := m.tree.ReadWord(m.PC() &^ uint64(WordAddrMask))
	if m.PC()&4 != 0 {
		return uint32(w >> 32)
	}
	return uint32(w)
}

// Usage renders the allocated memory footprint for logging.
func (m *Machine) Usage() string { return m.tree.Usage() }

// PageCount returns the number of allocated state pages.
func (m *Machine) PageCount() int { return m.tree.PageCount() }

// LoadProgram copies a raw program image to the start of RAM.
func (m *Machine) LoadProgram(program []byte) error {
	if uint64(len(program)) > DefaultRAMSize {
		return fmt.Errorf("program of %d bytes exceeds RAM size", len(program))
	}
	return m.tree.SetRange(RAMStart, bytes.NewReader(program))
}

// SetRange copies raw bytes into the state space. Meant for machine setup.
func (m *Machine) SetRange(addr uint64, r io.Reader) error {
	return m.tree.SetRange(addr, r)
}

// ReadRange streams count bytes of the state space starting at addr.
func (m *Machine) ReadRange(addr uint64, count uint64) io.Reader {
	return m.tree.ReadRange(addr, count)
}

// Run drives the direct interpreter until the machine halts, yields, or the
// cycle counter reaches mcycleEnd.
func (m *Machine) Run(mcycleEnd uint64) {
	a := NewDirectAccess(m)
	for {
		iflags := m.tree.ReadWord(shadowIflags)
		if iflags&(IflagsH|IflagsY) != 0 {
			return
		}
		if m.tree.ReadWord(shadowMcycle) >= mcycleEnd {
			return
		}
		RunCycle(a)
	}
}

// Step advances the machine exactly one cycle through the logging state
// access and returns the sealed access log witnessing the transition. The
// log is replayed against the pre and post roots before it is returned; a
// failure means the logging access itself is broken.
func (m *Machine) Step() (*AccessLog, error) {
	pre := m.MerkleRoot()
	a := NewLoggedAccess(m)
	RunCycle(a)
	log := a.Log()
	if err := log.replay(pre, m.MerkleRoot()); err != nil {
		return nil, fmt.Errorf("step produced an access log that does not replay: %w", err)
	}
	return log, nil
}

type machineJSON struct {
	Pages *StateTree `json:"pages"`
}

func (m *Machine) MarshalJSON() ([]byte, error) {
	return json.Marshal(machineJSON{Pages: m.tree})
}

func (m *Machine) UnmarshalJSON(data []byte) error {
	tree := NewStateTree()
	if err := json.Unmarshal(data, &machineJSON{Pages: tree}); err != nil {
		return err
	}
	m.tree = tree
	return nil
}

// Serialize writes the machine state in the binary page format.
func (m *Machine) Serialize(out io.Writer) error {
	return m.tree.Serialize(out)
}

// Deserialize replaces the machine state with the serialized one.
func (m *Machine) Deserialize(in io.Reader) error {
	tree := NewStateTree()
	if err := tree.Deserialize(in); err != nil {
		return err
	}
	m.tree = tree
	return nil
}
