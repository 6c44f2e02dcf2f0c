package machine

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMachineBootState(t *testing.T) {
	m := NewMachine()
	require.Equal(t, uint64(RAMStart), m.PC())
	require.False(t, m.Halted())
	require.False(t, m.Yielded())
	require.Equal(t, uint64(0), m.Mcycle())
	require.Equal(t, mvendoridInit, m.ReadWord(shadowMvendorid))
	require.Equal(t, misaInit, m.ReadWord(shadowMisa))

	require.Equal(t, uint64(RAMStart)|pmaMFlag, m.ReadWord(shadowPmaIstartAddr(2)))
	require.Equal(t, uint64(DefaultRAMSize), m.ReadWord(shadowPmaIlengthAddr(2)))
	require.Equal(t, pmaEFlag, m.ReadWord(shadowPmaIstartAddr(3)), "board terminator")
}

func TestMachineSnapshotRoundTrip(t *testing.T) {
	m := newTestMachine(t, append([]uint32{addi(1, 0, 1)}, haltSequence()...)...)
	m.Run(2)
	root := m.MerkleRoot()

	enc, err := json.Marshal(m)
	require.NoError(t, err)
	var restored Machine
	require.NoError(t, json.Unmarshal(enc, &restored))
	require.Equal(t, root, restored.MerkleRoot())
	require.Equal(t, m.PC(), restored.PC())
	require.Equal(t, m.Mcycle(), restored.Mcycle())

	var buf bytes.Buffer
	require.NoError(t, m.Serialize(&buf))
	restored = Machine{}
	require.NoError(t, restored.Deserialize(&buf))
	require.Equal(t, root, restored.MerkleRoot())
}

func TestStepLogShape(t *testing.T) {
	m := newTestMachine(t, addi(1, 0, 42))
	log, err := m.Step()
	require.NoError(t, err)

	require.Equal(t, Log2RootSize, log.Log2RootSize)
	require.Equal(t, Log2WordSize, log.Log2WordSize)
	require.NotEmpty(t, log.Accesses)
	first := log.Accesses[0]
	require.Equal(t, AccessRead, first.Type)
	require.Equal(t, uint64(ShadowIflagsAddr), uint64(first.Address), "every cycle opens with the halt/yield check")

	var sawRegisterWrite bool
	for _, acc := range log.Accesses {
		require.Equal(t, Log2WordSize, acc.Log2Size)
		if acc.Type == AccessWrite && uint64(acc.Address) == shadowXAddr(1) {
			sawRegisterWrite = true
			require.Equal(t, uint64(42), uint64(acc.WrittenValue))
		}
	}
	require.True(t, sawRegisterWrite, "the addi result write must be logged")
}

func TestStepOfHaltedMachine(t *testing.T) {
	m := NewMachine()
	m.WriteWord(shadowIflags, m.ReadWord(shadowIflags)|IflagsH)
	root := m.MerkleRoot()
	log, err := m.Step()
	require.NoError(t, err)
	require.Len(t, log.Accesses, 1, "only the iflags read")
	require.Equal(t, root, m.MerkleRoot())
}

func TestLogReset(t *testing.T) {
	m := newTestMachine(t, append([]uint32{addi(1, 0, 7)}, haltSequence()...)...)
	m.Run(100)
	require.True(t, m.Halted())

	log, err := m.LogReset()
	require.NoError(t, err)
	require.NotEmpty(t, log.Accesses)
	for _, acc := range log.Accesses {
		require.Equal(t, AccessWrite, acc.Type)
		require.Equal(t, uint64(0), uint64(acc.WrittenValue))
	}
	require.Equal(t, pristineRoot(t), m.MerkleRoot(), "a reset log leaves the pristine state behind")
	require.False(t, m.Halted())
}

func TestSendCmioResponse(t *testing.T) {
	m := NewMachine()
	require.ErrorIs(t, m.SendCmioResponse(1, []byte("data")), ErrNotYielded)

	m.WriteWord(shadowIflags, m.ReadWord(shadowIflags)|IflagsY)
	data := []byte("hello cmio response")
	require.NoError(t, m.SendCmioResponse(7, data))

	require.False(t, m.Yielded())
	require.Equal(t, uint64(7)<<32|uint64(len(data)), m.ReadWord(shadowHtifFromhost))
	var word [8]byte
	copy(word[:], data)
	require.Equal(t, binary.LittleEndian.Uint64(word[:]), m.ReadWord(CmioRxBufferStart))
}

func TestStepEquivalence(t *testing.T) {
	body := []uint32{
		addi(1, 0, 3),
		addi(2, 0, 4),
		add(3, 1, 2),
		sd(3, 0, 0x700),
		ld(4, 0, 0x700),
	}
	direct := newTestMachine(t, append(body, haltSequence()...)...)
	var buf bytes.Buffer
	require.NoError(t, direct.Serialize(&buf))
	logged := &Machine{}
	require.NoError(t, logged.Deserialize(&buf))

	for !direct.Halted() {
		direct.Run(direct.Mcycle() + 1)
		_, err := logged.Step()
		require.NoError(t, err)
		require.Equal(t, direct.MerkleRoot(), logged.MerkleRoot(),
			"direct and logged execution must agree at cycle %d", direct.Mcycle())
	}
	require.True(t, logged.Halted())
}
