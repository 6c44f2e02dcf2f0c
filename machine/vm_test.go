package machine

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// Tiny assembler for the handful of encodings the tests exercise.

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return opcode | rd<<7 | funct3<<12 | rs1<<15 | rs2<<20 | funct7<<25
}

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return opcode | rd<<7 | funct3<<12 | rs1<<15 | uint32(imm&0xFFF)<<20
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	return opcode | uint32(imm&0x1F)<<7 | funct3<<12 | rs1<<15 | rs2<<20 | uint32((imm>>5)&0x7F)<<25
}

func encodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	return opcode | uint32((imm>>11)&1)<<7 | uint32((imm>>1)&0xF)<<8 | funct3<<12 |
		rs1<<15 | rs2<<20 | uint32((imm>>5)&0x3F)<<25 | uint32((imm>>12)&1)<<31
}

func encodeJ(opcode, rd uint32, imm int32) uint32 {
	return opcode | rd<<7 | uint32((imm>>12)&0xFF)<<12 | uint32((imm>>11)&1)<<20 |
		uint32((imm>>1)&0x3FF)<<21 | uint32((imm>>20)&1)<<31
}

func addi(rd, rs1 uint32, imm int32) uint32 { return encodeI(0x13, rd, 0, rs1, imm) }
func add(rd, rs1, rs2 uint32) uint32        { return encodeR(0x33, rd, 0, rs1, rs2, 0) }
func sub(rd, rs1, rs2 uint32) uint32        { return encodeR(0x33, rd, 0, rs1, rs2, 0x20) }
func mul(rd, rs1, rs2 uint32) uint32        { return encodeR(0x33, rd, 0, rs1, rs2, 1) }
func mulh(rd, rs1, rs2 uint32) uint32       { return encodeR(0x33, rd, 1, rs1, rs2, 1) }
func sd(rs2, rs1 uint32, imm int32) uint32  { return encodeS(0x23, 3, rs1, rs2, imm) }
func sw(rs2, rs1 uint32, imm int32) uint32  { return encodeS(0x23, 2, rs1, rs2, imm) }
func sb(rs2, rs1 uint32, imm int32) uint32  { return encodeS(0x23, 0, rs1, rs2, imm) }
func ld(rd, rs1 uint32, imm int32) uint32   { return encodeI(0x03, rd, 3, rs1, imm) }
func lw(rd, rs1 uint32, imm int32) uint32   { return encodeI(0x03, rd, 2, rs1, imm) }
func lbu(rd, rs1 uint32, imm int32) uint32  { return encodeI(0x03, rd, 4, rs1, imm) }
func beq(rs1, rs2 uint32, imm int32) uint32 { return encodeB(0x63, 0, rs1, rs2, imm) }
func bne(rs1, rs2 uint32, imm int32) uint32 { return encodeB(0x63, 1, rs1, rs2, imm) }
func jal(rd uint32, imm int32) uint32       { return encodeJ(0x6F, rd, imm) }
func csrrs(rd, csr, rs1 uint32) uint32      { return encodeI(0x73, rd, 2, rs1, int32(csr)) }
func csrrw(rd, csr, rs1 uint32) uint32      { return encodeI(0x73, rd, 1, rs1, int32(csr)) }

func program(instrs ...uint32) []byte {
	var buf bytes.Buffer
	for _, ins := range instrs {
		_ = binary.Write(&buf, binary.LittleEndian, ins)
	}
	return buf.Bytes()
}

// haltSequence stores a halt request into htif.tohost through x30/x31.
func haltSequence() []uint32 {
	return []uint32{
		addi(30, 0, shadowHtifTohost), // x30 = &tohost
		addi(31, 0, 1),                // halt device 0, cmd 0, data 1
		sd(31, 30, 0),
	}
}

func newTestMachine(t *testing.T, instrs ...uint32) *Machine {
	t.Helper()
	m := NewMachine()
	require.NoError(t, m.LoadProgram(program(instrs...)))
	return m
}

func TestRunArithmetic(t *testing.T) {
	body := []uint32{
		addi(1, 0, 42),
		addi(2, 0, -7),
		add(3, 1, 2),  // x3 = 35
		sub(4, 1, 2),  // x4 = 49
		mul(5, 1, 2),  // x5 = -294
		mulh(6, 1, 2), // x6 = -1 (upper bits of a small negative product)
	}
	m := newTestMachine(t, append(body, haltSequence()...)...)
	m.Run(1000)

	require.True(t, m.Halted())
	require.Equal(t, uint64(42), m.ReadWord(shadowXAddr(1)))
	require.Equal(t, ^uint64(6), m.ReadWord(shadowXAddr(2)))
	require.Equal(t, uint64(35), m.ReadWord(shadowXAddr(3)))
	require.Equal(t, uint64(49), m.ReadWord(shadowXAddr(4)))
	require.Equal(t, ^uint64(293), m.ReadWord(shadowXAddr(5)))
	require.Equal(t, ^uint64(0), m.ReadWord(shadowXAddr(6)))
	require.Equal(t, uint64(len(body)+3), m.Mcycle())
	require.Equal(t, m.Mcycle(), m.Minstret())
}

func TestRunMemoryAndBranches(t *testing.T) {
	body := []uint32{
		addi(10, 0, 1),
		encodeI(0x13, 10, 1, 10, 31), // slli x10, x10, 31 -> x10 = RAMStart
		addi(11, 0, 0x123),
		sd(11, 10, 0x400),
		ld(12, 10, 0x400), // x12 = 0x123
		bne(11, 12, 12),   // not taken
		sb(11, 10, 0x408), // low byte only
		lbu(13, 10, 0x408),
		sw(11, 10, 0x410),
		lw(14, 10, 0x410),
	}
	m := newTestMachine(t, append(body, haltSequence()...)...)
	m.Run(1000)

	require.True(t, m.Halted())
	require.Equal(t, uint64(RAMStart), m.ReadWord(shadowXAddr(10)))
	require.Equal(t, uint64(0x123), m.ReadWord(shadowXAddr(12)))
	require.Equal(t, uint64(0x23), m.ReadWord(shadowXAddr(13)))
	require.Equal(t, uint64(0x123), m.ReadWord(shadowXAddr(14)))
	require.Equal(t, uint64(0x123), m.ReadWord(RAMStart+0x400))
}

func TestRunBranchAndJump(t *testing.T) {
	body := []uint32{
		addi(1, 0, 5),
		addi(2, 0, 5),
		beq(1, 2, 8),  // skip the next instruction
		addi(3, 0, 1), // must not execute
		jal(4, 8),     // skip the next instruction, link in x4
		addi(3, 0, 2), // must not execute
	}
	m := newTestMachine(t, append(body, haltSequence()...)...)
	m.Run(1000)

	require.True(t, m.Halted())
	require.Equal(t, uint64(0), m.ReadWord(shadowXAddr(3)))
	require.Equal(t, uint64(RAMStart)+5*4, m.ReadWord(shadowXAddr(4)), "jal links the fallthrough pc")
}

func TestRunCSR(t *testing.T) {
	body := []uint32{
		addi(1, 0, 0x77),
		csrrw(0, csrMscratch, 1), // mscratch = 0x77
		csrrs(2, csrMscratch, 0), // x2 = mscratch
		csrrs(3, csrMcycle, 0),   // x3 = mcycle at cycle 3
	}
	m := newTestMachine(t, append(body, haltSequence()...)...)
	m.Run(1000)

	require.True(t, m.Halted())
	require.Equal(t, uint64(0x77), m.ReadWord(shadowMscratch))
	require.Equal(t, uint64(0x77), m.ReadWord(shadowXAddr(2)))
	require.Equal(t, uint64(3), m.ReadWord(shadowXAddr(3)))
}

func TestIllegalInstructionTraps(t *testing.T) {
	m := newTestMachine(t, 0xFFFF_FFFF)
	m.WriteWord(shadowMtvec, RAMStart+0x100)
	a := NewDirectAccess(m)
	RunCycle(a)

	require.Equal(t, uint64(causeIllegalInstruction), m.ReadWord(shadowMcause))
	require.Equal(t, uint64(RAMStart), m.ReadWord(shadowMepc))
	require.Equal(t, uint64(RAMStart+0x100), m.PC())
	require.Equal(t, uint64(1), m.Mcycle())
	require.Equal(t, uint64(0), m.Minstret(), "trapped instructions do not retire")
}

func TestEcallTraps(t *testing.T) {
	m := newTestMachine(t, encodeI(0x73, 0, 0, 0, 0)) // ECALL
	m.WriteWord(shadowMtvec, RAMStart+0x40)
	m.Run(1)

	require.Equal(t, uint64(causeEcallFromU+PrvM), m.ReadWord(shadowMcause))
	require.Equal(t, uint64(RAMStart+0x40), m.PC())
}

func TestAmoOperations(t *testing.T) {
	body := []uint32{
		addi(10, 0, 1),
		encodeI(0x13, 10, 1, 10, 31), // x10 = RAMStart
		addi(1, 0, 100),
		sd(1, 10, 0x500),
		addi(2, 0, 23),
		// amoadd.d x3, x2, (x10+0x500) requires the address in rs1 itself
		addi(11, 10, 0x500),
		encodeR(0x2F, 3, 3, 11, 2, 0x00<<2), // AMOADD.D
		ld(4, 10, 0x500),
		// lr/sc pair
		encodeR(0x2F, 5, 3, 11, 0, 0x02<<2), // LR.D
		encodeR(0x2F, 6, 3, 11, 1, 0x03<<2), // SC.D
	}
	m := newTestMachine(t, append(body, haltSequence()...)...)
	m.Run(1000)

	require.True(t, m.Halted())
	require.Equal(t, uint64(100), m.ReadWord(shadowXAddr(3)), "amoadd returns the old value")
	require.Equal(t, uint64(123), m.ReadWord(shadowXAddr(4)))
	require.Equal(t, uint64(123), m.ReadWord(shadowXAddr(5)), "lr loads the amoadd result")
	require.Equal(t, uint64(0), m.ReadWord(shadowXAddr(6)), "sc succeeds on a held reservation")
	require.Equal(t, uint64(100), m.ReadWord(RAMStart+0x500), "sc stored x1")
}

func TestYieldThroughHtif(t *testing.T) {
	m := newTestMachine(t,
		addi(30, 0, shadowHtifTohost),
		addi(31, 0, 1),
		encodeI(0x13, 31, 1, 31, 57), // slli x31, x31, 57 -> yield device 2 in bits 63:56
		sd(31, 30, 0),
	)
	m.Run(1000)

	require.False(t, m.Halted())
	require.True(t, m.Yielded())
	require.Equal(t, uint64(2)<<56, m.ReadWord(shadowHtifFromhost), "yield is acknowledged")

	mcycle := m.Mcycle()
	m.Run(mcycle + 10)
	require.Equal(t, mcycle, m.Mcycle(), "a yielded machine does not advance")
}
