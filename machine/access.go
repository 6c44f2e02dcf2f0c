package machine

// StateAccess is the uniform contract the interpreter body is written
// against. It covers the full machine-state surface: integer registers,
// program counter, counters, control and status registers, trap registers,
// interrupt registers, the privilege/halt/yield flag word, the PMA board and
// aligned memory words.
//
// The interpreter is instantiated once over the direct implementation (run)
// and once over the logging implementation (step). Both produce bit-identical
// effects on the machine state; they differ only in what they emit on the
// side. Operations never block and never fail: out-of-range register or PMA
// indexes are programmer errors.
type StateAccess interface {
	ReadX(i int) uint64
	WriteX(i int, v uint64)

	ReadPC() uint64
	WritePC(v uint64)

	ReadMvendorid() uint64
	ReadMarchid() uint64
	ReadMimpid() uint64

	ReadMcycle() uint64
	WriteMcycle(v uint64)
	ReadMinstret() uint64
	WriteMinstret(v uint64)

	ReadMstatus() uint64
	WriteMstatus(v uint64)
	ReadMtvec() uint64
	WriteMtvec(v uint64)
	ReadMscratch() uint64
	WriteMscratch(v uint64)
	ReadMepc() uint64
	WriteMepc(v uint64)
	ReadMcause() uint64
	WriteMcause(v uint64)
	ReadMtval() uint64
	WriteMtval(v uint64)
	ReadMisa() uint64
	WriteMisa(v uint64)
	ReadMie() uint64
	WriteMie(v uint64)
	ReadMip() uint64
	WriteMip(v uint64)
	ReadMedeleg() uint64
	WriteMedeleg(v uint64)
	ReadMideleg() uint64
	WriteMideleg(v uint64)
	ReadMcounteren() uint64
	WriteMcounteren(v uint64)

	ReadStvec() uint64
	WriteStvec(v uint64)
	ReadSscratch() uint64
	WriteSscratch(v uint64)
	ReadSepc() uint64
	WriteSepc(v uint64)
	ReadScause() uint64
	WriteScause(v uint64)
	ReadStval() uint64
	WriteStval(v uint64)
	ReadSatp() uint64
	WriteSatp(v uint64)
	ReadScounteren() uint64
	WriteScounteren(v uint64)

	ReadIlrsc() uint64
	WriteIlrsc(v uint64)
	ReadIflags() uint64
	WriteIflags(v uint64)

	ReadClintMtimecmp() uint64
	WriteClintMtimecmp(v uint64)
	ReadHtifTohost() uint64
	WriteHtifTohost(v uint64)
	ReadHtifFromhost() uint64
	WriteHtifFromhost(v uint64)

	ReadPmaIstart(i int) uint64
	ReadPmaIlength(i int) uint64

	ReadMemoryWord(addr uint64) uint64
	WriteMemoryWord(addr uint64, v uint64)
}
