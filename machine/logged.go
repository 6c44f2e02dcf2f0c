package machine

// LoggedAccess wraps the machine state and records every access together
// with a Merkle proof rooted at the pre-access state root. Records appear in
// exactly the order the interpreter performed the accesses.
type LoggedAccess struct {
	tree *StateTree
	log  *AccessLog
}

// NewLoggedAccess wraps the machine state for proof-producing execution.
func NewLoggedAccess(m *Machine) *LoggedAccess {
	return &LoggedAccess{tree: m.tree, log: NewAccessLog()}
}

var _ StateAccess = (*LoggedAccess)(nil)

// Log returns the access log accumulated so far. The caller owns it once the
// step that produced it has returned.
func (a *LoggedAccess) Log() *AccessLog {
	return a.log
}

func (a *LoggedAccess) readWord(addr uint64) uint64 {
	v := a.tree.ReadWord(addr)
	proof, err := a.tree.WordProof(addr)
	if err != nil {
		panic(err) // addresses are aligned by construction
	}
	a.log.Accesses = append(a.log.Accesses, Access{
		Type:      AccessRead,
		Address:   hexU64(addr),
		Log2Size:  Log2WordSize,
		ReadValue: hexU64(v),
		Proof:     *proof,
	})
	return v
}

func (a *LoggedAccess) writeWord(addr uint64, v uint64) {
	old := a.tree.ReadWord(addr)
	proof, err := a.tree.WordProof(addr)
	if err != nil {
		panic(err)
	}
	a.tree.WriteWord(addr, v)
	a.log.Accesses = append(a.log.Accesses, Access{
		Type:         AccessWrite,
		Address:      hexU64(addr),
		Log2Size:     Log2WordSize,
		ReadValue:    hexU64(old),
		WrittenValue: hexU64(v),
		Proof:        *proof,
	})
}

func (a *LoggedAccess) ReadX(i int) uint64     { return a.readWord(shadowXAddr(i)) }
func (a *LoggedAccess) WriteX(i int, v uint64) { a.writeWord(shadowXAddr(i), v) }

func (a *LoggedAccess) ReadPC() uint64   { return a.readWord(shadowPC) }
func (a *LoggedAccess) WritePC(v uint64) { a.writeWord(shadowPC, v) }

func (a *LoggedAccess) ReadMvendorid() uint64 { return a.readWord(shadowMvendorid) }
func (a *LoggedAccess) ReadMarchid() uint64   { return a.readWord(shadowMarchid) }
func (a *LoggedAccess) ReadMimpid() uint64    { return a.readWord(shadowMimpid) }

func (a *LoggedAccess) ReadMcycle() uint64     { return a.readWord(shadowMcycle) }
func (a *LoggedAccess) WriteMcycle(v uint64)   { a.writeWord(shadowMcycle, v) }
func (a *LoggedAccess) ReadMinstret() uint64   { return a.readWord(shadowMinstret) }
func (a *LoggedAccess) WriteMinstret(v uint64) { a.writeWord(shadowMinstret, v) }

func (a *LoggedAccess) ReadMstatus() uint64      { return a.readWord(shadowMstatus) }
func (a *LoggedAccess) WriteMstatus(v uint64)    { a.writeWord(shadowMstatus, v) }
func (a *LoggedAccess) ReadMtvec() uint64        { return a.readWord(shadowMtvec) }
func (a *LoggedAccess) WriteMtvec(v uint64)      { a.writeWord(shadowMtvec, v) }
func (a *LoggedAccess) ReadMscratch() uint64     { return a.readWord(shadowMscratch) }
func (a *LoggedAccess) WriteMscratch(v uint64)   { a.writeWord(shadowMscratch, v) }
func (a *LoggedAccess) ReadMepc() uint64         { return a.readWord(shadowMepc) }
func (a *LoggedAccess) WriteMepc(v uint64)       { a.writeWord(shadowMepc, v) }
func (a *LoggedAccess) ReadMcause() uint64       { return a.readWord(shadowMcause) }
func (a *LoggedAccess) WriteMcause(v uint64)     { a.writeWord(shadowMcause, v) }
func (a *LoggedAccess) ReadMtval() uint64        { return a.readWord(shadowMtval) }
func (a *LoggedAccess) WriteMtval(v uint64)      { a.writeWord(shadowMtval, v) }
func (a *LoggedAccess) ReadMisa() uint64         { return a.readWord(shadowMisa) }
func (a *LoggedAccess) WriteMisa(v uint64)       { a.writeWord(shadowMisa, v) }
func (a *LoggedAccess) ReadMie() uint64          { return a.readWord(shadowMie) }
func (a *LoggedAccess) WriteMie(v uint64)        { a.writeWord(shadowMie, v) }
func (a *LoggedAccess) ReadMip() uint64          { return a.readWord(shadowMip) }
func (a *LoggedAccess) WriteMip(v uint64)        { a.writeWord(shadowMip, v) }
func (a *LoggedAccess) ReadMedeleg() uint64      { return a.readWord(shadowMedeleg) }
func (a *LoggedAccess) WriteMedeleg(v uint64)    { a.writeWord(shadowMedeleg, v) }
func (a *LoggedAccess) ReadMideleg() uint64      { return a.readWord(shadowMideleg) }
func (a *LoggedAccess) WriteMideleg(v uint64)    { a.writeWord(shadowMideleg, v) }
func (a *LoggedAccess) ReadMcounteren() uint64   { return a.readWord(shadowMcounteren) }
func (a *LoggedAccess) WriteMcounteren(v uint64) { a.writeWord(shadowMcounteren, v) }

func (a *LoggedAccess) ReadStvec() uint64        { return a.readWord(shadowStvec) }
func (a *LoggedAccess) WriteStvec(v uint64)      { a.writeWord(shadowStvec, v) }
func (a *LoggedAccess) ReadSscratch() uint64     { return a.readWord(shadowSscratch) }
func (a *LoggedAccess) WriteSscratch(v uint64)   { a.writeWord(shadowSscratch, v) }
func (a *LoggedAccess) ReadSepc() uint64         { return a.readWord(shadowSepc) }
func (a *LoggedAccess) WriteSepc(v uint64)       { a.writeWord(shadowSepc, v) }
func (a *LoggedAccess) ReadScause() uint64       { return a.readWord(shadowScause) }
func (a *LoggedAccess) WriteScause(v uint64)     { a.writeWord(shadowScause, v) }
func (a *LoggedAccess) ReadStval() uint64        { return a.readWord(shadowStval) }
func (a *LoggedAccess) WriteStval(v uint64)      { a.writeWord(shadowStval, v) }
func (a *LoggedAccess) ReadSatp() uint64         { return a.readWord(shadowSatp) }
func (a *LoggedAccess) WriteSatp(v uint64)       { a.writeWord(shadowSatp, v) }
func (a *LoggedAccess) ReadScounteren() uint64   { return a.readWord(shadowScounteren) }
func (a *LoggedAccess) WriteScounteren(v uint64) { a.writeWord(shadowScounteren, v) }

func (a *LoggedAccess) ReadIlrsc() uint64    { return a.readWord(shadowIlrsc) }
func (a *LoggedAccess) WriteIlrsc(v uint64)  { a.writeWord(shadowIlrsc, v) }
func (a *LoggedAccess) ReadIflags() uint64   { return a.readWord(shadowIflags) }
func (a *LoggedAccess) WriteIflags(v uint64) { a.writeWord(shadowIflags, v) }

func (a *LoggedAccess) ReadClintMtimecmp() uint64   { return a.readWord(shadowClintMtimecmp) }
func (a *LoggedAccess) WriteClintMtimecmp(v uint64) { a.writeWord(shadowClintMtimecmp, v) }
func (a *LoggedAccess) ReadHtifTohost() uint64      { return a.readWord(shadowHtifTohost) }
func (a *LoggedAccess) WriteHtifTohost(v uint64)    { a.writeWord(shadowHtifTohost, v) }
func (a *LoggedAccess) ReadHtifFromhost() uint64    { return a.readWord(shadowHtifFromhost) }
func (a *LoggedAccess) WriteHtifFromhost(v uint64)  { a.writeWord(shadowHtifFromhost, v) }

func (a *LoggedAccess) ReadPmaIstart(i int) uint64  { return a.readWord(shadowPmaIstartAddr(i)) }
func (a *LoggedAccess) ReadPmaIlength(i int) uint64 { return a.readWord(shadowPmaIlengthAddr(i)) }

func (a *LoggedAccess) ReadMemoryWord(addr uint64) uint64     { return a.readWord(addr) }
func (a *LoggedAccess) WriteMemoryWord(addr uint64, v uint64) { a.writeWord(addr, v) }
