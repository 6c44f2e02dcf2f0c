package machine

// DirectAccess forwards every state operation straight to the backing words.
// It is the hot path: no logging, no proof construction, no hashing.
type DirectAccess struct {
	tree *StateTree
}

// NewDirectAccess wraps the machine state for plain execution.
func NewDirectAccess(m *Machine) *DirectAccess {
	return &DirectAccess{tree: m.tree}
}

var _ StateAccess = (*DirectAccess)(nil)

func (a *DirectAccess) ReadX(i int) uint64     { return a.tree.ReadWord(shadowXAddr(i)) }
func (a *DirectAccess) WriteX(i int, v uint64) { a.tree.WriteWord(shadowXAddr(i), v) }

func (a *DirectAccess) ReadPC() uint64   { return a.tree.ReadWord(shadowPC) }
func (a *DirectAccess) WritePC(v uint64) { a.tree.WriteWord(shadowPC, v) }

func (a *DirectAccess) ReadMvendorid() uint64 { return a.tree.ReadWord(shadowMvendorid) }
func (a *DirectAccess) ReadMarchid() uint64   { return a.tree.ReadWord(shadowMarchid) }
func (a *DirectAccess) ReadMimpid() uint64    { return a.tree.ReadWord(shadowMimpid) }

func (a *DirectAccess) ReadMcycle() uint64     { return a.tree.ReadWord(shadowMcycle) }
func (a *DirectAccess) WriteMcycle(v uint64)   { a.tree.WriteWord(shadowMcycle, v) }
func (a *DirectAccess) ReadMinstret() uint64   { return a.tree.ReadWord(shadowMinstret) }
func (a *DirectAccess) WriteMinstret(v uint64) { a.tree.WriteWord(shadowMinstret, v) }

func (a *DirectAccess) ReadMstatus() uint64      { return a.tree.ReadWord(shadowMstatus) }
func (a *DirectAccess) WriteMstatus(v uint64)    { a.tree.WriteWord(shadowMstatus, v) }
func (a *DirectAccess) ReadMtvec() uint64        { return a.tree.ReadWord(shadowMtvec) }
func (a *DirectAccess) WriteMtvec(v uint64)      { a.tree.WriteWord(shadowMtvec, v) }
func (a *DirectAccess) ReadMscratch() uint64     { return a.tree.ReadWord(shadowMscratch) }
func (a *DirectAccess) WriteMscratch(v uint64)   { a.tree.WriteWord(shadowMscratch, v) }
func (a *DirectAccess) ReadMepc() uint64         { return a.tree.ReadWord(shadowMepc) }
func (a *DirectAccess) WriteMepc(v uint64)       { a.tree.WriteWord(shadowMepc, v) }
func (a *DirectAccess) ReadMcause() uint64       { return a.tree.ReadWord(shadowMcause) }
func (a *DirectAccess) WriteMcause(v uint64)     { a.tree.WriteWord(shadowMcause, v) }
func (a *DirectAccess) ReadMtval() uint64        { return a.tree.ReadWord(shadowMtval) }
func (a *DirectAccess) WriteMtval(v uint64)      { a.tree.WriteWord(shadowMtval, v) }
func (a *DirectAccess) ReadMisa() uint64         { return a.tree.ReadWord(shadowMisa) }
func (a *DirectAccess) WriteMisa(v uint64)       { a.tree.WriteWord(shadowMisa, v) }
func (a *DirectAccess) ReadMie() uint64          { return a.tree.ReadWord(shadowMie) }
func (a *DirectAccess) WriteMie(v uint64)        { a.tree.WriteWord(shadowMie, v) }
func (a *DirectAccess) ReadMip() uint64          { return a.tree.ReadWord(shadowMip) }
func (a *DirectAccess) WriteMip(v uint64)        { a.tree.WriteWord(shadowMip, v) }
func (a *DirectAccess) ReadMedeleg() uint64      { return a.tree.ReadWord(shadowMedeleg) }
func (a *DirectAccess) WriteMedeleg(v uint64)    { a.tree.WriteWord(shadowMedeleg, v) }
func (a *DirectAccess) ReadMideleg() uint64      { return a.tree.ReadWord(shadowMideleg) }
func (a *DirectAccess) WriteMideleg(v uint64)    { a.tree.WriteWord(shadowMideleg, v) }
func (a *DirectAccess) ReadMcounteren() uint64   { return a.tree.ReadWord(shadowMcounteren) }
func (a *DirectAccess) WriteMcounteren(v uint64) { a.tree.WriteWord(shadowMcounteren, v) }

func (a *DirectAccess) ReadStvec() uint64        { return a.tree.ReadWord(shadowStvec) }
func (a *DirectAccess) WriteStvec(v uint64)      { a.tree.WriteWord(shadowStvec, v) }
func (a *DirectAccess) ReadSscratch() uint64     { return a.tree.ReadWord(shadowSscratch) }
func (a *DirectAccess) WriteSscratch(v uint64)   { a.tree.WriteWord(shadowSscratch, v) }
func (a *DirectAccess) ReadSepc() uint64         { return a.tree.ReadWord(shadowSepc) }
func (a *DirectAccess) WriteSepc(v uint64)       { a.tree.WriteWord(shadowSepc, v) }
func (a *DirectAccess) ReadScause() uint64       { return a.tree.ReadWord(shadowScause) }
func (a *DirectAccess) WriteScause(v uint64)     { a.tree.WriteWord(shadowScause, v) }
func (a *DirectAccess) ReadStval() uint64        { return a.tree.ReadWord(shadowStval) }
func (a *DirectAccess) WriteStval(v uint64)      { a.tree.WriteWord(shadowStval, v) }
func (a *DirectAccess) ReadSatp() uint64         { return a.tree.ReadWord(shadowSatp) }
func (a *DirectAccess) WriteSatp(v uint64)       { a.tree.WriteWord(shadowSatp, v) }
func (a *DirectAccess) ReadScounteren() uint64   { return a.tree.ReadWord(shadowScounteren) }
func (a *DirectAccess) WriteScounteren(v uint64) { a.tree.WriteWord(shadowScounteren, v) }

func (a *DirectAccess) ReadIlrsc() uint64    { return a.tree.ReadWord(shadowIlrsc) }
func (a *DirectAccess) WriteIlrsc(v uint64)  { a.tree.WriteWord(shadowIlrsc, v) }
func (a *DirectAccess) ReadIflags() uint64   { return a.tree.ReadWord(shadowIflags) }
func (a *DirectAccess) WriteIflags(v uint64) { a.tree.WriteWord(shadowIflags, v) }

func (a *DirectAccess) ReadClintMtimecmp() uint64   { return a.tree.ReadWord(shadowClintMtimecmp) }
func (a *DirectAccess) WriteClintMtimecmp(v uint64) { a.tree.WriteWord(shadowClintMtimecmp, v) }
func (a *DirectAccess) ReadHtifTohost() uint64      { return a.tree.ReadWord(shadowHtifTohost) }
func (a *DirectAccess) WriteHtifTohost(v uint64)    { a.tree.WriteWord(shadowHtifTohost, v) }
func (a *DirectAccess) ReadHtifFromhost() uint64    { return a.tree.ReadWord(shadowHtifFromhost) }
func (a *DirectAccess) WriteHtifFromhost(v uint64)  { a.tree.WriteWord(shadowHtifFromhost, v) }

func (a *DirectAccess) ReadPmaIstart(i int) uint64  { return a.tree.ReadWord(shadowPmaIstartAddr(i)) }
func (a *DirectAccess) ReadPmaIlength(i int) uint64 { return a.tree.ReadWord(shadowPmaIlengthAddr(i)) }

func (a *DirectAccess) ReadMemoryWord(addr uint64) uint64     { return a.tree.ReadWord(addr) }
func (a *DirectAccess) WriteMemoryWord(addr uint64, v uint64) { a.tree.WriteWord(addr, v) }
