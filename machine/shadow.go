package machine

// The entire machine state is one 64-bit word-addressed space covered by a
// single Merkle tree. The processor state lives in a shadow region at the
// bottom of the space, one component per 64-bit word, so that the direct and
// the logging state access see the exact same bytes.

// Shadow word addresses of the processor state.
const (
	shadowXBase     = 0x000 // x0..x31, one word each
	shadowPC        = 0x100
	shadowMvendorid = 0x108
	shadowMarchid   = 0x110
	shadowMimpid    = 0x118
	shadowMcycle    = 0x120
	shadowMinstret  = 0x128
	shadowMstatus   = 0x130
	shadowMtvec     = 0x138
	shadowMscratch  = 0x140
	shadowMepc      = 0x148
	shadowMcause    = 0x150
	shadowMtval     = 0x158
	shadowMisa      = 0x160
	shadowMie       = 0x168
	shadowMip       = 0x170
	shadowMedeleg   = 0x178
	shadowMideleg   = 0x180
	shadowMcounteren = 0x188
	shadowStvec     = 0x190
	shadowSscratch  = 0x198
	shadowSepc      = 0x1A0
	shadowScause    = 0x1A8
	shadowStval     = 0x1B0
	shadowSatp      = 0x1B8
	shadowScounteren = 0x1C0
	shadowIlrsc     = 0x1C8
	shadowIflags    = 0x1D0
	shadowClintMtimecmp = 0x1D8
	shadowHtifTohost    = 0x1E0
	shadowHtifFromhost  = 0x1E8
)

// Addresses verifiers of specialized step logs match records against.
const (
	ShadowIflagsAddr       = shadowIflags
	ShadowHtifFromhostAddr = shadowHtifFromhost
)

func shadowXAddr(i int) uint64 {
	if i < 0 || i >= 32 {
		panic("register index out of range")
	}
	return shadowXBase + uint64(i)*WordSize
}

// iflags packs the halt, yield and automatic-yield flags together with the
// privilege level into one shadow word.
const (
	IflagsHShift   = 0
	IflagsYShift   = 1
	IflagsXShift   = 2
	IflagsPrvShift = 3

	IflagsH = uint64(1) << IflagsHShift
	IflagsY = uint64(1) << IflagsYShift
	IflagsX = uint64(1) << IflagsXShift
)

// Privilege levels.
const (
	PrvU = 0
	PrvS = 1
	PrvM = 3
)

func iflagsPrv(iflags uint64) uint64 { return (iflags >> IflagsPrvShift) & 3 }

func iflagsWithPrv(iflags, prv uint64) uint64 {
	return (iflags &^ (uint64(3) << IflagsPrvShift)) | (prv << IflagsPrvShift)
}

// Physical memory attribute board: (istart, ilength) word pairs right above
// the processor shadow. istart carries the range flags in its low bits; the
// start address itself is page-aligned so the two never collide.
const (
	shadowPmasBase = 0x800
	PmaMaxEntries  = 32

	pmaMFlag = uint64(1) << 0 // range backed by memory
	pmaEFlag = uint64(1) << 1 // empty sentinel
)

func shadowPmaIstartAddr(i int) uint64 {
	if i < 0 || i >= PmaMaxEntries {
		panic("pma index out of range")
	}
	return shadowPmasBase + uint64(i)*2*WordSize
}

func shadowPmaIlengthAddr(i int) uint64 {
	return shadowPmaIstartAddr(i) + WordSize
}

// Memory map.
const (
	ShadowSize = 0x1000

	// CmioRxBufferStart receives send_cmio_response payloads.
	CmioRxBufferStart    = 0x60000000
	CmioRxBufferLog2Size = 21

	// RAMStart is where programs are loaded and where the machine boots.
	RAMStart = 0x80000000

	// DefaultRAMSize bounds the RAM range advertised on the PMA board.
	DefaultRAMSize = 64 << 20
)

// Reset values of the identity registers.
const (
	mvendoridInit uint64 = 0x6d6163682d656d75
	marchidInit   uint64 = 0xf
	mimpidInit    uint64 = 1

	// RV64IMA with S and U modes present
	misaInit uint64 = (2 << 62) | (1 << ('i' - 'a')) | (1 << ('m' - 'a')) | (1 << ('a' - 'a')) |
		(1 << ('s' - 'a')) | (1 << ('u' - 'a'))
)
