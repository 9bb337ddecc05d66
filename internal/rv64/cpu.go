// Package rv64 implements the RV64IMA core: a decoder/executor, the M/S/U
// privileged architecture, Sv39 translation, and the memory-mapped bus that
// connects a single hart to its platform devices.
package rv64

import "fmt"

// Memory layout. RAM sits at RAMBase; everything below it is device space.
const (
	RAMBase uint64 = 0x8000_0000
	RAMSize uint64 = 8 * 1024 * 1024

	CLINTBase uint64 = 0x0200_0000
	CLINTSize uint64 = 0x0001_0000

	PLICBase uint64 = 0x0C00_0000
	PLICSize uint64 = 0x0400_0000

	UARTBase uint64 = 0x1000_0000
	UARTSize uint64 = 0x0000_0100

	BlockBase uint64 = 0x1000_1000
	BlockSize uint64 = 0x0000_0100

	KeyboardBase uint64 = 0x1000_2000
	KeyboardSize uint64 = 0x0000_0004

	// FramebufferBase is a guest physical address inside RAM; the framebuffer
	// has no device of its own, it is plain RAM read by the host display pump.
	// Mirrors original_source/src/semu.h's 0x80600000 (a 6 MiB offset), which
	// sits inside an 8 MiB RAM the same way RAMSize does here.
	FramebufferBase uint64 = RAMBase + 0x0060_0000
	FramebufferSize uint64 = RAMSize - 0x0060_0000
)

// Privilege levels.
const (
	PrivUser       uint8 = 0
	PrivSupervisor uint8 = 1
	PrivMachine    uint8 = 3
)

// mstatus bits touched by this core (no F/D, no SMP).
const (
	MstatusSIE  uint64 = 1 << 1
	MstatusMIE  uint64 = 1 << 3
	MstatusSPIE uint64 = 1 << 5
	MstatusMPIE uint64 = 1 << 7
	MstatusSPP  uint64 = 1 << 8
	MstatusMPP  uint64 = 3 << 11
)

const (
	MstatusSPPShift = 8
	MstatusMPPShift = 11
)

// mip/mie bits, in trap-controller priority order (§4.6).
const (
	MipMEIP uint64 = 1 << 11
	MipMSIP uint64 = 1 << 3
	MipMTIP uint64 = 1 << 7
	MipSEIP uint64 = 1 << 9
	MipSSIP uint64 = 1 << 1
	MipSTIP uint64 = 1 << 5
)

// Exception causes.
const (
	CauseInsnAddrMisaligned  uint64 = 0
	CauseInsnAccessFault     uint64 = 1
	CauseIllegalInsn         uint64 = 2
	CauseBreakpoint          uint64 = 3
	CauseLoadAddrMisaligned  uint64 = 4
	CauseLoadAccessFault     uint64 = 5
	CauseStoreAddrMisaligned uint64 = 6
	CauseStoreAccessFault    uint64 = 7
	CauseEcallFromU          uint64 = 8
	CauseEcallFromS          uint64 = 9
	CauseEcallFromM          uint64 = 11
	CauseInsnPageFault       uint64 = 12
	CauseLoadPageFault       uint64 = 13
	CauseStorePageFault      uint64 = 15
)

// Interrupt causes (bit 63 set).
const (
	CauseSSoftwareInt uint64 = (1 << 63) | 1
	CauseMSoftwareInt uint64 = (1 << 63) | 3
	CauseSTimerInt    uint64 = (1 << 63) | 5
	CauseMTimerInt    uint64 = (1 << 63) | 7
	CauseSExternalInt uint64 = (1 << 63) | 9
	CauseMExternalInt uint64 = (1 << 63) | 11
)

// Interrupt numbers, as delivered to PLIC.Publish.
const (
	IRQUART  uint32 = 10
	IRQBlock uint32 = 1
)

// CPU holds one hart's architectural state.
type CPU struct {
	X  [32]uint64
	PC uint64

	Priv uint8

	CSR CSRFile

	// Cached from the last CSR write that touched satp (§3, §4.9).
	PagingEnabled bool
	RootPageTable uint64

	Bus *Bus
}

// NewCPU creates a hart reset into Machine mode at RAMBase.
func NewCPU(bus *Bus) *CPU {
	cpu := &CPU{Bus: bus}
	cpu.Reset()
	return cpu
}

// Reset restores the hart to its post-boot state: Machine mode, PC at
// RAMBase, sp (x2) pointing past the end of RAM.
func (cpu *CPU) Reset() {
	for i := range cpu.X {
		cpu.X[i] = 0
	}
	cpu.X[2] = RAMBase + RAMSize
	cpu.PC = RAMBase
	cpu.Priv = PrivMachine
	cpu.CSR = CSRFile{}
	cpu.PagingEnabled = false
	cpu.RootPageTable = 0
}

// ReadReg reads integer register reg; x0 always reads zero.
func (cpu *CPU) ReadReg(reg uint32) uint64 {
	if reg == 0 {
		return 0
	}
	return cpu.X[reg]
}

// WriteReg writes integer register reg; writes to x0 are dropped.
func (cpu *CPU) WriteReg(reg uint32, val uint64) {
	if reg != 0 {
		cpu.X[reg] = val
	}
}

// zeroX0 re-zeroes x0 before every instruction commit, per the data-model
// invariant that register 0 always reads as zero regardless of prior writes.
func (cpu *CPU) zeroX0() {
	cpu.X[0] = 0
}

// refreshSatp recomputes PagingEnabled/RootPageTable from the current satp
// CSR. Must be called whenever a CSR write touches satp (§4.9).
func (cpu *CPU) refreshSatp() {
	satp := cpu.CSR.Read(CSRSatp)
	cpu.PagingEnabled = (satp >> 60) == 8
	cpu.RootPageTable = (satp & ((1 << 44) - 1)) * PageSize
}

// signExtend sign-extends the low `bits` bits of val to 64 bits.
func signExtend(val uint64, bits int) int64 {
	shift := 64 - bits
	return int64(val<<shift) >> shift
}

// ExceptionError is the single error type threaded through fetch/load/store/
// execute; the trap controller converts it into a cause/tval pair.
type ExceptionError struct {
	Cause uint64
	Tval  uint64
}

func (e ExceptionError) Error() string {
	return fmt.Sprintf("exception: cause=%d tval=0x%x", e.Cause, e.Tval)
}

// Exception builds an ExceptionError for the given cause.
func Exception(cause, tval uint64) error {
	return ExceptionError{Cause: cause, Tval: tval}
}
