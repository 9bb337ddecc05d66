package rv64

// TakeTrap delivers an exception or interrupt raised during the current
// instruction (§4.5). epc is the already-advanced PC the scheduler passed
// to Execute; for synchronous exceptions it is adjusted back to the
// faulting instruction's address before being latched into sepc/mepc.
// xtval is always written as zero, even for faults whose ExceptionError
// carries a non-zero Tval (§4.5 step 5); Tval survives only in the Go error
// value for diagnostics.
func (cpu *CPU) TakeTrap(cause, tval uint64, epc uint64) {
	_ = tval
	interrupt := cause&(1<<63) != 0
	if !interrupt {
		epc -= 4
	}

	toS := cpu.delegatedToS(cause, interrupt)
	if toS {
		cpu.trapToS(cause, epc)
	} else {
		cpu.trapToM(cause, epc)
	}
}

// delegatedToS reports whether this trap should be handled in S-mode: it
// must be delegated by medeleg/mideleg AND the hart must not already be in
// M-mode (M-mode traps never delegate down, §4.5).
func (cpu *CPU) delegatedToS(cause uint64, interrupt bool) bool {
	if cpu.Priv == PrivMachine {
		return false
	}

	code := cause &^ (1 << 63)
	if code >= 64 {
		return false
	}

	if interrupt {
		return cpu.CSR.Read(CSRMideleg)&(1<<code) != 0
	}
	return cpu.CSR.Read(CSRMedeleg)&(1<<code) != 0
}

func (cpu *CPU) trapToS(cause, epc uint64) {
	sstatus := cpu.CSR.Read(CSRSstatus)

	if sstatus&MstatusSIE != 0 {
		sstatus |= MstatusSPIE
	} else {
		sstatus &^= MstatusSPIE
	}
	sstatus &^= MstatusSIE

	if cpu.Priv == PrivSupervisor {
		sstatus |= MstatusSPP
	} else {
		sstatus &^= MstatusSPP
	}

	cpu.CSR.Write(CSRSstatus, sstatus)
	cpu.CSR.Write(CSRSepc, epc&^1)
	cpu.CSR.Write(CSRScause, cause)
	cpu.CSR.Write(CSRStval, 0)
	cpu.Priv = PrivSupervisor
	cpu.PC = cpu.trapVector(cpu.CSR.Read(CSRStvec), cause)
}

func (cpu *CPU) trapToM(cause, epc uint64) {
	mstatus := cpu.CSR.Read(CSRMstatus)

	if mstatus&MstatusMIE != 0 {
		mstatus |= MstatusMPIE
	} else {
		mstatus &^= MstatusMPIE
	}
	mstatus &^= MstatusMIE

	mstatus &^= MstatusMPP
	mstatus |= uint64(cpu.Priv) << MstatusMPPShift

	cpu.CSR.Write(CSRMstatus, mstatus)
	cpu.CSR.Write(CSRMepc, epc&^1)
	cpu.CSR.Write(CSRMcause, cause)
	cpu.CSR.Write(CSRMtval, 0)
	cpu.Priv = PrivMachine
	cpu.PC = cpu.trapVector(cpu.CSR.Read(CSRMtvec), cause)
}

// trapVector computes the trap target from an xtvec CSR value (§4.5): mode
// bit 0 selects direct (all traps to base) or vectored (interrupts to
// base+4*cause, exceptions to base).
func (cpu *CPU) trapVector(tvec uint64, cause uint64) uint64 {
	base := tvec &^ 0x1
	vectored := tvec&1 == 1
	interrupt := cause&(1<<63) != 0

	if vectored && interrupt {
		code := cause &^ (1 << 63)
		return base + 4*code
	}
	return base
}
