package rv64

// Machine wires a CPU to its bus and platform devices, and drives the
// cycle-pump scheduling model described by §4.10.
type Machine struct {
	CPU   *CPU
	Bus   *Bus
	CLINT *CLINT
	PLIC  *PLIC
	UART  *UART
	Block *BlockDevice
	Kbd   *Keyboard
}

// NewMachine builds a fully wired machine: RAM plus CLINT, PLIC, UART,
// block device and keyboard mapped at their fixed bases (§6).
func NewMachine(uart *UART, block *BlockDevice, kbd *Keyboard) *Machine {
	bus := NewBus()
	clint := NewCLINT()
	plic := NewPLIC()

	bus.AddDevice(CLINTBase, CLINTSize, clint)
	bus.AddDevice(PLICBase, PLICSize, plic)
	bus.AddDevice(UARTBase, UARTSize, uart)
	bus.AddDevice(BlockBase, BlockSize, block)
	bus.AddDevice(KeyboardBase, KeyboardSize, kbd)

	return &Machine{
		CPU:   NewCPU(bus),
		Bus:   bus,
		CLINT: clint,
		PLIC:  plic,
		UART:  uart,
		Block: block,
		Kbd:   kbd,
	}
}

// Step runs one cycle-pump tick (§4.10): fetch, unconditionally advance PC
// by 4, execute, then poll for a pending interrupt. A page fault raised
// during translation is delivered to the guest like any other trap; a bus
// failure fetching the translated physical address is a fatal access
// fault and Step returns ok=false (§4.10, §7: "termination is host
// policy").
func (m *Machine) Step() (ok bool, err error) {
	cpu := m.CPU

	fetchPC := cpu.PC
	paddr, terr := cpu.translateFetch(fetchPC)
	if terr != nil {
		exc := terr.(ExceptionError)
		cpu.PC += 4
		cpu.TakeTrap(exc.Cause, exc.Tval, cpu.PC)
		m.pollInterrupt()
		return true, nil
	}

	insn, ferr := m.Bus.Fetch(paddr)
	if ferr != nil {
		cpu.TakeTrap(CauseInsnAccessFault, fetchPC, cpu.PC+4)
		return false, Exception(CauseInsnAccessFault, fetchPC)
	}

	cpu.PC += 4

	if eerr := cpu.Execute(insn); eerr != nil {
		exc, _ := eerr.(ExceptionError)
		cpu.TakeTrap(exc.Cause, exc.Tval, cpu.PC)
	}

	m.pollInterrupt()
	return true, nil
}

// pollInterrupt implements §4.6. It early-outs if the current privilege
// mode's global interrupt-enable bit is clear, otherwise lets the UART and
// block device raise their external-interrupt lines, then selects and
// clears the highest-priority pending interrupt and delivers it.
func (m *Machine) pollInterrupt() {
	cpu := m.CPU

	switch cpu.Priv {
	case PrivMachine:
		if cpu.CSR.Read(CSRMstatus)&MstatusMIE == 0 {
			return
		}
	default:
		if cpu.CSR.Read(CSRSstatus)&MstatusSIE == 0 {
			return
		}
	}

	if m.UART.IsInterrupting() {
		m.PLIC.Publish(IRQUART)
		cpu.CSR.Write(CSRMip, cpu.CSR.Read(CSRMip)|MipSEIP)
	} else if m.Block.Pending() {
		if err := m.Block.PerformDMA(m.Bus); err != nil {
			panic(err) // §4.8, §7: bus failure during DMA is fatal
		}
		m.PLIC.Publish(IRQBlock)
		cpu.CSR.Write(CSRMip, cpu.CSR.Read(CSRMip)|MipSEIP)
	}

	pending := cpu.CSR.Read(CSRMie) & cpu.CSR.Read(CSRMip)
	if pending == 0 {
		return
	}

	for _, bit := range []struct {
		mask  uint64
		cause uint64
	}{
		{MipMEIP, CauseMExternalInt},
		{MipMSIP, CauseMSoftwareInt},
		{MipMTIP, CauseMTimerInt},
		{MipSEIP, CauseSExternalInt},
		{MipSSIP, CauseSSoftwareInt},
		{MipSTIP, CauseSTimerInt},
	} {
		if pending&bit.mask != 0 {
			cpu.CSR.Write(CSRMip, cpu.CSR.Read(CSRMip)&^bit.mask)
			cpu.TakeTrap(bit.cause, 0, cpu.PC)
			return
		}
	}
}

// Run steps the machine until stepFn returns false, matching the external
// driver's role as a cycle pump (§4.10, §5).
func (m *Machine) Run(stepFn func() bool) error {
	for stepFn() {
		if ok, err := m.Step(); !ok {
			return err
		}
	}
	return nil
}
