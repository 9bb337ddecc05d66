package rv64

// CSR addresses used by this core. The full bank is 4096 slots; everything
// else stores and loads directly with no special behavior.
const (
	CSRSstatus uint16 = 0x100
	CSRSie     uint16 = 0x104
	CSRStvec   uint16 = 0x105
	CSRSscratch uint16 = 0x140
	CSRSepc    uint16 = 0x141
	CSRScause  uint16 = 0x142
	CSRStval   uint16 = 0x143
	CSRSip     uint16 = 0x144
	CSRSatp    uint16 = 0x180

	CSRMstatus uint16 = 0x300
	CSRMisa    uint16 = 0x301
	CSRMedeleg uint16 = 0x302
	CSRMideleg uint16 = 0x303
	CSRMie     uint16 = 0x304
	CSRMtvec   uint16 = 0x305
	CSRMscratch uint16 = 0x340
	CSRMepc    uint16 = 0x341
	CSRMcause  uint16 = 0x342
	CSRMtval   uint16 = 0x343
	CSRMip     uint16 = 0x344
	CSRMhartid uint16 = 0xF14
)

// CSRFile is the 4096-entry control/status register bank (§3, §4.9). Every
// index stores and loads directly except sie, which is a masked alias of mie:
// writes touch only the bits mideleg selects, and reads return mie&mideleg.
type CSRFile struct {
	regs [4096]uint64
}

// Read returns the value of CSR idx.
func (c *CSRFile) Read(idx uint16) uint64 {
	if idx == CSRSie {
		return c.regs[CSRMie] & c.regs[CSRMideleg]
	}
	return c.regs[idx]
}

// Write stores val into CSR idx.
func (c *CSRFile) Write(idx uint16, val uint64) {
	if idx == CSRSie {
		mideleg := c.regs[CSRMideleg]
		c.regs[CSRMie] = (c.regs[CSRMie] &^ mideleg) | (val & mideleg)
		return
	}
	c.regs[idx] = val
}

// csrRead performs a CSR read for the CSRRx instructions, refreshing the
// cached satp fields is not needed here since reads never mutate state.
func (cpu *CPU) csrRead(csr uint16) uint64 {
	return cpu.CSR.Read(csr)
}

// csrWrite performs a CSR write for the CSRRx instructions. After writing, if
// the touched index is satp, the cached paging-enabled flag and root page
// table address are refreshed (§3, §4.9).
func (cpu *CPU) csrWrite(csr uint16, val uint64) {
	cpu.CSR.Write(csr, val)
	if csr == CSRSatp {
		cpu.refreshSatp()
	}
}
