package rv64

// Page table entry bits used by the lenient walk below (§4.2). Only V and
// the R/W encoding rule are checked; U/A/D/permission enforcement is not
// performed by this core — a deliberate simplification (§9).
const (
	PteV = 1 << 0
	PteR = 1 << 1
	PteW = 1 << 2
	PteX = 1 << 3
)

const PageSize uint64 = 4096

// translate walks the Sv39 page table for vaddr, or returns vaddr unchanged
// if paging is disabled (§4.2). faultCause is the page-fault cause to raise
// on any failure along the walk.
func (cpu *CPU) translate(vaddr uint64, faultCause uint64) (uint64, error) {
	if !cpu.PagingEnabled {
		return vaddr, nil
	}

	vpn := [3]uint64{
		(vaddr >> 12) & 0x1ff,
		(vaddr >> 21) & 0x1ff,
		(vaddr >> 30) & 0x1ff,
	}
	offset := vaddr & 0xfff

	walk := cpu.RootPageTable
	level := 2

	for {
		pteAddr := walk + vpn[level]*8
		pte, err := cpu.Bus.Read64(pteAddr)
		if err != nil {
			return 0, Exception(faultCause, vaddr)
		}

		v := pte&PteV != 0
		r := pte&PteR != 0
		w := pte&PteW != 0
		x := pte&PteX != 0

		if !v || (!r && w) {
			return 0, Exception(faultCause, vaddr)
		}

		if r || x {
			// Leaf PTE.
			ppn := ppn44(pte)
			switch level {
			case 0:
				return (ppn << 12) | offset, nil
			case 1:
				ppn2 := ppn >> 18
				ppn1 := (ppn >> 9) & 0x1ff
				return (ppn2 << 30) | (ppn1 << 21) | (vpn[0] << 12) | offset, nil
			case 2:
				ppn2 := ppn >> 18
				return (ppn2 << 30) | (vpn[1] << 21) | (vpn[0] << 12) | offset, nil
			}
		}

		// Non-leaf: descend.
		walk = ppn44(pte) * PageSize
		level--
		if level < 0 {
			return 0, Exception(faultCause, vaddr)
		}
	}
}

func ppn44(pte uint64) uint64 {
	return (pte >> 10) & 0xFFF_FFFF_FFFF
}

func (cpu *CPU) translateRead(vaddr uint64) (uint64, error) {
	return cpu.translate(vaddr, CauseLoadPageFault)
}

func (cpu *CPU) translateWrite(vaddr uint64) (uint64, error) {
	return cpu.translate(vaddr, CauseStorePageFault)
}

func (cpu *CPU) translateFetch(vaddr uint64) (uint64, error) {
	return cpu.translate(vaddr, CauseInsnPageFault)
}
