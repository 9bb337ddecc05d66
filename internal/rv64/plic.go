package rv64

import "fmt"

// PLIC register offsets, relative to PLICBase (§6). Only these four
// addresses read/write meaningfully; everything else reads as zero and
// silently drops writes (§3).
const (
	plicPending   = 0x001000
	plicSenable   = 0x002080
	plicSpriority = 0x201000
	plicSclaim    = 0x201004
)

// PLIC is the platform-level interrupt controller's supervisor-facing
// register slice: pending, senable, spriority, sclaim.
type PLIC struct {
	Pending   uint32
	Senable   uint32
	Spriority uint32
	Sclaim    uint32
}

func NewPLIC() *PLIC {
	return &PLIC{}
}

// Read implements Device. PLIC only answers 32-bit accesses (§4.1).
func (p *PLIC) Read(offset uint64, size int) (uint64, error) {
	if size != 4 {
		return 0, fmt.Errorf("plic: invalid access size %d", size)
	}
	switch offset {
	case plicPending:
		return uint64(p.Pending), nil
	case plicSenable:
		return uint64(p.Senable), nil
	case plicSpriority:
		return uint64(p.Spriority), nil
	case plicSclaim:
		return uint64(p.Sclaim), nil
	default:
		return 0, nil
	}
}

// Write implements Device.
func (p *PLIC) Write(offset uint64, size int, value uint64) error {
	if size != 4 {
		return fmt.Errorf("plic: invalid access size %d", size)
	}
	switch offset {
	case plicPending:
		p.Pending = uint32(value)
	case plicSenable:
		p.Senable = uint32(value)
	case plicSpriority:
		p.Spriority = uint32(value)
	case plicSclaim:
		p.Sclaim = uint32(value)
	}
	return nil
}

// Publish records irq as the claimed interrupt source (§4.6: "publish IRQ to
// plic.sclaim").
func (p *PLIC) Publish(irq uint32) {
	p.Sclaim = irq
}

var _ Device = (*PLIC)(nil)
