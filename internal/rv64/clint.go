package rv64

import "fmt"

// CLINT register offsets, relative to CLINTBase (§6).
const (
	clintMtimecmp = 0x4000
	clintMtime    = 0xBFF8
)

// CLINT is the core-local interrupter: mtime and mtimecmp, both 64-bit MMIO
// registers with no internal tick generator beyond what software or the
// scheduler writes (§3).
type CLINT struct {
	Mtime    uint64
	Mtimecmp uint64
}

// NewCLINT creates a CLINT with mtimecmp parked at max so no timer
// interrupt fires until software arms it.
func NewCLINT() *CLINT {
	return &CLINT{Mtimecmp: ^uint64(0)}
}

// Read implements Device. CLINT only answers 64-bit accesses (§4.1).
func (c *CLINT) Read(offset uint64, size int) (uint64, error) {
	if size != 8 {
		return 0, fmt.Errorf("clint: invalid access size %d", size)
	}
	switch offset {
	case clintMtimecmp:
		return c.Mtimecmp, nil
	case clintMtime:
		return c.Mtime, nil
	default:
		return 0, nil
	}
}

// Write implements Device.
func (c *CLINT) Write(offset uint64, size int, value uint64) error {
	if size != 8 {
		return fmt.Errorf("clint: invalid access size %d", size)
	}
	switch offset {
	case clintMtimecmp:
		c.Mtimecmp = value
	case clintMtime:
		c.Mtime = value
	}
	return nil
}

// Pending reports whether mtimecmp <= mtime, i.e. a timer interrupt is due.
func (c *CLINT) Pending() bool {
	return c.Mtimecmp <= c.Mtime
}

var _ Device = (*CLINT)(nil)
