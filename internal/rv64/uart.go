package rv64

import (
	"fmt"
	"io"
	"sync"
)

// UART register offsets with side effects (§3, §4.7); the remaining 254
// bytes of the register file are plain storage.
const (
	uartRHR = 0 // receive holding (read) / transmit holding (write)
	uartLSR = 5 // line status

	uartLSRRxReady = 1 << 0
	uartLSRTxEmpty = 1 << 5
)

// flusher is implemented by output writers that buffer; THR writes flush
// immediately so guest console output appears without delay (§4.7).
type flusher interface {
	Flush() error
}

// UART is a 16550-subset serial device with a background input reader. The
// register file and interrupting flag are protected by a single mutex and
// condition variable (§5); every bus access to the UART acquires it.
type UART struct {
	mu   sync.Mutex
	cond *sync.Cond

	regs         [256]byte
	interrupting bool

	output io.Writer
}

// NewUART creates a UART that writes guest THR bytes to output. If input is
// non-nil, a background goroutine is started that reads one byte at a time
// and delivers it to the receive-holding register (§4.7, §5).
func NewUART(output io.Writer, input io.Reader) *UART {
	u := &UART{output: output, regs: [256]byte{uartLSR: uartLSRTxEmpty}}
	u.cond = sync.NewCond(&u.mu)
	if input != nil {
		go u.readInput(input)
	}
	return u
}

// readInput is the background UART input thread (§5). It may block
// indefinitely on host I/O and, once it has a byte, on the condition
// variable until the guest drains the previous one.
func (u *UART) readInput(input io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := input.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		u.mu.Lock()
		for u.regs[uartLSR]&uartLSRRxReady != 0 {
			u.cond.Wait()
		}
		u.regs[uartRHR] = buf[0]
		u.regs[uartLSR] |= uartLSRRxReady
		u.interrupting = true
		u.mu.Unlock()
	}
}

// Read implements Device. The UART only answers 8-bit accesses (§4.1).
func (u *UART) Read(offset uint64, size int) (uint64, error) {
	if size != 1 {
		return 0, fmt.Errorf("uart: invalid access size %d", size)
	}
	if offset >= 256 {
		return 0, fmt.Errorf("uart: offset 0x%x out of range", offset)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	switch offset {
	case uartRHR:
		data := u.regs[uartRHR]
		u.regs[uartLSR] &^= uartLSRRxReady
		u.cond.Broadcast()
		return uint64(data), nil
	default:
		return uint64(u.regs[offset]), nil
	}
}

// Write implements Device.
func (u *UART) Write(offset uint64, size int, value uint64) error {
	if size != 1 {
		return fmt.Errorf("uart: invalid access size %d", size)
	}
	if offset >= 256 {
		return fmt.Errorf("uart: offset 0x%x out of range", offset)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if offset == uartRHR {
		if u.output != nil {
			u.output.Write([]byte{byte(value)})
			if f, ok := u.output.(flusher); ok {
				f.Flush()
			}
		}
		return nil
	}

	u.regs[offset] = byte(value)
	return nil
}

// IsInterrupting atomically reads and clears the interrupting flag (§4.7).
func (u *UART) IsInterrupting() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	v := u.interrupting
	u.interrupting = false
	return v
}

var _ Device = (*UART)(nil)
