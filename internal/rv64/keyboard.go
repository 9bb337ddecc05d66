package rv64

import (
	"fmt"
	"sync"
)

// keyboardQueueCap bounds the host-side key-code FIFO; a host producer that
// outruns the guest simply drops the oldest pending code.
const keyboardQueueCap = 64

// Keyboard is a read-only MMIO port returning one queued key code per read,
// or zero if nothing is queued (§3, §6). The host keyboard capture that
// fills the queue is an external collaborator (§1 Non-goals); Push is its
// only consumer-facing entry point.
type Keyboard struct {
	mu    sync.Mutex
	queue []uint32
}

func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Push enqueues a key code from the host capture source.
func (k *Keyboard) Push(code uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.queue) >= keyboardQueueCap {
		k.queue = k.queue[1:]
	}
	k.queue = append(k.queue, code)
}

// Read implements Device. Each read dequeues one code; the case is terminal
// (§9 Open Question: do not fall through past it).
func (k *Keyboard) Read(offset uint64, size int) (uint64, error) {
	if size != 4 {
		return 0, fmt.Errorf("keyboard: invalid access size %d", size)
	}
	if offset != 0 {
		return 0, nil
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.queue) == 0 {
		return 0, nil
	}
	code := k.queue[0]
	k.queue = k.queue[1:]
	return uint64(code), nil
}

// Write implements Device; the keyboard port is read-only, writes are
// silently dropped.
func (k *Keyboard) Write(offset uint64, size int, value uint64) error {
	if size != 4 {
		return fmt.Errorf("keyboard: invalid access size %d", size)
	}
	return nil
}

var _ Device = (*Keyboard)(nil)
