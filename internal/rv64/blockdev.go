package rv64

import "fmt"

// Block device register offsets, relative to BlockBase (§6).
const (
	blockMagic     = 0x00
	blockVersion   = 0x04
	blockNotify    = 0x08
	blockDirection = 0x0C
	blockAddrHigh  = 0x10
	blockAddrLow   = 0x14
	blockLenHigh   = 0x18
	blockLenLow    = 0x1C
	blockSector    = 0x20
	blockDone      = 0x24
)

const (
	blockMagicValue   uint32 = 0x666F7864
	blockVersionValue uint32 = 0x01

	// blockNotifyNone marks notify as "consumed"; any other value requests a
	// DMA transfer on the next interrupt poll (§4.8).
	blockNotifyNone uint32 = 0xFFFFFFFF

	sectorSize uint64 = 512
)

// BlockDevice is a custom MMIO block device that performs synchronous DMA
// on notify, rather than a virtio-conformant device (§1 Non-goals, §4.8).
type BlockDevice struct {
	AddrHigh, AddrLow uint32
	LenHigh, LenLow   uint32
	Sector            uint32
	Direction         uint32
	Notify            uint32
	Done              uint32

	// Backing is the host-owned disk image; nil if no disk was supplied.
	Backing []byte
}

// NewBlockDevice creates a block device backed by the given disk image.
func NewBlockDevice(backing []byte) *BlockDevice {
	return &BlockDevice{Notify: blockNotifyNone, Backing: backing}
}

// Read implements Device. The block device only answers 32-bit accesses
// (§4.1).
func (b *BlockDevice) Read(offset uint64, size int) (uint64, error) {
	if size != 4 {
		return 0, fmt.Errorf("block: invalid access size %d", size)
	}
	switch offset {
	case blockMagic:
		return uint64(blockMagicValue), nil
	case blockVersion:
		return uint64(blockVersionValue), nil
	case blockNotify:
		return uint64(b.Notify), nil
	case blockDirection:
		return uint64(b.Direction), nil
	case blockAddrHigh:
		return uint64(b.AddrHigh), nil
	case blockAddrLow:
		return uint64(b.AddrLow), nil
	case blockLenHigh:
		return uint64(b.LenHigh), nil
	case blockLenLow:
		return uint64(b.LenLow), nil
	case blockSector:
		return uint64(b.Sector), nil
	case blockDone:
		return uint64(b.Done), nil
	default:
		return 0, nil
	}
}

// Write implements Device.
func (b *BlockDevice) Write(offset uint64, size int, value uint64) error {
	if size != 4 {
		return fmt.Errorf("block: invalid access size %d", size)
	}
	v := uint32(value)
	switch offset {
	case blockNotify:
		b.Notify = v
	case blockDirection:
		b.Direction = v
	case blockAddrHigh:
		b.AddrHigh = v
	case blockAddrLow:
		b.AddrLow = v
	case blockLenHigh:
		b.LenHigh = v
	case blockLenLow:
		b.LenLow = v
	case blockSector:
		b.Sector = v
	case blockDone:
		b.Done = v
	}
	return nil
}

// Pending reports whether the guest has requested a DMA transfer that has
// not yet been serviced (§4.8).
func (b *BlockDevice) Pending() bool {
	return b.Notify != blockNotifyNone
}

// PerformDMA services one pending DMA request: a byte-by-byte copy between
// RAM and the backing buffer at sector*512. It widens the address and
// length to 64 bits before combining the high/low halves, rather than
// reproducing the 32-bit truncation bug in the original C source (§4.13 of
// SPEC_FULL.md; SPEC.md §9 Open Question). Any bus failure is fatal to the
// process (§4.8, §7).
func (b *BlockDevice) PerformDMA(bus *Bus) error {
	addr := uint64(b.AddrHigh)<<32 | uint64(b.AddrLow)
	length := uint64(b.LenHigh)<<32 | uint64(b.LenLow)
	diskOffset := uint64(b.Sector) * sectorSize

	if diskOffset+length > uint64(len(b.Backing)) {
		return fmt.Errorf("block: dma range [0x%x,0x%x) exceeds backing store of %d bytes", diskOffset, diskOffset+length, len(b.Backing))
	}

	for i := uint64(0); i < length; i++ {
		if b.Direction == 1 {
			// RAM -> disk
			v, err := bus.Read8(addr + i)
			if err != nil {
				return fmt.Errorf("block: dma read at 0x%x: %w", addr+i, err)
			}
			b.Backing[diskOffset+i] = v
		} else {
			// disk -> RAM
			if err := bus.Write8(addr+i, b.Backing[diskOffset+i]); err != nil {
				return fmt.Errorf("block: dma write at 0x%x: %w", addr+i, err)
			}
		}
	}

	if err := bus.Write32(BlockBase+blockDone, 0); err != nil {
		return fmt.Errorf("block: dma done write: %w", err)
	}
	b.Notify = blockNotifyNone
	return nil
}

var _ Device = (*BlockDevice)(nil)
