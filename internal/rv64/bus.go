package rv64

import (
	"encoding/binary"
	"fmt"
)

var busEndian = binary.LittleEndian

// Device is a memory-mapped peripheral. Implementations enforce their own
// access-size rule (§4.1) and return an error for any other size; the bus
// turns that into the appropriate access-fault cause.
type Device interface {
	Read(offset uint64, size int) (uint64, error)
	Write(offset uint64, size int, value uint64) error
}

// ramRegion is the contiguous guest RAM backing store.
type ramRegion struct {
	data []byte
}

func newRAMRegion(size uint64) *ramRegion {
	return &ramRegion{data: make([]byte, size)}
}

// Read implements Device. Size must be one of {1,2,4,8} bytes; it reads that
// many consecutive little-endian bytes starting at offset (§4.1).
func (r *ramRegion) Read(offset uint64, size int) (uint64, error) {
	if offset+uint64(size) > uint64(len(r.data)) {
		return 0, fmt.Errorf("ram read out of bounds: offset=0x%x size=%d", offset, size)
	}
	switch size {
	case 1:
		return uint64(r.data[offset]), nil
	case 2:
		return uint64(busEndian.Uint16(r.data[offset:])), nil
	case 4:
		return uint64(busEndian.Uint32(r.data[offset:])), nil
	case 8:
		return busEndian.Uint64(r.data[offset:]), nil
	default:
		return 0, fmt.Errorf("invalid ram access size: %d", size)
	}
}

// Write implements Device; see Read for the size rule.
func (r *ramRegion) Write(offset uint64, size int, value uint64) error {
	if offset+uint64(size) > uint64(len(r.data)) {
		return fmt.Errorf("ram write out of bounds: offset=0x%x size=%d", offset, size)
	}
	switch size {
	case 1:
		r.data[offset] = byte(value)
	case 2:
		busEndian.PutUint16(r.data[offset:], uint16(value))
	case 4:
		busEndian.PutUint32(r.data[offset:], uint32(value))
	case 8:
		busEndian.PutUint64(r.data[offset:], value)
	default:
		return fmt.Errorf("invalid ram access size: %d", size)
	}
	return nil
}

// deviceMapping is a half-open address range routed to a single device.
type deviceMapping struct {
	base uint64
	size uint64
	dev  Device
}

// Bus routes fetches/loads/stores by address to exactly one device or RAM
// (§4.1). Devices below RAMBase are checked in registration order; RAMBase
// and above always resolves to RAM.
type Bus struct {
	ram      *ramRegion
	mappings []deviceMapping
}

// NewBus creates a bus with RAMSize bytes of guest RAM at RAMBase.
func NewBus() *Bus {
	return &Bus{ram: newRAMRegion(RAMSize)}
}

// AddDevice maps dev at [base, base+size).
func (b *Bus) AddDevice(base, size uint64, dev Device) {
	b.mappings = append(b.mappings, deviceMapping{base: base, size: size, dev: dev})
}

// RAM exposes the backing store for the CLI driver's image loader and the
// host display pump's framebuffer sampling.
func (b *Bus) RAM() []byte { return b.ram.data }

func (b *Bus) find(addr uint64) (Device, uint64, error) {
	for _, m := range b.mappings {
		if addr >= m.base && addr < m.base+m.size {
			return m.dev, addr - m.base, nil
		}
	}
	if addr >= RAMBase {
		return b.ram, addr - RAMBase, nil
	}
	return nil, 0, fmt.Errorf("no device at address 0x%x", addr)
}

// Read performs a size-byte load from addr.
func (b *Bus) Read(addr uint64, size int) (uint64, error) {
	dev, offset, err := b.find(addr)
	if err != nil {
		return 0, err
	}
	return dev.Read(offset, size)
}

// Write performs a size-byte store to addr.
func (b *Bus) Write(addr uint64, size int, value uint64) error {
	dev, offset, err := b.find(addr)
	if err != nil {
		return err
	}
	return dev.Write(offset, size, value)
}

func (b *Bus) Read8(addr uint64) (uint8, error) {
	v, err := b.Read(addr, 1)
	return uint8(v), err
}

func (b *Bus) Read16(addr uint64) (uint16, error) {
	v, err := b.Read(addr, 2)
	return uint16(v), err
}

func (b *Bus) Read32(addr uint64) (uint32, error) {
	v, err := b.Read(addr, 4)
	return uint32(v), err
}

func (b *Bus) Read64(addr uint64) (uint64, error) {
	return b.Read(addr, 8)
}

func (b *Bus) Write8(addr uint64, v uint8) error  { return b.Write(addr, 1, uint64(v)) }
func (b *Bus) Write16(addr uint64, v uint16) error { return b.Write(addr, 2, uint64(v)) }
func (b *Bus) Write32(addr uint64, v uint32) error { return b.Write(addr, 4, uint64(v)) }
func (b *Bus) Write64(addr uint64, v uint64) error { return b.Write(addr, 8, v) }

// LoadImage copies data into RAM starting at addr. Used by the CLI driver to
// place the kernel image at RAMBase.
func (b *Bus) LoadImage(addr uint64, data []byte) error {
	if addr < RAMBase || addr+uint64(len(data)) > RAMBase+uint64(len(b.ram.data)) {
		return fmt.Errorf("image of %d bytes does not fit at 0x%x", len(data), addr)
	}
	copy(b.ram.data[addr-RAMBase:], data)
	return nil
}

// Fetch reads one 32-bit instruction word from a physical address.
func (b *Bus) Fetch(addr uint64) (uint32, error) {
	return b.Read32(addr)
}
