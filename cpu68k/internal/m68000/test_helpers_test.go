package m68000

import (
	"errors"
	"testing"
)

// RAM is a minimal flat, big-endian AddressBus used to exercise the CPU core
// in isolation from the module's page-mapped bus fabric. Production code
// composes the cpu68k wrapper with the bus package's PageTable instead.
type RAM struct {
	offset uint32
	mem    []byte
}

func NewRAM(offset, size uint32) RAM {
	return RAM{offset: offset, mem: make([]byte, size)}
}

func (r *RAM) rangeCheck(address uint32, s Size) bool {
	end := address + uint32(s) - 1
	return address >= r.offset && end < r.offset+uint32(len(r.mem))
}

func (r *RAM) Read(s Size, address uint32) (uint32, error) {
	if !r.rangeCheck(address, s) {
		return 0, BusError(address)
	}
	idx := address - r.offset
	switch s {
	case Byte:
		return uint32(r.mem[idx]), nil
	case Word:
		return uint32(r.mem[idx])<<8 | uint32(r.mem[idx+1]), nil
	default:
		return uint32(r.mem[idx])<<24 | uint32(r.mem[idx+1])<<16 | uint32(r.mem[idx+2])<<8 | uint32(r.mem[idx+3]), nil
	}
}

func (r *RAM) Write(s Size, address uint32, value uint32) error {
	if !r.rangeCheck(address, s) {
		return BusError(address)
	}
	idx := address - r.offset
	switch s {
	case Byte:
		r.mem[idx] = uint8(value)
	case Word:
		r.mem[idx] = uint8(value >> 8)
		r.mem[idx+1] = uint8(value)
	default:
		r.mem[idx] = uint8(value >> 24)
		r.mem[idx+1] = uint8(value >> 16)
		r.mem[idx+2] = uint8(value >> 8)
		r.mem[idx+3] = uint8(value)
	}
	return nil
}

func (r *RAM) Reset() {
	for i := range r.mem {
		r.mem[i] = 0
	}
}

func expectBusError(t *testing.T, err error) {
	t.Helper()
	var be BusError
	if err == nil || !errors.As(err, &be) {
		t.Fatalf("expected BusError, got %v", err)
	}
}

func expectAddressError(t *testing.T, err error) {
	t.Helper()
	var ae AddressError
	if err == nil || !errors.As(err, &ae) {
		t.Fatalf("expected BusError, got %v", err)
	}
}
