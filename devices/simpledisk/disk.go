// Package simpledisk implements a minimal block device: program a sector
// number and count, issue a read or write command, then pump the transfer
// four bytes at a time through a single data register.
package simpledisk

import (
	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/device"
	"github.com/vindur/m68kbus/sched"
)

const (
	regSector = 0x00 // 32-bit, read/write: starting LBA
	regCount  = 0x04 // 32-bit, write: sector count for the next transfer;
	// read: bytes remaining in the transfer currently in progress
	regStatusCmd = 0x08 // 32-bit, read: status; write: command
	regData      = 0x0C // 32-bit, read/write: transfer data window

	// SectorSize is the fixed block size, matching the reference device.
	SectorSize = 512
)

// Status values reported at regStatusCmd.
const (
	StatusIdle      = 0
	StatusNotReady  = 1
	StatusError     = 2
	StatusDataReady = 3
)

// Commands accepted at regStatusCmd.
const (
	CmdRead  = 1
	CmdWrite = 2
)

// Disk is a flat array of fixed-size sectors backed by an in-memory image.
// A production embedding would back Image with a memory-mapped or streamed
// file; the register semantics here are independent of that choice.
type Disk struct {
	device.Base

	image []byte // whole-disk backing store, a multiple of SectorSize

	sector uint32
	count  uint32
	status uint32

	buf    []byte
	offset int
	mode   uint32 // CmdRead or CmdWrite while buf is non-empty
}

// New constructs a Disk backed by image, which must be a whole number of
// sectors. A nil or empty image models a drive with no media: every
// transfer fails with StatusError, matching the reference "no device"
// fault behavior.
func New(name string, scheduler *sched.Scheduler, now func() uint64, irq device.IRQLine, image []byte) *Disk {
	d := &Disk{image: image}
	d.Base = device.NewBase(name, scheduler, now, irq)
	d.SetSelf(d)

	mustRegister(d.AddReadRegister(regSector, bus.Width32, d.readSector))
	mustRegister(d.AddWriteRegister(regSector, bus.Width32, d.writeSector))
	mustRegister(d.AddReadRegister(regCount, bus.Width32, d.readCount))
	mustRegister(d.AddWriteRegister(regCount, bus.Width32, d.writeCount))
	mustRegister(d.AddReadRegister(regStatusCmd, bus.Width32, d.readStatus))
	mustRegister(d.AddWriteRegister(regStatusCmd, bus.Width32, d.writeCommand))
	mustRegister(d.AddReadRegister(regData, bus.Width32, d.readData))
	mustRegister(d.AddWriteRegister(regData, bus.Width32, d.writeData))

	return d
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

func (d *Disk) sectorCount() uint32 { return uint32(len(d.image)) / SectorSize }

func (d *Disk) readSector(uint32, bus.Width) uint32 { return d.sector }
func (d *Disk) writeSector(_ uint32, _ bus.Width, value uint32) {
	d.sector = value
}

// readCount answers the bytes remaining in the transfer in progress, or,
// when no transfer is in progress, the disk's total sector count: a guest
// probes capacity through this register before ever issuing a command
// (see tests/simple/main.c's `DISK_SIZE != 8` check, done immediately
// after the not-ready check and before any read or write), so SIZE-on-read
// must report capacity at that point, not zero.
func (d *Disk) readCount(uint32, bus.Width) uint32 {
	if d.buf == nil {
		return d.sectorCount()
	}
	return uint32(len(d.buf) - d.offset)
}

func (d *Disk) writeCount(_ uint32, _ bus.Width, value uint32) {
	d.count = value
}

func (d *Disk) readStatus(uint32, bus.Width) uint32 { return d.status }

func (d *Disk) writeCommand(_ uint32, _ bus.Width, value uint32) {
	switch value {
	case CmdRead:
		d.beginRead()
	case CmdWrite:
		d.beginWrite()
	}
}

func (d *Disk) beginRead() {
	start, end, ok := d.transferBounds()
	if !ok {
		d.status = StatusError
		return
	}
	d.buf = append([]byte(nil), d.image[start:end]...)
	d.offset = 0
	d.mode = CmdRead
	d.status = StatusDataReady
}

func (d *Disk) beginWrite() {
	_, _, ok := d.transferBounds()
	if !ok {
		d.status = StatusError
		return
	}
	d.buf = make([]byte, d.count*SectorSize)
	d.offset = 0
	d.mode = CmdWrite
	d.status = StatusDataReady
}

func (d *Disk) transferBounds() (start, end uint32, ok bool) {
	if len(d.image) == 0 {
		return 0, 0, false
	}
	if d.count == 0 {
		return 0, 0, false
	}
	if d.sector+d.count > d.sectorCount() {
		return 0, 0, false
	}
	start = d.sector * SectorSize
	end = start + d.count*SectorSize
	return start, end, true
}

func (d *Disk) readData(uint32, bus.Width) uint32 {
	if d.mode != CmdRead || d.offset+4 > len(d.buf) {
		return 0
	}
	v := be32(d.buf[d.offset:])
	d.offset += 4
	if d.offset >= len(d.buf) {
		d.finishTransfer()
	}
	return v
}

func (d *Disk) writeData(_ uint32, _ bus.Width, value uint32) {
	if d.mode != CmdWrite || d.offset+4 > len(d.buf) {
		return
	}
	putBE32(d.buf[d.offset:], value)
	d.offset += 4
	if d.offset >= len(d.buf) {
		start := d.sector * SectorSize
		copy(d.image[start:], d.buf)
		d.finishTransfer()
	}
}

func (d *Disk) finishTransfer() {
	d.buf = nil
	d.offset = 0
	d.status = StatusIdle
}

// Reset aborts any transfer in progress and clears status, shadowing
// device.Base's no-op Reset.
func (d *Disk) Reset() {
	d.sector = 0
	d.count = 0
	d.buf = nil
	d.offset = 0
	d.mode = 0
	if len(d.image) == 0 {
		d.status = StatusNotReady
	} else {
		d.status = StatusIdle
	}
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
