// Package idecf implements a reference IDE/CompactFlash register block: a
// 16-byte ATA-style task-file window addressing one LBA28-mapped device,
// backed by a flat sector image.
package idecf

import (
	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/device"
	"github.com/vindur/m68kbus/sched"
)

// Task-file register offsets within the device's 16-byte window.
const (
	regData16       = 0x00 // 16-bit, read/write: data port
	regData8        = 0x01 // 8-bit, read/write: data port, byte alias
	regErrorFeature = 0x03 // read: error; write: feature (unused)
	regSectorCount  = 0x05
	regSectorNumber = 0x07
	regCylinderLow  = 0x09
	regCylinderHigh = 0x0b
	regDriveHead    = 0x0d
	regStatusCmd    = 0x0f // read: status; write: command

	// SectorSize is the fixed block size.
	SectorSize = 512
)

// Status register bits.
const (
	statusErr  = 0x01
	statusDRQ  = 0x08
	statusDF   = 0x20 // device fault: no media present
	statusDRDY = 0x40
	statusBSY  = 0x80
)

// Error register bits.
const (
	errorIDNotFound    = 0x10
	errorUncorrectable = 0x40
)

// Drive/head register bits.
const (
	drhLBAEnable = 0x40
	drhDevice1   = 0x10
	drhHeadMask  = 0x0f
)

// Commands accepted at regStatusCmd.
const (
	CmdReadSectors     = 0x20
	CmdWriteSectors    = 0x30
	CmdIdentifyDevice  = 0xec
)

// transferMode tracks which direction, if any, a data-port access is
// currently valid for.
type transferMode uint8

const (
	modeNone transferMode = iota
	modeRead
	modeWrite
)

// Drive is a single IDE/CompactFlash task-file register block, backed by
// image, a flat byte slice that must be a whole number of SectorSize
// blocks. A nil or empty image models a drive with no media present: every
// command fails with STATUS_DF/ERROR_UNCORRECTABLE, matching the
// reference device's "no file" fault path.
type Drive struct {
	device.Base

	image []byte

	errorReg    uint8
	sectorCount uint8
	sectorNum   uint8
	cylinder    uint16
	driveHead   uint8
	status      uint8

	mode    transferMode
	buf     []byte
	remain  int
}

// New constructs a Drive. image may be nil for a drive with no media.
func New(name string, scheduler *sched.Scheduler, now func() uint64, irq device.IRQLine, image []byte) *Drive {
	d := &Drive{image: image}
	d.Base = device.NewBase(name, scheduler, now, irq)
	d.SetSelf(d)

	mustRegister(d.AddReadRegister(regData16, bus.Width16, d.readData))
	mustRegister(d.AddWriteRegister(regData16, bus.Width16, d.writeData))
	mustRegister(d.AddReadRegister(regData8, bus.Width8, d.readData))
	mustRegister(d.AddWriteRegister(regData8, bus.Width8, d.writeData))
	mustRegister(d.AddReadRegister(regErrorFeature, bus.Width8, d.readError))
	mustRegister(d.AddWriteRegister(regErrorFeature, bus.Width8, d.writeFeature))
	mustRegister(d.AddReadRegister(regSectorCount, bus.Width8, d.readSectorCount))
	mustRegister(d.AddWriteRegister(regSectorCount, bus.Width8, d.writeSectorCount))
	mustRegister(d.AddReadRegister(regSectorNumber, bus.Width8, d.readSectorNumber))
	mustRegister(d.AddWriteRegister(regSectorNumber, bus.Width8, d.writeSectorNumber))
	mustRegister(d.AddReadRegister(regCylinderLow, bus.Width8, d.readCylinderLow))
	mustRegister(d.AddWriteRegister(regCylinderLow, bus.Width8, d.writeCylinderLow))
	mustRegister(d.AddReadRegister(regCylinderHigh, bus.Width8, d.readCylinderHigh))
	mustRegister(d.AddWriteRegister(regCylinderHigh, bus.Width8, d.writeCylinderHigh))
	mustRegister(d.AddReadRegister(regDriveHead, bus.Width8, d.readDriveHead))
	mustRegister(d.AddWriteRegister(regDriveHead, bus.Width8, d.writeDriveHead))
	mustRegister(d.AddReadRegister(regStatusCmd, bus.Width8, d.readStatus))
	mustRegister(d.AddWriteRegister(regStatusCmd, bus.Width8, d.writeCommand))

	d.Reset()
	return d
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

func (d *Drive) hasMedia() bool { return len(d.image) > 0 }

func (d *Drive) sectorCapacity() uint32 { return uint32(len(d.image)) / SectorSize }

func (d *Drive) readData(_ uint32, width bus.Width) uint32 {
	if d.mode != modeRead {
		return 0
	}
	n := 1
	if width == bus.Width16 {
		n = 2
	}
	if d.remain < n {
		return 0
	}
	var v uint32
	if n == 1 {
		v = uint32(d.buf[0])
	} else {
		v = uint32(d.buf[0]) | uint32(d.buf[1])<<8
	}
	d.buf = d.buf[n:]
	d.remain -= n
	if d.remain == 0 {
		d.endTransfer()
	}
	return v
}

func (d *Drive) writeData(_ uint32, width bus.Width, value uint32) {
	if d.mode != modeWrite {
		return
	}
	n := 1
	if width == bus.Width16 {
		n = 2
	}
	if d.remain < n {
		return
	}
	off := len(d.buf) - d.remain
	d.buf[off] = byte(value)
	if n == 2 {
		d.buf[off+1] = byte(value >> 8)
	}
	d.remain -= n
	if d.remain == 0 {
		d.flushWrite()
		d.endTransfer()
	}
}

func (d *Drive) readError(uint32, bus.Width) uint32        { return uint32(d.errorReg) }
func (d *Drive) writeFeature(_ uint32, _ bus.Width, _ uint32) {}

func (d *Drive) readSectorCount(uint32, bus.Width) uint32 { return uint32(d.sectorCount) }
func (d *Drive) writeSectorCount(_ uint32, _ bus.Width, value uint32) {
	d.sectorCount = uint8(value)
}

func (d *Drive) readSectorNumber(uint32, bus.Width) uint32 { return uint32(d.sectorNum) }
func (d *Drive) writeSectorNumber(_ uint32, _ bus.Width, value uint32) {
	d.sectorNum = uint8(value)
}

func (d *Drive) readCylinderLow(uint32, bus.Width) uint32 { return uint32(d.cylinder & 0xff) }
func (d *Drive) writeCylinderLow(_ uint32, _ bus.Width, value uint32) {
	d.cylinder = (d.cylinder &^ 0xff) | uint16(value)
}

func (d *Drive) readCylinderHigh(uint32, bus.Width) uint32 { return uint32(d.cylinder >> 8) }
func (d *Drive) writeCylinderHigh(_ uint32, _ bus.Width, value uint32) {
	d.cylinder = (d.cylinder & 0x00ff) | uint16(value)<<8
}

func (d *Drive) readDriveHead(uint32, bus.Width) uint32 { return uint32(d.driveHead) }
func (d *Drive) writeDriveHead(_ uint32, _ bus.Width, value uint32) {
	d.driveHead = uint8(value)
}

func (d *Drive) readStatus(uint32, bus.Width) uint32 { return uint32(d.status) }

func (d *Drive) writeCommand(_ uint32, _ bus.Width, value uint32) {
	switch value {
	case CmdReadSectors:
		d.beginTransfer(modeRead)
	case CmdWriteSectors:
		d.beginTransfer(modeWrite)
	case CmdIdentifyDevice:
		d.identify()
	default:
		d.status |= statusErr
		d.errorReg = errorIDNotFound
	}
}

// lba returns the 28-bit logical block address selected by the task-file
// registers. Only LBA addressing is supported; CHS-mode accesses (LBA
// enable bit clear) fail with ID_NOT_FOUND, as does a selection of device
// 1 (honored but never backed).
func (d *Drive) lba() (uint32, bool) {
	if d.driveHead&drhDevice1 != 0 {
		return 0, false
	}
	if d.driveHead&drhLBAEnable == 0 {
		return 0, false
	}
	l := uint32(d.sectorNum)
	l |= uint32(d.cylinder) << 8
	l |= uint32(d.driveHead&drhHeadMask) << 24
	return l, true
}

func (d *Drive) sectorsRequested() uint32 {
	if d.sectorCount == 0 {
		return 256
	}
	return uint32(d.sectorCount)
}

func (d *Drive) beginTransfer(mode transferMode) {
	d.status &^= statusErr | statusDRQ
	d.errorReg = 0

	if !d.hasMedia() {
		d.fail(errorUncorrectable)
		return
	}
	lba, ok := d.lba()
	if !ok {
		d.fail(errorIDNotFound)
		return
	}
	n := d.sectorsRequested()
	if lba+n > d.sectorCapacity() {
		d.fail(errorUncorrectable)
		return
	}

	byteCount := int(n) * SectorSize
	if mode == modeRead {
		start := int(lba) * SectorSize
		d.buf = append([]byte(nil), d.image[start:start+byteCount]...)
	} else {
		d.buf = make([]byte, byteCount)
	}
	d.remain = byteCount
	d.mode = mode
	d.status |= statusDRQ
}

// identify fills the data port with a minimal 256-word IDENTIFY DEVICE
// response: every field other than the sector count is zero, which is
// enough for a guest that only probes capacity.
func (d *Drive) identify() {
	d.status &^= statusErr | statusDRQ
	d.errorReg = 0
	if !d.hasMedia() {
		d.fail(errorUncorrectable)
		return
	}
	buf := make([]byte, 512)
	capacity := d.sectorCapacity()
	buf[60*2] = byte(capacity)
	buf[60*2+1] = byte(capacity >> 8)
	buf[61*2] = byte(capacity >> 16)
	buf[61*2+1] = byte(capacity >> 24)
	d.buf = buf
	d.remain = len(buf)
	d.mode = modeRead
	d.status |= statusDRQ
}

func (d *Drive) fail(errBit uint8) {
	d.status |= statusErr
	d.errorReg = errBit
}

func (d *Drive) flushWrite() {
	lba, ok := d.lba()
	if !ok {
		return
	}
	start := int(lba) * SectorSize
	copy(d.image[start:], d.buf)
}

func (d *Drive) endTransfer() {
	d.mode = modeNone
	d.buf = nil
	d.status &^= statusDRQ
}

// Reset returns the drive to its power-on task-file state, shadowing
// device.Base's no-op Reset.
func (d *Drive) Reset() {
	d.errorReg = 0
	d.sectorCount = 0
	d.sectorNum = 0
	d.cylinder = 0
	d.driveHead = 0
	d.mode = modeNone
	d.buf = nil
	d.remain = 0
	if d.hasMedia() {
		d.status = statusDRDY
	} else {
		d.status = statusDF
	}
}
