// Package simpleuart implements a minimal byte-oriented UART: a status
// register, one-byte transmit/receive data register, a control register
// enabling TX/RX interrupts, and a single shared interrupt vector.
package simpleuart

import (
	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/device"
	"github.com/vindur/m68kbus/sched"
)

const (
	regSR = 0x01 // status, read-only
	regDR = 0x03 // data, read (dequeue) / write (transmit)
	regCR = 0x05 // control, read/write
	regVR = 0x07 // interrupt vector, read/write

	statusRXRDY = 0x01
	statusTXRDY = 0x02

	ctrlRXIE = 0x01
	ctrlTXIE = 0x02

	interruptLevel = 4
)

// Output receives bytes the guest transmits.
type Output func(b byte)

// UART is a single-channel byte UART. Received bytes are queued with
// Receive; transmitted bytes are delivered to the Output function given at
// construction. The transmitter is always ready (there is no transmit
// shift-register delay modeled).
type UART struct {
	device.Base

	output Output
	rx     []byte
	ctrl   uint8
	vector uint8
}

// New constructs a UART. output may be nil to discard transmitted bytes.
func New(name string, scheduler *sched.Scheduler, now func() uint64, irq device.IRQLine, output Output) *UART {
	u := &UART{output: output}
	u.Base = device.NewBase(name, scheduler, now, irq)
	u.SetSelf(u)

	mustRegister(u.AddReadRegister(regSR, bus.Width8, u.readStatus))
	mustRegister(u.AddReadRegister(regDR, bus.Width8, u.readData))
	mustRegister(u.AddWriteRegister(regDR, bus.Width8, u.writeData))
	mustRegister(u.AddReadRegister(regCR, bus.Width8, u.readControl))
	mustRegister(u.AddWriteRegister(regCR, bus.Width8, u.writeControl))
	mustRegister(u.AddReadRegister(regVR, bus.Width8, u.readVector))
	mustRegister(u.AddWriteRegister(regVR, bus.Width8, u.writeVector))

	return u
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// Receive queues a byte as though it arrived on the wire, raising RXRDY (and
// the RX interrupt, if enabled) once queued.
func (u *UART) Receive(b byte) {
	u.rx = append(u.rx, b)
	u.updateInterrupt()
}

func (u *UART) status() uint8 {
	status := uint8(statusTXRDY)
	if len(u.rx) > 0 {
		status |= statusRXRDY
	}
	return status
}

func (u *UART) readStatus(uint32, bus.Width) uint32 { return uint32(u.status()) }

func (u *UART) readData(uint32, bus.Width) uint32 {
	if len(u.rx) == 0 {
		return 0
	}
	b := u.rx[0]
	u.rx = u.rx[1:]
	u.updateInterrupt()
	return uint32(b)
}

func (u *UART) writeData(_ uint32, _ bus.Width, value uint32) {
	if u.output != nil {
		u.output(byte(value))
	}
	u.updateInterrupt()
}

func (u *UART) readControl(uint32, bus.Width) uint32 { return uint32(u.ctrl) }

func (u *UART) writeControl(_ uint32, _ bus.Width, value uint32) {
	u.ctrl = uint8(value)
	u.updateInterrupt()
}

func (u *UART) readVector(uint32, bus.Width) uint32 { return uint32(u.vector) }

func (u *UART) writeVector(_ uint32, _ bus.Width, value uint32) {
	u.vector = uint8(value)
}

// InterruptVector implements irq.VectorProvider.
func (u *UART) InterruptVector(level uint8) (uint8, bool) {
	if level != interruptLevel {
		return 0, false
	}
	return u.vector, true
}

func (u *UART) updateInterrupt() {
	status := u.status()
	want := (u.ctrl&ctrlTXIE != 0 && status&statusTXRDY != 0) ||
		(u.ctrl&ctrlRXIE != 0 && status&statusRXRDY != 0)
	if want {
		u.AssertIRQ(interruptLevel)
	} else {
		u.DeassertIRQ()
	}
}

// Reset clears the receive queue, control, and vector registers, shadowing
// device.Base's no-op Reset.
func (u *UART) Reset() {
	u.rx = nil
	u.ctrl = 0
	u.vector = 0
	u.DeassertIRQ()
}
