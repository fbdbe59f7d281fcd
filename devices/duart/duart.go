// Package duart implements a reference 68681-style Dual UART: two
// independent byte-oriented serial channels (A and B) sharing one counter/
// timer, one interrupt status/mask pair, and one interrupt vector register.
package duart

import (
	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/device"
	"github.com/vindur/m68kbus/sched"
)

// Per-channel register offsets, relative to the channel's own base
// (0x00 for A, 0x10 for B).
const (
	regMR  = 0x01 // mode register 1/2, alternating on each access
	regSRA = 0x03 // status (read) / clock select (write, unimplemented)
	regCR  = 0x05 // command
	regRTB = 0x07 // receive buffer (read) / transmit buffer (write)
)

// Shared (non-channel) register offsets.
const (
	regIPCR = 0x09 // input port change (read) / aux control (write)
	regISR  = 0x0b // interrupt status (read) / interrupt mask (write)
	regCUR  = 0x0d // counter MSB (read) / counter-timer upper (write)
	regCLR  = 0x0f // counter LSB (read) / counter-timer lower (write)
	regIVR  = 0x19 // interrupt vector
	regIPR  = 0x1b // input port (read) / output port config (write)
	regSCC  = 0x1d // start counter command (read) / output set (write)
	regSTC  = 0x1f // stop counter command (read) / output clear (write)
)

// selA and selB are added to a per-channel register offset to select
// channel A or channel B, so channel B's registers sit at 0x11, 0x13, 0x15
// and 0x17. The other offsets in 0x10-0x1f are the shared registers above.
const (
	selMask = 0x18
	selA    = 0x00
	selB    = 0x10
)

// Command register (CR) bits.
const (
	ctrlRXEN     = 0x01
	ctrlRXDIS    = 0x02
	ctrlTXEN     = 0x04
	ctrlTXDIS    = 0x08
	ctrlCmdMask  = 0xf0
	ctrlCmdMRRST = 0x10
	ctrlCmdRXRST = 0x20
	ctrlCmdTXRST = 0x30
)

// MR1 bit enabling the receiver-FIFO-full interrupt instead of
// receiver-ready.
const mr1FIFOFullEnable = 0x40

// Status register (SR) bits.
const (
	statusRXReady      = 0x01
	statusFIFOFull     = 0x02
	statusTXReady      = 0x04
	statusTXEmpty      = 0x08
	statusOverrunError = 0x10
)

// Interrupt status/mask register (ISR/IMR) bits.
const (
	isrATXReady = 0x01
	isrARXReady = 0x02
	isrBTXReady = 0x10
	isrBRXReady = 0x20
)

// interruptLevel is the fixed IPL the DUART asserts when ISR&IMR is
// non-zero; real hardware ties this to a board-specific line, but the
// reference device contract fixes it at level 5.
const interruptLevel = 5

// rxFIFOFullThreshold is the queue depth above which STATUS_FIFO_FULL is reported, matching the
// reference device's rxcount > 2 threshold.
const rxFIFOFullThreshold = 2

// channel is one of the two independent serial channels.
type channel struct {
	mr1, mr2 uint8
	mrAlt    bool
	rxEnable bool
	txEnable bool
	rx       []byte

	output func(byte)
}

func (c *channel) reset() {
	c.mr1, c.mr2 = 0, 0
	c.mrAlt = false
	c.rxEnable = false
	c.txEnable = false
	c.rx = nil
}

func (c *channel) status() uint8 {
	// The transmitter is modeled as always ready and always empty: there
	// is no shift-register delay.
	s := uint8(statusTXReady | statusTXEmpty)
	if n := len(c.rx); n > 0 {
		s |= statusRXReady
		if n > rxFIFOFullThreshold {
			s |= statusFIFOFull
		}
	}
	return s
}

func (c *channel) receiveInterrupt() bool {
	if c.mr1&mr1FIFOFullEnable != 0 {
		return c.status()&statusFIFOFull != 0
	}
	return c.status()&statusRXReady != 0
}

func (c *channel) transmitInterrupt() bool {
	return c.status()&statusTXReady != 0
}

func (c *channel) readMR() uint32 {
	if c.mrAlt {
		return uint32(c.mr2)
	}
	c.mrAlt = true
	return uint32(c.mr1)
}

func (c *channel) writeMR(value uint8) {
	if c.mrAlt {
		c.mr2 = value
	} else {
		c.mrAlt = true
		c.mr1 = value
	}
}

func (c *channel) readRB() uint32 {
	if len(c.rx) == 0 {
		return 0
	}
	b := c.rx[0]
	c.rx = c.rx[1:]
	return uint32(b)
}

func (c *channel) writeTB(value uint8) {
	if c.output != nil {
		c.output(value)
	}
}

func (c *channel) writeCR(value uint8) {
	if value&ctrlRXDIS != 0 {
		c.rxEnable = false
	} else if value&ctrlRXEN != 0 {
		c.rxEnable = true
	}
	if value&ctrlTXDIS != 0 {
		c.txEnable = false
	} else if value&ctrlTXEN != 0 {
		c.txEnable = true
	}

	switch value & ctrlCmdMask {
	case ctrlCmdMRRST:
		c.mrAlt = false
	case ctrlCmdRXRST:
		c.rxEnable = false
		c.rx = nil
	case ctrlCmdTXRST:
		c.txEnable = false
	}
}

// Receive queues a byte on the channel's receiver, as though it had
// arrived on the wire.
func (c *channel) receive(b byte) {
	c.rx = append(c.rx, b)
}

// DUART is a dual-channel serial controller with one shared counter/timer
// and interrupt vector. OutputA and OutputB, if non-nil, receive bytes
// transmitted on the corresponding channel.
type DUART struct {
	device.Base

	a, b channel

	imr uint8
	ivr uint8

	counter       uint16
	counterReload uint16
}

// New constructs a DUART. outputA/outputB may be nil to discard
// transmitted bytes on that channel.
func New(name string, scheduler *sched.Scheduler, now func() uint64, irq device.IRQLine, outputA, outputB func(byte)) *DUART {
	d := &DUART{}
	d.a.output = outputA
	d.b.output = outputB
	d.Base = device.NewBase(name, scheduler, now, irq)
	d.SetSelf(d)

	mustRegister(d.AddReadRegister(selA+regMR, bus.Width8, d.readChannelMR(&d.a)))
	mustRegister(d.AddWriteRegister(selA+regMR, bus.Width8, d.writeChannelMR(&d.a)))
	mustRegister(d.AddReadRegister(selA+regSRA, bus.Width8, d.readChannelSR(&d.a)))
	mustRegister(d.AddWriteRegister(selA+regCR, bus.Width8, d.writeChannelCR(&d.a)))
	mustRegister(d.AddReadRegister(selA+regRTB, bus.Width8, d.readChannelRB(&d.a)))
	mustRegister(d.AddWriteRegister(selA+regRTB, bus.Width8, d.writeChannelTB(&d.a)))

	mustRegister(d.AddReadRegister(selB+regMR, bus.Width8, d.readChannelMR(&d.b)))
	mustRegister(d.AddWriteRegister(selB+regMR, bus.Width8, d.writeChannelMR(&d.b)))
	mustRegister(d.AddReadRegister(selB+regSRA, bus.Width8, d.readChannelSR(&d.b)))
	mustRegister(d.AddWriteRegister(selB+regCR, bus.Width8, d.writeChannelCR(&d.b)))
	mustRegister(d.AddReadRegister(selB+regRTB, bus.Width8, d.readChannelRB(&d.b)))
	mustRegister(d.AddWriteRegister(selB+regRTB, bus.Width8, d.writeChannelTB(&d.b)))

	mustRegister(d.AddReadRegister(regIPCR, bus.Width8, d.readIPCR))
	mustRegister(d.AddReadRegister(regISR, bus.Width8, d.readISR))
	mustRegister(d.AddWriteRegister(regISR, bus.Width8, d.writeIMR))
	mustRegister(d.AddReadRegister(regCUR, bus.Width8, d.readCUR))
	mustRegister(d.AddWriteRegister(regCUR, bus.Width8, d.writeCTUR))
	mustRegister(d.AddReadRegister(regCLR, bus.Width8, d.readCLR))
	mustRegister(d.AddWriteRegister(regCLR, bus.Width8, d.writeCTLR))
	mustRegister(d.AddReadRegister(regIVR, bus.Width8, d.readIVR))
	mustRegister(d.AddWriteRegister(regIVR, bus.Width8, d.writeIVR))
	mustRegister(d.AddReadRegister(regIPR, bus.Width8, d.readIPR))
	mustRegister(d.AddReadRegister(regSCC, bus.Width8, d.readStartCounter))
	mustRegister(d.AddReadRegister(regSTC, bus.Width8, d.readStopCounter))

	return d
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

// ReceiveA queues a byte on channel A's receiver, raising the RX interrupt
// (if enabled) once queued.
func (d *DUART) ReceiveA(b byte) { d.a.receive(b); d.updateInterrupt() }

// ReceiveB is ReceiveA's channel B counterpart.
func (d *DUART) ReceiveB(b byte) { d.b.receive(b); d.updateInterrupt() }

func (d *DUART) readChannelMR(c *channel) device.ReadHandler {
	return func(uint32, bus.Width) uint32 { return c.readMR() }
}

func (d *DUART) writeChannelMR(c *channel) device.WriteHandler {
	return func(_ uint32, _ bus.Width, value uint32) {
		c.writeMR(uint8(value))
		d.updateInterrupt()
	}
}

func (d *DUART) readChannelSR(c *channel) device.ReadHandler {
	return func(uint32, bus.Width) uint32 { return uint32(c.status()) }
}

func (d *DUART) writeChannelCR(c *channel) device.WriteHandler {
	return func(_ uint32, _ bus.Width, value uint32) {
		c.writeCR(uint8(value))
		d.updateInterrupt()
	}
}

func (d *DUART) readChannelRB(c *channel) device.ReadHandler {
	return func(uint32, bus.Width) uint32 {
		v := c.readRB()
		d.updateInterrupt()
		return v
	}
}

func (d *DUART) writeChannelTB(c *channel) device.WriteHandler {
	return func(_ uint32, _ bus.Width, value uint32) {
		c.writeTB(uint8(value))
		d.updateInterrupt()
	}
}

func (d *DUART) readIPCR(uint32, bus.Width) uint32 { return 0x03 } // CTSA/CTSB always asserted

func (d *DUART) readISR(uint32, bus.Width) uint32 { return uint32(d.isr()) }

func (d *DUART) writeIMR(_ uint32, _ bus.Width, value uint32) {
	d.imr = uint8(value)
	d.updateInterrupt()
}

func (d *DUART) readCUR(uint32, bus.Width) uint32 { return uint32(d.counter >> 8) }
func (d *DUART) readCLR(uint32, bus.Width) uint32 { return uint32(d.counter & 0xff) }

func (d *DUART) writeCTUR(_ uint32, _ bus.Width, value uint32) {
	d.counterReload = (uint16(value) << 8) | (d.counterReload & 0xff)
}

func (d *DUART) writeCTLR(_ uint32, _ bus.Width, value uint32) {
	d.counterReload = (d.counterReload & 0xff00) | uint16(value)
}

func (d *DUART) readIVR(uint32, bus.Width) uint32 { return uint32(d.ivr) }

func (d *DUART) writeIVR(_ uint32, _ bus.Width, value uint32) { d.ivr = uint8(value) }

func (d *DUART) readIPR(uint32, bus.Width) uint32 { return 0x03 } // CTSA/CTSB always asserted

func (d *DUART) readStartCounter(uint32, bus.Width) uint32 {
	d.counter = d.counterReload
	return 0
}

func (d *DUART) readStopCounter(uint32, bus.Width) uint32 { return 0 }

// isr computes the interrupt status register from both channels' current
// status, clearing and rebuilding only the TX/RX bits the channels own (bit
// 2 counter-underflow and bits belonging to OP/IP are left untouched, since
// this reference device does not model them).
func (d *DUART) isr() uint8 {
	isr := uint8(0)
	if d.a.transmitInterrupt() {
		isr |= isrATXReady
	}
	if d.a.receiveInterrupt() {
		isr |= isrARXReady
	}
	if d.b.transmitInterrupt() {
		isr |= isrBTXReady
	}
	if d.b.receiveInterrupt() {
		isr |= isrBRXReady
	}
	return isr
}

// InterruptVector implements irq.VectorProvider: the entire DUART shares
// one interrupt vector register regardless of which channel or cause
// raised it, matching real 68681 behavior (the guest reads ISR to
// disambiguate the cause).
func (d *DUART) InterruptVector(level uint8) (uint8, bool) {
	if level != interruptLevel {
		return 0, false
	}
	return d.ivr, true
}

func (d *DUART) updateInterrupt() {
	if d.isr()&d.imr != 0 {
		d.AssertIRQ(interruptLevel)
	} else {
		d.DeassertIRQ()
	}
}

// Reset returns both channels and the shared registers to their power-on
// state, shadowing device.Base's no-op Reset.
func (d *DUART) Reset() {
	d.a.reset()
	d.b.reset()
	d.imr = 0
	d.ivr = 0x0f
	d.counter = 0
	d.counterReload = 0xffff
	d.DeassertIRQ()
}
