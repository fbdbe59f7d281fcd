// Package device provides the common substrate every memory-mapped
// peripheral is built on: register decode by (address, width, direction),
// an interrupt line, and access to the machine-wide callback scheduler.
package device

import (
	"errors"

	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/sched"
)

// ReadHandler answers a read of a decoded register.
type ReadHandler func(address uint32, width bus.Width) uint32

// WriteHandler services a write to a decoded register.
type WriteHandler func(address uint32, width bus.Width, value uint32)

type registerKey struct {
	address uint32
	width   bus.Width
}

var (
	ErrMisalignedRegister = errors.New("device: register address is not aligned to its width")
	ErrDuplicateRegister  = errors.New("device: a register is already registered at this address and width")
)

// IRQLine is the interrupt fabric a device asserts and deasserts its
// interrupt request against. *irq.Controller implements it.
type IRQLine interface {
	Assert(source any, level uint8)
	Deassert(source any)
}

// Base is embedded by every reference device. It supplies register decode,
// scheduling, and interrupt plumbing so a concrete device only has to
// describe its registers and behavior.
//
// Base implements bus.Device's Read and Write; a device with internal state
// to clear on reset defines its own Reset method, shadowing Base's no-op.
type Base struct {
	name string

	read  map[registerKey]ReadHandler
	write map[registerKey]WriteHandler

	scheduler *sched.Scheduler
	now       func() uint64
	irq       IRQLine

	trace    *bus.Trace
	accesses uint64

	// self is the identity asserted against irq, so that a device
	// implementing irq.VectorProvider on its own concrete type (not on
	// *Base) is the value the interrupt controller sees and can type-assert
	// at acknowledge time. Devices with a fixed autovector never need to
	// set this.
	self any
}

// NewBase constructs a device substrate. scheduler and now let the device
// schedule timed callbacks against the machine clock; irq may be nil for a
// device that never raises an interrupt.
func NewBase(name string, scheduler *sched.Scheduler, now func() uint64, irq IRQLine) Base {
	return Base{
		name:      name,
		read:      make(map[registerKey]ReadHandler),
		write:     make(map[registerKey]WriteHandler),
		scheduler: scheduler,
		now:       now,
		irq:       irq,
	}
}

// Name returns the device's diagnostic name, as given to NewBase.
func (b *Base) Name() string { return b.name }

// SetTrace installs a trace tap. Register accesses that hit a handler emit
// TraceRead/TraceWrite records; accesses to a decoded-but-unhandled offset
// within the device's own window emit TraceInvalidRead/TraceInvalidWrite
// records instead (the value read is zero).
func (b *Base) SetTrace(t *bus.Trace) { b.trace = t }

// AccessCount returns the number of register accesses served so far,
// successful or not.
func (b *Base) AccessCount() uint64 { return b.accesses }

func alignmentOK(address uint32, width bus.Width) bool {
	switch width {
	case bus.Width32:
		return address%4 == 0
	case bus.Width16:
		return address%2 == 0
	default:
		return true
	}
}

// AddReadRegister decodes address at the given width for reads, dispatching
// to fn. address and width must be internally consistent (a 16-bit register
// on an odd address is rejected) and unique among this device's read
// registers.
func (b *Base) AddReadRegister(address uint32, width bus.Width, fn ReadHandler) error {
	if !alignmentOK(address, width) {
		return ErrMisalignedRegister
	}
	key := registerKey{address, width}
	if _, exists := b.read[key]; exists {
		return ErrDuplicateRegister
	}
	b.read[key] = fn
	return nil
}

// AddWriteRegister is AddReadRegister's write-side counterpart. A register
// address can carry both a read and a write handler, registered separately;
// there is no combined read-write registration, matching the convention
// that a register decodes one direction at a time.
func (b *Base) AddWriteRegister(address uint32, width bus.Width, fn WriteHandler) error {
	if !alignmentOK(address, width) {
		return ErrMisalignedRegister
	}
	key := registerKey{address, width}
	if _, exists := b.write[key]; exists {
		return ErrDuplicateRegister
	}
	b.write[key] = fn
	return nil
}

// Read implements bus.Device. A decoded-but-unhandled offset within the
// device's own address window reads as zero rather than faulting the bus:
// real peripherals routinely leave gaps in their register map that read
// back as zero or undefined, and it is the page table's job to fault
// addresses outside any device's window, not the device's job to fault
// addresses inside its own.
func (b *Base) Read(address uint32, width bus.Width) (uint32, bool) {
	b.accesses++
	fn, ok := b.read[registerKey{address, width}]
	if !ok {
		b.emitTrace(bus.TraceInvalidRead, address, width, 0)
		return 0, true
	}
	value := fn(address, width)
	b.emitTrace(bus.TraceRead, address, width, value)
	return value, true
}

// Write implements bus.Device, with the same gap-reads-as-no-op reasoning
// as Read.
func (b *Base) Write(address uint32, width bus.Width, value uint32) bool {
	b.accesses++
	fn, ok := b.write[registerKey{address, width}]
	if !ok {
		b.emitTrace(bus.TraceInvalidWrite, address, width, value)
		return true
	}
	fn(address, width, value)
	b.emitTrace(bus.TraceWrite, address, width, value)
	return true
}

// Reset is the default, stateless reset. Devices that hold internal state
// define their own Reset, shadowing this one.
func (b *Base) Reset() {}

func (b *Base) emitTrace(kind bus.TraceKind, address uint32, width bus.Width, value uint32) {
	if !b.trace.Enabled() {
		return
	}
	b.trace.Emit(bus.Record{Kind: kind, Address: address, Width: uint8(width), Value: value})
}

// SetSelf records the concrete device Base is embedded in as the identity
// to assert against the interrupt controller. A device whose interrupt
// vector is resolved per-instance (it implements irq.VectorProvider on its
// own type) must call this once, from its constructor, with itself;
// otherwise the controller would see *Base and never find the method.
func (b *Base) SetSelf(self any) { b.self = self }

func (b *Base) identity() any {
	if b.self != nil {
		return b.self
	}
	return b
}

// AssertIRQ raises this device's interrupt request at level (1-7).
// Asserting the same level while already asserted is a no-op at the
// controller, so devices do not need to track their own current state.
func (b *Base) AssertIRQ(level uint8) {
	if b.irq != nil {
		b.irq.Assert(b.identity(), level)
	}
}

// DeassertIRQ lowers this device's interrupt request.
func (b *Base) DeassertIRQ() {
	if b.irq != nil {
		b.irq.Deassert(b.identity())
	}
}

// ScheduleAfter arranges for fire to run delay ticks from now, replacing
// any callback this device already has pending under tag.
func (b *Base) ScheduleAfter(tag string, delay uint64, fire func()) {
	b.scheduler.After(sched.Key{Owner: b, Tag: tag}, b.now(), delay, fire)
}

// ScheduleAt arranges for fire to run when the machine clock reaches
// deadline, replacing any callback this device already has pending under
// tag.
func (b *Base) ScheduleAt(tag string, deadline uint64, fire func()) {
	b.scheduler.At(sched.Key{Owner: b, Tag: tag}, deadline, fire)
}

// CancelCallback cancels any callback pending under tag. It is a no-op if
// none is pending.
func (b *Base) CancelCallback(tag string) {
	b.scheduler.Cancel(sched.Key{Owner: b, Tag: tag})
}

// HasPendingCallback reports whether a callback is currently scheduled
// under tag.
func (b *Base) HasPendingCallback(tag string) bool {
	return b.scheduler.Pending(sched.Key{Owner: b, Tag: tag})
}
