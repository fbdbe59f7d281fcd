// Package simpletimer implements a free-running countdown timer: loading a
// 32-bit count schedules an underflow count × cyclesPerTick machine cycles
// later, which raises a fixed-priority interrupt with a guest-programmable
// vector and reloads the count automatically. Reads of COUNT return the
// value last loaded (by a write or by the reload); the count is not
// decremented between underflows.
package simpletimer

import (
	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/device"
	"github.com/vindur/m68kbus/sched"
)

const (
	regCount  = 0x00 // 32-bit, read: last loaded count; write: autoload value
	regVector = 0x05 // 8-bit, read/write: vector delivered on underflow

	// interruptLevel is the fixed IPL this device asserts, per the
	// reference device contract.
	interruptLevel = 6

	tickTag = "tick"
)

// Timer is a countdown timer clocked by the machine's global cycle count.
// cyclesPerTick controls how many machine cycles each unit of the count
// lasts; with 1, an underflow comes count cycles after the load.
type Timer struct {
	device.Base

	cyclesPerTick uint64
	autoload      uint32
	count         uint32
	vector        uint8
}

// New constructs a Timer. cyclesPerTick must be at least 1.
func New(name string, scheduler *sched.Scheduler, now func() uint64, irq device.IRQLine, cyclesPerTick uint64) *Timer {
	if cyclesPerTick == 0 {
		cyclesPerTick = 1
	}
	t := &Timer{cyclesPerTick: cyclesPerTick}
	t.Base = device.NewBase(name, scheduler, now, irq)
	t.SetSelf(t)

	mustRegister(t.AddReadRegister(regCount, bus.Width32, t.readCount))
	mustRegister(t.AddWriteRegister(regCount, bus.Width32, t.writeCount))
	mustRegister(t.AddReadRegister(regVector, bus.Width8, t.readVector))
	mustRegister(t.AddWriteRegister(regVector, bus.Width8, t.writeVector))

	return t
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

func (t *Timer) readCount(uint32, bus.Width) uint32 { return t.count }

func (t *Timer) writeCount(_ uint32, _ bus.Width, value uint32) {
	t.autoload = value
	t.count = value
	t.DeassertIRQ()
	t.rearm()
}

func (t *Timer) readVector(uint32, bus.Width) uint32 { return uint32(t.vector) }

func (t *Timer) writeVector(_ uint32, _ bus.Width, value uint32) {
	t.vector = uint8(value)
}

// InterruptVector implements irq.VectorProvider: the timer's underflow
// interrupt is delivered with the guest-programmed vector, not an
// autovector.
func (t *Timer) InterruptVector(level uint8) (uint8, bool) {
	if level != interruptLevel {
		return 0, false
	}
	return t.vector, true
}

// Reset stops the countdown and clears the count and vector, shadowing
// device.Base's no-op Reset.
func (t *Timer) Reset() {
	t.CancelCallback(tickTag)
	t.autoload = 0
	t.count = 0
	t.vector = 0
	t.DeassertIRQ()
}

func (t *Timer) rearm() {
	t.CancelCallback(tickTag)
	if t.count == 0 {
		t.underflow()
		return
	}
	t.ScheduleAfter(tickTag, uint64(t.count)*t.cyclesPerTick, t.underflow)
}

func (t *Timer) underflow() {
	t.AssertIRQ(interruptLevel)
	t.count = t.autoload
	if t.autoload > 0 {
		t.ScheduleAfter(tickTag, uint64(t.autoload)*t.cyclesPerTick, t.underflow)
	}
}
