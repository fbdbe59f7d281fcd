package device

import (
	"testing"

	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/sched"
)

type fakeIRQ struct {
	asserted   map[any]uint8
	deasserted int
}

func newFakeIRQ() *fakeIRQ { return &fakeIRQ{asserted: make(map[any]uint8)} }

func (f *fakeIRQ) Assert(source any, level uint8) { f.asserted[source] = level }
func (f *fakeIRQ) Deassert(source any) {
	delete(f.asserted, source)
	f.deasserted++
}

func newTestBase(t *testing.T, irq IRQLine) (*Base, *sched.Scheduler) {
	t.Helper()
	s := sched.New()
	now := uint64(0)
	b := NewBase("test", s, func() uint64 { return now }, irq)
	return &b, s
}

func TestRegisterDecodeDispatch(t *testing.T) {
	b, _ := newTestBase(t, nil)
	var written uint32
	if err := b.AddWriteRegister(0x10, bus.Width8, func(addr uint32, w bus.Width, v uint32) {
		written = v
	}); err != nil {
		t.Fatalf("AddWriteRegister: %v", err)
	}
	if err := b.AddReadRegister(0x10, bus.Width8, func(addr uint32, w bus.Width) uint32 {
		return written
	}); err != nil {
		t.Fatalf("AddReadRegister: %v", err)
	}

	if ok := b.Write(0x10, bus.Width8, 0x42); !ok {
		t.Fatal("Write returned false")
	}
	v, ok := b.Read(0x10, bus.Width8)
	if !ok || v != 0x42 {
		t.Fatalf("Read = (%#x, %v), want (0x42, true)", v, ok)
	}
}

func TestUnhandledOffsetReadsZeroWithoutFaulting(t *testing.T) {
	b, _ := newTestBase(t, nil)
	v, ok := b.Read(0x99, bus.Width8)
	if !ok || v != 0 {
		t.Fatalf("Read = (%d, %v), want (0, true)", v, ok)
	}
	if ok := b.Write(0x99, bus.Width8, 5); !ok {
		t.Fatal("Write to unhandled offset should still decode as true")
	}
}

func TestMisalignedRegisterRejected(t *testing.T) {
	b, _ := newTestBase(t, nil)
	if err := b.AddReadRegister(1, bus.Width16, func(uint32, bus.Width) uint32 { return 0 }); err != ErrMisalignedRegister {
		t.Fatalf("got %v, want ErrMisalignedRegister", err)
	}
	if err := b.AddReadRegister(2, bus.Width32, func(uint32, bus.Width) uint32 { return 0 }); err != ErrMisalignedRegister {
		t.Fatalf("got %v, want ErrMisalignedRegister", err)
	}
}

func TestDuplicateRegisterRejected(t *testing.T) {
	b, _ := newTestBase(t, nil)
	fn := func(uint32, bus.Width) uint32 { return 0 }
	if err := b.AddReadRegister(0x10, bus.Width8, fn); err != nil {
		t.Fatalf("first AddReadRegister: %v", err)
	}
	if err := b.AddReadRegister(0x10, bus.Width8, fn); err != ErrDuplicateRegister {
		t.Fatalf("got %v, want ErrDuplicateRegister", err)
	}
}

func TestAssertDeassertIRQ(t *testing.T) {
	irq := newFakeIRQ()
	b, _ := newTestBase(t, irq)

	b.AssertIRQ(4)
	if irq.asserted[b] != 4 {
		t.Fatalf("asserted level = %d, want 4", irq.asserted[b])
	}
	b.DeassertIRQ()
	if _, still := irq.asserted[b]; still {
		t.Fatal("device still asserted after DeassertIRQ")
	}
}

func TestScheduleCallback(t *testing.T) {
	b, s := newTestBase(t, nil)
	fired := false
	b.ScheduleAfter("tick", 5, func() { fired = true })

	if !b.HasPendingCallback("tick") {
		t.Fatal("expected pending callback")
	}
	s.RunDue(4)
	if fired {
		t.Fatal("fired too early")
	}
	s.RunDue(5)
	if !fired {
		t.Fatal("callback did not fire")
	}
}

func TestCancelCallback(t *testing.T) {
	b, s := newTestBase(t, nil)
	fired := false
	b.ScheduleAfter("tick", 5, func() { fired = true })
	b.CancelCallback("tick")

	s.RunDue(100)
	if fired {
		t.Fatal("cancelled callback fired")
	}
}

func TestAccessCounter(t *testing.T) {
	b, _ := newTestBase(t, nil)
	b.Read(0x10, bus.Width8)
	b.Write(0x10, bus.Width8, 1)
	if b.AccessCount() != 2 {
		t.Fatalf("AccessCount() = %d, want 2", b.AccessCount())
	}
}
