package bus

import (
	"errors"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x1000, pageSize, true, nil, "ram"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}

	if err := pt.Write(0x1000, Width32, 0x11223344); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := pt.Read(0x1000, Width32)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 0x11223344 {
		t.Fatalf("got %#x, want %#x", got, 0x11223344)
	}

	// Big-endian: the high byte lands at the lowest address.
	b, err := pt.Read(0x1000, Width8)
	if err != nil {
		t.Fatalf("Read byte: %v", err)
	}
	if b != 0x11 {
		t.Fatalf("high byte = %#x, want 0x11", b)
	}
}

func TestOverlapPrevention(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x1000, pageSize, true, nil, "a"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	if err := pt.AddMemory(0x1000, pageSize, true, nil, "b"); !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}
	// Partial overlap should also be rejected: [0x0000, 0x2000) shares its
	// second page with "a".
	if err := pt.AddMemory(0x1000-pageSize, 2*pageSize, true, nil, "c"); !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap on partial overlap, got %v", err)
	}
}

func TestMisalignedMappingRejected(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(1, pageSize, true, nil, "odd"); !errors.Is(err, ErrMisaligned) {
		t.Fatalf("expected ErrMisaligned, got %v", err)
	}
	if err := pt.AddMemory(0x1000, pageSize+1, true, nil, "odd size"); !errors.Is(err, ErrMisaligned) {
		t.Fatalf("expected ErrMisaligned, got %v", err)
	}
}

func TestRemoveMemoryLeavesNoGhostMapping(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x2000, pageSize, true, nil, "ram"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	if err := pt.RemoveMemory(0x2000); err != nil {
		t.Fatalf("RemoveMemory: %v", err)
	}
	if err := pt.RemoveMemory(0x2000); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double remove, got %v", err)
	}

	pt.SetBusErrorEnabled(true)
	if _, err := pt.Read(0x2000, Width8); !errors.As(err, &BusFault{}) {
		t.Fatalf("expected BusFault reading unmapped hole, got %v", err)
	}

	// The freed slot must be reusable.
	if err := pt.AddMemory(0x3000, pageSize, true, nil, "reuse"); err != nil {
		t.Fatalf("AddMemory after remove: %v", err)
	}
}

func TestMoveMemoryPreservesContents(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x1000, pageSize, true, []byte{1, 2, 3, 4}, "ram"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	if err := pt.MoveMemory(0x1000, 0x5000); err != nil {
		t.Fatalf("MoveMemory: %v", err)
	}
	got, err := pt.Read(0x5000, Width32)
	if err != nil {
		t.Fatalf("Read after move: %v", err)
	}
	if got != 0x01020304 {
		t.Fatalf("got %#x, want 0x01020304", got)
	}
	pt.SetBusErrorEnabled(true)
	if _, err := pt.Read(0x1000, Width8); !errors.As(err, &BusFault{}) {
		t.Fatalf("expected old location to fault after move, got %v", err)
	}
}

func TestBusErrorGenerationKnob(t *testing.T) {
	pt := New()

	// Disabled: silent zero-read, dropped write, no error.
	v, err := pt.Read(0xdead0000, Width16)
	if err != nil || v != 0 {
		t.Fatalf("disabled: got (%v, %v), want (0, nil)", v, err)
	}
	if err := pt.Write(0xdead0000, Width16, 0x1234); err != nil {
		t.Fatalf("disabled write: %v", err)
	}

	pt.SetBusErrorEnabled(true)
	if _, err := pt.Read(0xdead0000, Width16); !errors.As(err, &BusFault{}) {
		t.Fatalf("enabled: expected BusFault, got %v", err)
	}
}

func TestUnalignedAccessFaultsWhenEnabled(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x1000, pageSize, true, nil, "ram"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	pt.SetBusErrorEnabled(true)

	if _, err := pt.Read(0x1001, Width16); !errors.As(err, &BusFault{}) {
		t.Fatalf("expected BusFault on odd word read, got %v", err)
	}

	pt.SetBusErrorEnabled(false)
	if _, err := pt.Read(0x1001, Width16); err != nil {
		t.Fatalf("disabled: unaligned read should not fault, got %v", err)
	}
}

type fakeDevice struct {
	reg   uint32
	reset int
}

func (d *fakeDevice) Read(address uint32, width Width) (uint32, bool) {
	if address != 0x9000 {
		return 0, false
	}
	return d.reg, true
}

func (d *fakeDevice) Write(address uint32, width Width, value uint32) bool {
	if address != 0x9000 {
		return false
	}
	d.reg = value
	return true
}

func (d *fakeDevice) Reset() { d.reset++ }

func TestDeviceDispatch(t *testing.T) {
	pt := New()
	dev := &fakeDevice{}
	if err := pt.AddDevice(0x9000, 4, dev, "fake"); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	if err := pt.Write(0x9000, Width32, 42); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if dev.reg != 42 {
		t.Fatalf("device register = %d, want 42", dev.reg)
	}

	got, err := pt.Read(0x9000, Width32)
	if err != nil || got != 42 {
		t.Fatalf("Read = (%d, %v), want (42, nil)", got, err)
	}

	pt.SetBusErrorEnabled(true)
	if _, err := pt.Read(0x9004, Width8); !errors.As(err, &BusFault{}) {
		t.Fatalf("expected BusFault for address the device declines, got %v", err)
	}
}

func TestTooManySlots(t *testing.T) {
	pt := New()
	for i := 0; i < MaxSlots; i++ {
		base := uint32(i) * pageSize
		if err := pt.AddMemory(base, pageSize, true, nil, "ram"); err != nil {
			t.Fatalf("AddMemory %d: %v", i, err)
		}
	}
	if err := pt.AddMemory(uint32(MaxSlots)*pageSize, pageSize, true, nil, "overflow"); !errors.Is(err, ErrTooManySlots) {
		t.Fatalf("expected ErrTooManySlots, got %v", err)
	}
}

func TestRegionsAndDevicesHaveIndependentSlotBudgets(t *testing.T) {
	pt := New()
	for i := 0; i < MaxSlots; i++ {
		base := uint32(i) * pageSize
		if err := pt.AddMemory(base, pageSize, true, nil, "ram"); err != nil {
			t.Fatalf("AddMemory %d: %v", i, err)
		}
	}
	if err := pt.AddMemory(uint32(MaxSlots)*pageSize, pageSize, true, nil, "overflow"); !errors.Is(err, ErrTooManySlots) {
		t.Fatalf("expected regions to be exhausted, got %v", err)
	}

	for i := 0; i < MaxSlots; i++ {
		base := uint32(MaxSlots+i) * pageSize
		dev := &fakeDevice{}
		if err := pt.AddDevice(base, pageSize, dev, "fake"); err != nil {
			t.Fatalf("AddDevice %d with regions full: %v", i, err)
		}
	}
	overflowBase := uint32(2*MaxSlots) * pageSize
	if err := pt.AddDevice(overflowBase, pageSize, &fakeDevice{}, "overflow"); !errors.Is(err, ErrTooManySlots) {
		t.Fatalf("expected devices to be exhausted, got %v", err)
	}
}

func TestDisassemblyReadsAreInvisibleToTraceAndDevices(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x1000, pageSize, true, []byte{0x12, 0x34, 0x56, 0x78}, "ram"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	tr := NewTrace(16)
	tr.SetEnabled(true)
	pt.SetTrace(tr)

	if got := pt.ReadDisasm16(0x1000); got != 0x1234 {
		t.Fatalf("ReadDisasm16 = %#x, want 0x1234", got)
	}
	if got := pt.ReadDisasm32(0x1000); got != 0x12345678 {
		t.Fatalf("ReadDisasm32 = %#x, want 0x12345678", got)
	}

	if got := len(tr.Records()); got != 0 {
		t.Fatalf("disassembly reads produced %d trace records, want 0", got)
	}

	dev := &fakeDevice{}
	if err := pt.AddDevice(0x2000, 4, dev, "fake"); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}
	if got := pt.ReadDisasm16(0x2000); got != 0xFFFF {
		t.Fatalf("ReadDisasm16 over a device = %#x, want sentinel 0xFFFF", got)
	}
}

func TestTraceRingBufferWraps(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x1000, pageSize, true, nil, "ram"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	tr := NewTrace(4)
	tr.SetEnabled(true)
	pt.SetTrace(tr)

	for i := 0; i < 10; i++ {
		if err := pt.Write(0x1000, Width8, uint32(i)); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	records := tr.Records()
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}
	if records[len(records)-1].Value != 9 {
		t.Fatalf("most recent record value = %d, want 9", records[len(records)-1].Value)
	}
}

func TestSnapshotListsRegionsAndDevices(t *testing.T) {
	pt := New()
	if err := pt.AddMemory(0x1000, pageSize, false, nil, "rom"); err != nil {
		t.Fatalf("AddMemory: %v", err)
	}
	dev := &fakeDevice{}
	if err := pt.AddDevice(0x9000, 4, dev, "fake"); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}

	snap := pt.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("got %d entries, want 2", len(snap))
	}
}
