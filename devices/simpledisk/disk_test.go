package simpledisk

import (
	"bytes"
	"testing"

	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/sched"
)

type fakeIRQ struct{ asserted map[any]uint8 }

func newFakeIRQ() *fakeIRQ { return &fakeIRQ{asserted: make(map[any]uint8)} }

func (f *fakeIRQ) Assert(source any, level uint8) { f.asserted[source] = level }
func (f *fakeIRQ) Deassert(source any)            { delete(f.asserted, source) }

// eightSectorImage builds the fixture used by the reference scenario: 8
// sectors, each containing "1234567\n" repeated to fill SectorSize.
func eightSectorImage() []byte {
	sector := bytes.Repeat([]byte("1234567\n"), SectorSize/8)
	return bytes.Repeat(sector, 8)
}

func newTestDisk(t *testing.T, image []byte) *Disk {
	t.Helper()
	s := sched.New()
	return New("disk", s, func() uint64 { return 0 }, newFakeIRQ(), image)
}

func xfer(d *Disk, sector, count uint32, cmd uint32) uint32 {
	d.Write(regSector, bus.Width32, sector)
	d.Write(regCount, bus.Width32, count)
	d.Write(regStatusCmd, bus.Width32, cmd)
	v, _ := d.Read(regStatusCmd, bus.Width32)
	return v
}

func TestZeroCountTransferFails(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())
	if status := xfer(d, 0, 0, CmdRead); status != StatusError {
		t.Fatalf("status = %d, want StatusError for zero count", status)
	}
}

func TestOutOfRangeSectorFails(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())
	if status := xfer(d, 1000, 1, CmdRead); status != StatusError {
		t.Fatalf("status = %d, want StatusError for sector beyond image", status)
	}
}

func TestTransferCrossingEndOfImageFails(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())
	if status := xfer(d, 7, 2, CmdRead); status != StatusError {
		t.Fatalf("status = %d, want StatusError for a 2-sector transfer starting at the last sector", status)
	}
}

func TestReadSectorZeroReturnsExpectedContent(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())
	if status := xfer(d, 0, 1, CmdRead); status != StatusDataReady {
		t.Fatalf("status = %d, want StatusDataReady", status)
	}

	var got []byte
	for i := 0; i < SectorSize/4; i++ {
		v, _ := d.Read(regData, bus.Width32)
		got = append(got, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	want := []byte{0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x0a}
	if !bytes.Equal(got[:8], want) {
		t.Fatalf("first 8 bytes = %v, want %v", got[:8], want)
	}

	status, _ := d.Read(regStatusCmd, bus.Width32)
	if status != StatusIdle {
		t.Fatalf("status after drain = %d, want StatusIdle", status)
	}
}

func TestWriteThenReadBackRoundTrips(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())

	if status := xfer(d, 3, 1, CmdWrite); status != StatusDataReady {
		t.Fatalf("write begin status = %d, want StatusDataReady", status)
	}
	for i := 0; i < SectorSize/4; i++ {
		d.Write(regData, bus.Width32, 0x55555555)
	}

	if status := xfer(d, 3, 2, CmdRead); status != StatusDataReady {
		t.Fatalf("read begin status = %d, want StatusDataReady", status)
	}
	var got []byte
	for i := 0; i < 2*SectorSize/4; i++ {
		v, _ := d.Read(regData, bus.Width32)
		got = append(got, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}

	wantFirst := bytes.Repeat([]byte{0x55}, SectorSize)
	if !bytes.Equal(got[:SectorSize], wantFirst) {
		t.Fatal("sector 3 did not read back the written pattern")
	}
	wantTail := []byte{0x31, 0x32, 0x33, 0x34, 0x35, 0x36, 0x37, 0x0a}
	if !bytes.Equal(got[SectorSize:SectorSize+8], wantTail) {
		t.Fatalf("sector 4 tail = %v, want %v", got[SectorSize:SectorSize+8], wantTail)
	}
}

func TestReadCountAliasesBytesRemaining(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())
	xfer(d, 0, 1, CmdRead)

	remaining, _ := d.Read(regCount, bus.Width32)
	if remaining != SectorSize {
		t.Fatalf("remaining = %d, want %d before any data read", remaining, SectorSize)
	}
	d.Read(regData, bus.Width32)
	remaining, _ = d.Read(regCount, bus.Width32)
	if remaining != SectorSize-4 {
		t.Fatalf("remaining = %d, want %d after one word read", remaining, SectorSize-4)
	}
}

func TestReadCountReportsCapacityWhenNoTransferIsInProgress(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())

	size, _ := d.Read(regCount, bus.Width32)
	if size != 8 {
		t.Fatalf("size = %d, want 8 sectors before any command is issued", size)
	}

	xfer(d, 0, 1, CmdRead)
	for i := 0; i < SectorSize/4; i++ {
		d.Read(regData, bus.Width32)
	}
	size, _ = d.Read(regCount, bus.Width32)
	if size != 8 {
		t.Fatalf("size = %d, want 8 sectors again once the transfer drains", size)
	}
}

func TestNoMediaAlwaysFails(t *testing.T) {
	d := newTestDisk(t, nil)
	if status := xfer(d, 0, 1, CmdRead); status != StatusError {
		t.Fatalf("status = %d, want StatusError with no media", status)
	}
}

func TestResetAbortsInProgressTransfer(t *testing.T) {
	d := newTestDisk(t, eightSectorImage())
	xfer(d, 0, 1, CmdRead)
	d.Reset()

	status, _ := d.Read(regStatusCmd, bus.Width32)
	if status != StatusIdle {
		t.Fatalf("status after Reset = %d, want StatusIdle", status)
	}
	v, _ := d.Read(regData, bus.Width32)
	if v != 0 {
		t.Fatalf("data read after Reset = %#x, want 0 (no transfer in progress)", v)
	}
}
