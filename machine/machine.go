// Package machine assembles the bus fabric, callback scheduler, interrupt
// controller, and CPU core into a runnable emulator, and drives the
// timeslice loop that steps them together.
package machine

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/cpu68k"
	"github.com/vindur/m68kbus/irq"
	"github.com/vindur/m68kbus/sched"
	"github.com/vindur/m68kbus/symbols"
)

// StopReason explains why Run returned.
type StopReason int

const (
	// StopNone means Run has not stopped (or has not been called yet).
	StopNone StopReason = iota
	// StopCycleLimit means Config.CycleLimit was reached.
	StopCycleLimit
	// StopShutdown means the guest requested NF_SHUTDOWN.
	StopShutdown
	// StopUserRequested means Stop was called externally, e.g. from a
	// SIGINT handler.
	StopUserRequested
	// StopFatal means the CPU core returned an error Run could not
	// interpret as a 68000 exception (a programming error in the CPU
	// core or an adapter, not a guest-triggerable condition).
	StopFatal
)

func (r StopReason) String() string {
	switch r {
	case StopNone:
		return "none"
	case StopCycleLimit:
		return "cycle limit"
	case StopShutdown:
		return "shutdown"
	case StopUserRequested:
		return "user requested"
	case StopFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Config configures a Machine at construction time.
type Config struct {
	// CPUFrequencyHz is used only to size the default quantum
	// (approximately one millisecond of cycles) when DefaultQuantum is 0.
	CPUFrequencyHz uint64
	// DefaultQuantum is the number of cycles Run asks the CPU to execute
	// per loop iteration when no scheduled callback is due sooner.
	DefaultQuantum uint64
	// CycleLimit stops Run once this many cycles have elapsed since the
	// last Reset. Zero means unlimited.
	CycleLimit uint64
	// BusErrorEnabled controls whether a failed bus decode raises a 68000
	// bus error or is serviced as a silent no-op. See bus.PageTable.
	BusErrorEnabled bool
	// TraceCapacity sizes the bus trace ring buffer. Zero uses a small
	// default; tracing itself must still be enabled via Trace().SetEnabled.
	TraceCapacity int
	// Stderr receives NATFEAT_CALL(NF_STDERR) output. Defaults to
	// os.Stderr.
	Stderr io.Writer
}

const defaultTraceCapacity = 4096

// Machine owns the page table, scheduler, interrupt controller, symbol
// table, and CPU core, and drives them together.
type Machine struct {
	cfg Config

	pt        *bus.PageTable
	trace     *bus.Trace
	scheduler *sched.Scheduler
	symbols   *symbols.Table
	irqCtrl   *irq.Controller
	adapter   *busAdapter
	cpu       cpu68k.CPU

	devices []bus.Device

	elapsed    uint64
	stopReason StopReason
	stopDetail string
	fatalErr   error
}

// New constructs a Machine with no memory or devices mapped. Call Reset
// once memory and devices are in place, before Run.
func New(cfg Config) (*Machine, error) {
	if cfg.DefaultQuantum == 0 {
		cfg.DefaultQuantum = cfg.CPUFrequencyHz / 1000
	}
	if cfg.DefaultQuantum == 0 {
		cfg.DefaultQuantum = 4000
	}
	if cfg.TraceCapacity == 0 {
		cfg.TraceCapacity = defaultTraceCapacity
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	m := &Machine{cfg: cfg}
	m.trace = bus.NewTrace(cfg.TraceCapacity)
	m.pt = bus.New()
	m.pt.SetTrace(m.trace)
	m.pt.SetBusErrorEnabled(cfg.BusErrorEnabled)
	m.scheduler = sched.New()
	m.symbols = symbols.New()

	m.adapter = newBusAdapter(m.pt)
	cpu, err := cpu68k.NewCPU(m.adapter)
	if err != nil {
		return nil, errors.Wrap(err, "machine: constructing cpu core")
	}
	m.cpu = cpu
	m.adapter.attachCPU(cpu)

	m.irqCtrl = irq.NewController(m.adapter.setIRQLevel, m.adapter.endTimeslice)
	cpu.SetAckHook(m.irqCtrl.Ack)
	cpu.SetIllegalHook(m.illegalHook)

	return m, nil
}

// Bus returns the page table, for mapping memory and devices.
func (m *Machine) Bus() *bus.PageTable { return m.pt }

// Trace returns the bus trace tap.
func (m *Machine) Trace() *bus.Trace { return m.trace }

// Symbols returns the machine's symbol table.
func (m *Machine) Symbols() *symbols.Table { return m.symbols }

// IRQ returns the interrupt controller devices assert their requests
// against.
func (m *Machine) IRQ() *irq.Controller { return m.irqCtrl }

// Scheduler returns the machine-wide callback scheduler.
func (m *Machine) Scheduler() *sched.Scheduler { return m.scheduler }

// CPU returns the underlying CPU core, for register inspection and
// single-stepping front ends.
func (m *Machine) CPU() cpu68k.CPU { return m.cpu }

// Cycles returns the number of cycles elapsed since the last Reset.
func (m *Machine) Cycles() uint64 { return m.elapsed }

// AddDevice maps dev at base for size bytes and registers it to be reset
// by Reset. Use Bus().AddMemory directly for plain RAM/ROM regions.
func (m *Machine) AddDevice(base, size uint32, dev bus.Device, name string) error {
	if err := m.pt.AddDevice(base, size, dev, name); err != nil {
		return err
	}
	m.devices = append(m.devices, dev)
	return nil
}

// Reset clears the scheduler, resets every mapped device, and resets the
// CPU core (which reloads its initial SSP and PC from the vector table at
// addresses 0 and 4). It must be called at least once, after memory and
// devices are mapped, before Run.
func (m *Machine) Reset() error {
	m.scheduler.Reset()
	for _, d := range m.devices {
		d.Reset()
	}

	m.elapsed = 0
	m.stopReason = StopNone
	m.stopDetail = ""
	m.fatalErr = nil

	return m.cpu.Reset()
}

// Stop requests that Run return after the current instruction, with
// StopUserRequested. It is safe to call from a signal handler.
func (m *Machine) Stop(reason string) {
	m.stopReason = StopUserRequested
	m.stopDetail = reason
	m.cpu.EndTimeslice()
}

// StopReason reports why the most recent Run returned.
func (m *Machine) StopReason() (StopReason, string) { return m.stopReason, m.stopDetail }

// Run drives the timeslice loop: each iteration executes up to a quantum
// of cycles bounded by the earliest pending scheduler deadline, advances
// the clock by the cycles actually consumed, and runs any callback whose
// deadline has now passed. It returns when a stop condition is set (cycle
// limit, guest shutdown, external Stop, or a fatal CPU error), returning
// the fatal error, if any.
func (m *Machine) Run() error {
	for m.stopReason == StopNone {
		quantum := m.cfg.DefaultQuantum
		if deadline, ok := m.scheduler.EarliestDeadline(); ok && deadline > m.elapsed {
			if remain := deadline - m.elapsed; remain < quantum {
				quantum = remain
			}
		}
		if quantum == 0 {
			quantum = 1
		}

		used, err := m.cpu.Execute(quantum)
		m.elapsed += used
		if err != nil {
			m.stopReason = StopFatal
			m.fatalErr = errors.Wrapf(err, "machine: cpu fault at cycle %d (pc %#08x)", m.elapsed, m.cpu.Registers().PC)
			break
		}

		if m.cfg.CycleLimit > 0 && m.elapsed >= m.cfg.CycleLimit {
			m.stopReason = StopCycleLimit
		}

		m.scheduler.RunDue(m.elapsed)
	}
	return m.fatalErr
}
