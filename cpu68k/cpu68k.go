// Package cpu68k adapts the m68000 instruction-set core in
// internal/m68000 to the rest of the module: it re-exports the ABI the
// machine package drives a CPU through (construction, stepping, IRQ
// delivery, illegal-instruction interception, tracing, breakpoints) and
// adds nothing to instruction semantics itself. The opcode tables,
// effective-address resolution, and per-instruction execution all live in
// internal/m68000, which this package treats as an opaque, vendored core.
package cpu68k

import "github.com/vindur/m68kbus/cpu68k/internal/m68000"

// Size is a CPU operand width, in bytes.
type Size = m68000.Size

const (
	Byte Size = m68000.Byte
	Word Size = m68000.Word
	Long Size = m68000.Long
)

// AddressBus is the interface a CPU core reads and writes through.
type AddressBus = m68000.AddressBus

// Registers is the programmer-visible register set.
type Registers = m68000.Registers

// TraceInfo is the snapshot delivered to a TraceCallback after each
// instruction retires.
type TraceInfo = m68000.TraceInfo

// TraceCallback receives a TraceInfo after every retired instruction.
type TraceCallback = m68000.TraceCallback

// Breakpoint describes one address watched for execute/read/write access.
type Breakpoint = m68000.Breakpoint

// BreakpointEvent is passed to a Breakpoint's Callback when it fires.
type BreakpointEvent = m68000.BreakpointEvent

// BreakpointType distinguishes execute, read, and write breakpoints.
type BreakpointType = m68000.BreakpointType

const (
	BreakpointExecute = m68000.BreakpointExecute
	BreakpointRead    = m68000.BreakpointRead
	BreakpointWrite   = m68000.BreakpointWrite
)

// BreakpointHit is returned by CPU methods when a halting breakpoint fires.
type BreakpointHit = m68000.BreakpointHit

// IllegalHook is offered every opcode with no registered instruction
// handler before the CPU raises the illegal-instruction exception.
type IllegalHook = m68000.IllegalHook

// AckHook resolves the vector for a pending interrupt at acknowledge time.
type AckHook = m68000.AckHook

// AddressError is returned for an odd address under a word/long access
// that the CPU itself detects (as opposed to a bus fault from the fabric).
type AddressError = m68000.AddressError

// BusError is returned when the address bus declines to service an access.
type BusError = m68000.BusError

// CPU is the minimal interface the rest of the module drives an emulator
// core through.
type CPU = m68000.CPU

// NewCPU constructs a CPU core running against bus.
func NewCPU(bus AddressBus) (CPU, error) {
	return m68000.NewCPU(bus)
}
