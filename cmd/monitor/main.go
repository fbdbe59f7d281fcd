// Command monitor is an interactive single-step front end for the
// machine package: load a flat binary image, then step, disassemble, and
// inspect the running CPU one key press at a time.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/machine"
	"github.com/vindur/m68kbus/symbols"
)

func main() {
	trace := flag.Bool("trace", false, "enable the bus trace tap")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: monitor [-trace] <flat-image>")
		os.Exit(2)
	}

	image, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("monitor: reading image: %v", err)
	}

	m, err := machine.New(machine.Config{BusErrorEnabled: true})
	if err != nil {
		log.Fatalf("monitor: constructing machine: %v", err)
	}
	if err := machine.LoadFlatImage(m, image); err != nil {
		log.Fatalf("monitor: %v", err)
	}
	if *trace {
		m.Trace().SetEnabled(true)
		m.Trace().SetSink(func(r bus.Record) {
			fmt.Printf("trace %c addr=%#08x width=%d value=%#x\n", r.Kind, r.Address, r.Width, r.Value)
		})
	}
	if err := m.Reset(); err != nil {
		log.Fatalf("monitor: reset: %v", err)
	}

	term, err := newRawTerm()
	if err != nil {
		log.Fatalf("monitor: %v", err)
	}
	defer func() {
		if err := term.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "monitor: restoring terminal: %v\n", err)
		}
	}()

	fmt.Print("m68k monitor. keys: s=step d=disassemble r=registers g=go q=quit ?=help\r\n")
	printStatus(m)

	for {
		key, ok := term.ReadKey()
		if !ok {
			return
		}
		switch key {
		case 's':
			step(m)
			printStatus(m)
		case 'd':
			disassemble(m)
		case 'r':
			printRegisters(m)
		case 'g':
			run(m, term)
			printStatus(m)
		case 'q':
			return
		case '?':
			fmt.Print("s=step d=disassemble r=registers g=go (any key stops) q=quit\r\n")
		default:
			fmt.Printf("unknown command %q, press ? for help\r\n", key)
		}
		if reason, detail := m.StopReason(); reason != machine.StopNone {
			fmt.Printf("stopped: %s (%s)\r\n", reason, detail)
			return
		}
	}
}

// step executes one instruction, then runs any scheduler callbacks whose
// deadline has now passed. Single-stepping bypasses Machine.Run, so the
// monitor is responsible for keeping the scheduler's view of elapsed
// cycles current itself.
func step(m *machine.Machine) {
	if err := m.CPU().Step(); err != nil {
		fmt.Printf("step error: %v\r\n", err)
		return
	}
	m.Scheduler().RunDue(m.CPU().Cycles())
}

// run steps continuously until any key is pressed or the machine stops
// itself (fatal error or guest-requested shutdown).
func run(m *machine.Machine, term *rawTerm) {
	fmt.Print("running, press any key to stop\r\n")
	for {
		step(m)
		if reason, _ := m.StopReason(); reason != machine.StopNone {
			return
		}
		if _, ok := term.KeyPressed(); ok {
			return
		}
	}
}

func printStatus(m *machine.Machine) {
	regs := m.CPU().Registers()
	fmt.Printf("PC=%#08x %s\r\n", regs.PC, disasmAt(m, regs.PC))
}

func disassemble(m *machine.Machine) {
	regs := m.CPU().Registers()
	fmt.Printf("%#08x  %s\r\n", regs.PC, disasmAt(m, regs.PC))
}

func disasmAt(m *machine.Machine, pc uint32) string {
	text, _ := symbols.Disassemble(m.Bus(), pc)
	return fmt.Sprintf("%-20s  %s", m.Symbols().Format(pc), text)
}

func printRegisters(m *machine.Machine) {
	r := m.CPU().Registers()
	for i := 0; i < 8; i++ {
		fmt.Printf("D%d=%#08x  A%d=%#08x\r\n", i, uint32(r.D[i]), i, r.A[i])
	}
	fmt.Printf("PC=%#08x SR=%#04x SSP=%#08x USP=%#08x\r\n", r.PC, r.SR, r.SSP, r.USP)
	fmt.Printf("cycles=%d\r\n", m.CPU().Cycles())
}
