package machine

import (
	"fmt"

	"github.com/vindur/m68kbus/cpu68k"
	"github.com/vindur/m68kbus/natfeats"
)

// illegalCPU and illegalMemory adapt the register/bus values cpu68k hands
// to IllegalHook into the small interfaces natfeats.Handler asks for,
// letting natfeats stay ignorant of cpu68k entirely.
type illegalCPU struct{ regs *cpu68k.Registers }

func (c illegalCPU) D0() uint32         { return uint32(c.regs.D[0]) }
func (c illegalCPU) SetD0(value uint32) { c.regs.D[0] = int32(value) }
func (c illegalCPU) SP() uint32         { return c.regs.A[7] }

type illegalMemory struct{ mem cpu68k.AddressBus }

func (m illegalMemory) ReadByte(address uint32) (uint8, bool) {
	v, err := m.mem.Read(cpu68k.Byte, address)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

func (m illegalMemory) ReadLong(address uint32) (uint32, bool) {
	v, err := m.mem.Read(cpu68k.Long, address)
	if err != nil {
		return 0, false
	}
	return v, true
}

// illegalHook is installed as the CPU's IllegalHook. A fresh natfeats
// handler is built per call: NatFeats traps are rare (a handful per boot,
// not a hot path), so there is no reason to keep one alive across calls
// just to avoid an allocation.
func (m *Machine) illegalHook(pc uint32, opcode uint16, regs *cpu68k.Registers, mem cpu68k.AddressBus) (bool, error) {
	h := natfeats.New(illegalCPU{regs}, illegalMemory{mem}, m.writeStderr, m.requestShutdown)
	return h.Illegal(opcode), nil
}

func (m *Machine) writeStderr(s string) {
	fmt.Fprint(m.cfg.Stderr, s)
}

func (m *Machine) requestShutdown(reason string) {
	m.stopReason = StopShutdown
	m.stopDetail = reason
	m.cpu.EndTimeslice()
}
