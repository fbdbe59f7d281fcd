package symbols

import (
	"fmt"

	"github.com/jenska/m68kdasm"
)

// WordReader supplies opcode words for disassembly. bus.PageTable's
// ReadDisasm16 satisfies it: disassembly reads never trace and never
// trigger a device or a bus fault, so single-stepping the debugger doesn't
// perturb the machine it's inspecting.
type WordReader interface {
	ReadDisasm16(address uint32) uint16
}

// Disassemble decodes and formats one instruction at pc, returning its
// text and its length in bytes so the caller can advance to the next
// instruction. A word m68kdasm cannot decode is rendered as a raw data
// word rather than propagating an error: a debugger should still be able
// to step past it.
func Disassemble(mem WordReader, pc uint32) (text string, length uint32) {
	var code [10]byte
	for i := 0; i < len(code)/2; i++ {
		w := mem.ReadDisasm16(pc + uint32(i*2))
		code[i*2] = byte(w >> 8)
		code[i*2+1] = byte(w)
	}

	inst, err := m68kdasm.Decode(code[:], pc)
	if err != nil {
		return fmt.Sprintf("dc.w $%04x", mem.ReadDisasm16(pc)), 2
	}
	return inst.String(), uint32(inst.Len)
}
