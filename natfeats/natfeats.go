// Package natfeats implements the "native features" illegal-instruction
// protocol: a guest program executes a reserved opcode to ask the emulator
// itself to do something (report its version, write to the host's stderr,
// request shutdown) rather than trapping as a genuine illegal instruction.
package natfeats

import "strings"

// Opcode values the CPU adapter should offer to Handler.Illegal. Any other
// opcode is a genuine illegal instruction and Illegal returns false.
const (
	OpID   = 0x7300
	OpCall = 0x7301
)

// Feature IDs returned by NATFEAT_ID for the feature names this emulator
// implements. NATFEAT_CALL is then invoked with one of these as its
// function selector.
const (
	featureVersion = 1
	featureStderr  = 2
	featureShutdown = 3
)

// CPU is the minimal register access natfeats needs: D0 carries return
// values and the feature/function selector, and the current stack pointer
// locates the call's arguments.
type CPU interface {
	D0() uint32
	SetD0(value uint32)
	SP() uint32
}

// Memory is the minimal bus access natfeats needs to read a NUL-terminated
// argument string and 32-bit argument words from guest memory.
type Memory interface {
	ReadByte(address uint32) (value uint8, ok bool)
	ReadLong(address uint32) (value uint32, ok bool)
}

// maxStringLength bounds a guest string read, matching the reference
// protocol's own defensive limit against a runaway/unterminated pointer.
const maxStringLength = 255

// Handler dispatches NATFEAT_ID and NATFEAT_CALL. Stderr and Shutdown may
// be nil, in which case the corresponding call is still acknowledged (D0
// set as documented) but produces no side effect.
type Handler struct {
	cpu      CPU
	mem      Memory
	stderr   func(string)
	shutdown func(reason string)
}

// New builds a Handler. stderr receives NF_STDERR output; shutdown is
// invoked with a human-readable reason when the guest calls NF_SHUTDOWN.
func New(cpu CPU, mem Memory, stderr func(string), shutdown func(reason string)) *Handler {
	return &Handler{cpu: cpu, mem: mem, stderr: stderr, shutdown: shutdown}
}

// Illegal is the entry point wired to the CPU adapter's illegal-instruction
// hook. It reports whether it recognized and handled opcode; the adapter
// should only raise a genuine illegal-instruction exception when it
// returns false.
func (h *Handler) Illegal(opcode uint16) bool {
	switch opcode {
	case OpID:
		return h.id()
	case OpCall:
		return h.call()
	default:
		return false
	}
}

// id services NATFEAT_ID: the argument at SP+4 is a pointer to the feature
// name string; D0 is set to the feature's numeric ID, or the call is
// treated as unhandled if the name is not recognized.
func (h *Handler) id() bool {
	name, ok := h.readIndirectString(h.cpu.SP() + 4)
	if !ok {
		return false
	}
	switch name {
	case "NF_VERSION":
		h.cpu.SetD0(featureVersion)
	case "NF_STDERR":
		h.cpu.SetD0(featureStderr)
	case "NF_SHUTDOWN":
		h.cpu.SetD0(featureShutdown)
	default:
		return false
	}
	return true
}

// call services NATFEAT_CALL: the argument at SP+4 is the feature ID
// previously returned by NATFEAT_ID, selecting which of the emulator's
// features to invoke.
func (h *Handler) call() bool {
	argptr := h.cpu.SP() + 4
	feature, ok := h.mem.ReadLong(argptr)
	if !ok {
		return false
	}
	switch feature {
	case featureVersion:
		h.cpu.SetD0(1)
	case featureStderr:
		msg, ok := h.readIndirectString(argptr + 4)
		if !ok {
			return false
		}
		if h.stderr != nil {
			h.stderr(msg)
		}
	case featureShutdown:
		if h.shutdown != nil {
			h.shutdown("NF_SHUTDOWN requested")
		}
	default:
		return false
	}
	return true
}

// readIndirectString reads a 32-bit pointer at argptr, then the
// NUL-terminated string it points to.
func (h *Handler) readIndirectString(argptr uint32) (string, bool) {
	strptr, ok := h.mem.ReadLong(argptr)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	for i := 0; i < maxStringLength; i++ {
		c, ok := h.mem.ReadByte(strptr + uint32(i))
		if !ok {
			return "", false
		}
		if c == 0 {
			return sb.String(), true
		}
		sb.WriteByte(c)
	}
	return sb.String(), true
}
