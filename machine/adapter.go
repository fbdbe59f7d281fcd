package machine

import (
	"errors"

	"github.com/vindur/m68kbus/bus"
	"github.com/vindur/m68kbus/cpu68k"
)

// busAdapter implements cpu68k.AddressBus on top of a bus.PageTable,
// translating between cpu68k's byte-count Size and the page table's
// bit-width Width, and turning a bus.BusFault into the cpu68k.BusError the
// CPU core recognizes as "raise vector 2" rather than a fatal Go error.
//
// The page table itself stays ignorant of the CPU it is plugged into;
// attachCPU is called once, after cpu68k.NewCPU has been constructed
// against this adapter, purely so a fault can also cut the current
// timeslice short instead of waiting out its cycle budget.
type busAdapter struct {
	pt  *bus.PageTable
	cpu cpu68k.CPU
}

func newBusAdapter(pt *bus.PageTable) *busAdapter {
	return &busAdapter{pt: pt}
}

func (a *busAdapter) attachCPU(cpu cpu68k.CPU) {
	a.cpu = cpu
}

func widthOf(s cpu68k.Size) bus.Width {
	switch s {
	case cpu68k.Word:
		return bus.Width16
	case cpu68k.Long:
		return bus.Width32
	default:
		return bus.Width8
	}
}

func (a *busAdapter) Read(s cpu68k.Size, address uint32) (uint32, error) {
	value, err := a.pt.Read(address, widthOf(s))
	if err != nil {
		return 0, a.translateFault(err)
	}
	return value, nil
}

func (a *busAdapter) Write(s cpu68k.Size, address uint32, value uint32) error {
	if err := a.pt.Write(address, widthOf(s), value); err != nil {
		return a.translateFault(err)
	}
	return nil
}

func (a *busAdapter) Reset() {}

func (a *busAdapter) translateFault(err error) error {
	var fault bus.BusFault
	if errors.As(err, &fault) {
		if a.cpu != nil {
			a.cpu.EndTimeslice()
		}
		return cpu68k.BusError(fault.Address)
	}
	return err
}

// setIRQLevel and endTimeslice are handed to irq.NewController as the
// controller's link back to the CPU core; wiring them as adapter methods
// rather than closures over *Machine keeps Machine's own construction
// order (page table, then CPU, then interrupt controller) independent of
// which order the controller happens to call them in.
func (a *busAdapter) setIRQLevel(level uint8) {
	if a.cpu != nil {
		a.cpu.SetIRQLevel(level)
	}
}

func (a *busAdapter) endTimeslice() {
	if a.cpu != nil {
		a.cpu.EndTimeslice()
	}
}
