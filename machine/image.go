package machine

import (
	"fmt"

	"github.com/vindur/m68kbus/bus"
)

// LoadFlatImage maps image as writable RAM starting at address 0, rounded
// up to a whole number of pages, and sanity-checks that the reset vector
// at address 4 points somewhere inside the image. Nothing may already be
// mapped at address 0.
func LoadFlatImage(m *Machine, image []byte) error {
	if len(image) < 8 {
		return fmt.Errorf("machine: image too small to hold a vector table (%d bytes)", len(image))
	}

	size := uint32(len(image))
	if rem := size % bus.PageSize; rem != 0 {
		size += bus.PageSize - rem
	}

	if err := m.pt.AddMemory(0, size, true, image, "image"); err != nil {
		return fmt.Errorf("machine: mapping flat image: %w", err)
	}

	resetVector := uint32(image[4])<<24 | uint32(image[5])<<16 | uint32(image[6])<<8 | uint32(image[7])
	if resetVector >= uint32(len(image)) {
		return fmt.Errorf("machine: reset vector %#08x points outside image (length %#x)", resetVector, len(image))
	}

	return nil
}
