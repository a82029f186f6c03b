package core

import "keycalc/config"

// PortID identifies a GPIO port (bank) on the target.
type PortID uint8

// Pin is a single GPIO line.
type Pin struct {
	Port PortID
	Bit  uint8
}

// Mask returns the pin's bit within its port.
func (p Pin) Mask() uint32 {
	return 1 << p.Bit
}

// Bus is eight consecutive lines of one port used as a parallel data bus.
type Bus struct {
	Port  PortID
	Shift uint8
}

func (b Bus) Mask() uint32 {
	return 0xFF << b.Shift
}

// Value places v on the bus lines.
func (b Bus) Value(v byte) uint32 {
	return uint32(v) << b.Shift
}

// PortDriver is the register-level GPIO interface that core code uses.
// Platform-specific implementations handle the actual hardware. Operations
// apply to every pin set in mask and take effect immediately; there is no
// error path.
type PortDriver interface {
	// SetDirection makes the masked pins outputs (asOutput) or inputs.
	SetDirection(port PortID, mask uint32, asOutput bool)

	// SetPullUp enables the pull-up resistor on the masked pins.
	SetPullUp(port PortID, mask uint32)

	// EnableDigital enables the digital function of the masked pins.
	EnableDigital(port PortID, mask uint32)

	// WritePins drives the masked pins to the matching bits of values.
	WritePins(port PortID, mask uint32, values uint32)

	// ReadPins returns the current level of the masked pins; unmasked bits
	// are zero.
	ReadPins(port PortID, mask uint32) uint32
}

// Global singleton used by the firmware entry point.
var portDriver PortDriver

// SetPortDriver is called by target-specific code to register its driver.
func SetPortDriver(d PortDriver) {
	portDriver = d
}

// MustPort returns the configured driver or panics if missing.
func MustPort() PortDriver {
	if portDriver == nil {
		panic("GPIO port driver not configured")
	}
	return portDriver
}

// PinFromConfig converts a configured pin to a core Pin.
func PinFromConfig(p config.PinConfig) Pin {
	return Pin{Port: PortID(p.Port), Bit: p.Bit}
}

// BusFromConfig converts a configured data bus to a core Bus.
func BusFromConfig(b config.BusConfig) Bus {
	return Bus{Port: PortID(b.Port), Shift: b.Shift}
}
