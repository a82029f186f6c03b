//go:build rp2040

package main

import (
	"device/rp"
	"machine"

	"keycalc/core"
	"keycalc/targets/pio"
)

// RPPortDriver implements core.PortDriver on GPIO bank 0, which the board
// config calls PortA. Other ports do not exist on the RP2040 and are
// ignored.
type RPPortDriver struct {
	outputs uint32
	pullUps uint32

	bus     *pio.LCDBus
	busMask uint32
	busBits uint8
}

func NewRPPortDriver() *RPPortDriver {
	return &RPPortDriver{}
}

// AttachBus hands the pins of b to a PIO bus. Writes covering exactly those
// pins go to the state machine instead of SIO.
func (d *RPPortDriver) AttachBus(bus *pio.LCDBus, b core.Bus) {
	d.bus = bus
	d.busMask = b.Mask()
	d.busBits = b.Shift
}

func (d *RPPortDriver) SetDirection(port core.PortID, mask uint32, asOutput bool) {
	if port != 0 {
		return
	}
	mask &^= d.busMask // owned by PIO
	if asOutput {
		d.outputs |= mask
	} else {
		d.outputs &^= mask
	}
	d.configure(mask)
}

func (d *RPPortDriver) SetPullUp(port core.PortID, mask uint32) {
	if port != 0 {
		return
	}
	mask &^= d.busMask
	d.pullUps |= mask
	d.configure(mask)
}

// EnableDigital is a no-op: RP2040 pads come out of reset with the input
// buffer enabled.
func (d *RPPortDriver) EnableDigital(port core.PortID, mask uint32) {}

func (d *RPPortDriver) WritePins(port core.PortID, mask uint32, values uint32) {
	if port != 0 {
		return
	}
	if d.bus != nil && mask == d.busMask {
		d.bus.Write(byte(values >> d.busBits))
		return
	}
	rp.SIO.GPIO_OUT_SET.Set(values & mask)
	rp.SIO.GPIO_OUT_CLR.Set(^values & mask)
}

func (d *RPPortDriver) ReadPins(port core.PortID, mask uint32) uint32 {
	if port != 0 {
		return 0
	}
	return rp.SIO.GPIO_IN.Get() & mask
}

func (d *RPPortDriver) configure(mask uint32) {
	for bit := machine.Pin(0); bit < 30; bit++ {
		m := uint32(1) << bit
		if mask&m == 0 {
			continue
		}
		switch {
		case d.outputs&m != 0:
			bit.Configure(machine.PinConfig{Mode: machine.PinOutput})
		case d.pullUps&m != 0:
			bit.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		default:
			bit.Configure(machine.PinConfig{Mode: machine.PinInput})
		}
	}
}
