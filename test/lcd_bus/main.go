//go:build rp2040

package main

// PIO LCD bus bring-up. Walks a single high bit across GP10-GP17, then
// counts 0-255, pulsing EN (GP20) after every byte. Watch on a logic
// analyzer; no display needs to be attached.

import (
	"machine"
	"time"

	"keycalc/targets/pio"
)

const (
	busBase = machine.GPIO10
	enPin   = machine.GPIO20
)

func main() {
	time.Sleep(3 * time.Second)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	// Flash LED to indicate start
	for i := 0; i < 3; i++ {
		led.High()
		time.Sleep(100 * time.Millisecond)
		led.Low()
		time.Sleep(100 * time.Millisecond)
	}

	println("=== PIO LCD Bus Test ===")
	println("Data: GP10-GP17, EN: GP20")

	enPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	enPin.Low()

	bus := pio.NewLCDBus(0, 0)
	if err := bus.Init(busBase); err != nil {
		println("Init error:", err.Error())
		for {
			led.High()
			time.Sleep(100 * time.Millisecond)
			led.Low()
			time.Sleep(100 * time.Millisecond)
		}
	}
	println("Init OK!")

	cycle := 0
	for {
		cycle++
		println("\n=== Cycle", cycle, "===")
		led.High()

		println("walking one")
		for bit := 0; bit < 8; bit++ {
			strobe(bus, byte(1)<<bit, 50*time.Millisecond)
		}

		println("count 0-255")
		for v := 0; v < 256; v++ {
			strobe(bus, byte(v), time.Millisecond)
		}

		led.Low()
		time.Sleep(time.Second)
	}
}

// strobe puts v on the bus and pulses EN once the state machine has it.
func strobe(bus *pio.LCDBus, v byte, hold time.Duration) {
	bus.Write(v)
	bus.Drain()
	time.Sleep(10 * time.Microsecond)
	enPin.High()
	time.Sleep(10 * time.Microsecond)
	enPin.Low()
	time.Sleep(hold)
}
