//go:build rp2040

package main

import (
	"machine"

	"tinygo.org/x/drivers/buzzer"
)

const (
	clickHz   = 4000
	clickBeat = 0.004 // seconds at 60 BPM
)

// clickBeeper gives a short tone on a piezo for every accepted key.
type clickBeeper struct {
	dev buzzer.Device
}

func newClickBeeper(pin machine.Pin) *clickBeeper {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dev := buzzer.New(pin)
	dev.BPM = 60
	return &clickBeeper{dev: dev}
}

func (b *clickBeeper) Click() {
	_ = b.dev.Tone(clickHz, clickBeat)
}
