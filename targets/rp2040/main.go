//go:build rp2040

package main

import (
	"context"
	"machine"

	"keycalc/config"
	"keycalc/core"
	"keycalc/targets/pio"
)

const (
	buzzerPin = machine.GPIO22

	// Console on USB CDC. When off, debug output goes to USB as plain text.
	consoleEnabled = true
	debugEnabled   = false
)

// boardConfig wires everything to GPIO bank 0:
// rows GP2-5, columns GP6-9, LCD data GP10-17, RS GP18, RW GP19, EN GP20.
func boardConfig() *config.Config {
	pin := func(n uint8) config.PinConfig {
		return config.PinConfig{Port: config.PortA, Bit: n}
	}

	cfg := config.DefaultConfig()
	cfg.Keypad = config.KeypadConfig{
		Rows: []config.PinConfig{pin(2), pin(3), pin(4), pin(5)},
		Cols: []config.PinConfig{pin(6), pin(7), pin(8), pin(9)},
	}
	cfg.LCD = config.LCDConfig{
		Data: config.BusConfig{Port: config.PortA, Shift: 10},
		RS:   pin(18),
		RW:   pin(19),
		EN:   pin(20),
	}
	cfg.Console.Enabled = consoleEnabled
	return cfg
}

func main() {
	// Disable watchdog on boot to clear any previous state
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	cfg := boardConfig()

	port := NewRPPortDriver()
	bus := pio.NewLCDBus(0, 0)
	if err := bus.Init(machine.Pin(cfg.LCD.Data.Shift)); err == nil {
		port.AttachBus(bus, core.BusFromConfig(cfg.LCD.Data))
	}
	// Without PIO the bus falls back to SIO writes.
	core.SetPortDriver(port)

	fw := core.NewFirmware(cfg, nil, NewHardwareClock())
	fw.SetBeeper(newClickBeeper(buzzerPin))

	core.SetDebugEnabled(debugEnabled)
	if cfg.Console.Enabled {
		console := core.NewConsole(USBWriteBytes)
		fw.AttachConsole(console)
		// Plain-text debug would corrupt the framed stream.
		core.SetDebugWriter(console.Debug)
		go usbReaderLoop(console)
	}
	// Key and result logs queue here so console writes never stall a scan.
	core.InitAsyncDebug()

	fw.Boot()

	// Run only returns when its context ends, which never happens here.
	_ = fw.Run(context.Background())
}
