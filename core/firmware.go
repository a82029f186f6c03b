package core

import (
	"context"
	"sync/atomic"

	"keycalc/config"
	"keycalc/protocol"
)

// KeySource yields one key per call, or NoKey.
type KeySource interface {
	Scan() byte
}

// Beeper gives audible feedback for an accepted key.
type Beeper interface {
	Click()
}

// Firmware ties the keypad, the LCD and the calculator into the polling
// main loop.
type Firmware struct {
	LCD    *LCD
	Keypad *Keypad
	Calc   *Calculator

	clock   Clock
	timing  config.TimingConfig
	keys    KeySource
	display *mirrorDisplay
	console *Console
	beeper  Beeper

	faults uint32
}

// NewFirmware builds the firmware for a validated config. A nil port uses
// the driver registered with SetPortDriver.
func NewFirmware(cfg *config.Config, port PortDriver, clock Clock) *Firmware {
	if port == nil {
		port = MustPort()
	}
	lcd := NewLCD(port, clock, LCDPinsFromConfig(cfg.LCD), LCDTimingFromConfig(cfg.Timing))
	keypad := NewKeypad(port, clock, KeypadPinsFromConfig(cfg.Keypad), KeypadTimingFromConfig(cfg.Timing))
	display := &mirrorDisplay{lcd: lcd}

	return &Firmware{
		LCD:     lcd,
		Keypad:  keypad,
		Calc:    NewCalculator(display, clock, config.Ms(cfg.Timing.ResultHoldMs)),
		clock:   clock,
		timing:  cfg.Timing,
		keys:    keypad,
		display: display,
	}
}

// AttachConsole mirrors display writes, key events and calculator state to
// the console and accepts keys injected through it.
func (f *Firmware) AttachConsole(c *Console) {
	f.console = c
	f.display.console = c
	f.Calc.SetObserver(c)
}

func (f *Firmware) SetBeeper(b Beeper) {
	f.beeper = b
}

// Boot brings the hardware up: power-up settle, pin setup, LCD init,
// calculator reset, and the cursor left at home.
func (f *Firmware) Boot() {
	f.clock.Sleep(config.Ms(f.timing.PowerUpMs))

	f.Keypad.Configure()
	f.LCD.Configure()
	f.LCD.Init()
	f.Calc.Init()
	f.clock.Sleep(config.Ms(f.timing.LCDInitStepMs))
	f.display.SetCursor(0, 0)

	DebugPrintln("[BOOT] ready, state=" + f.Calc.State().String())
}

// Poll runs one main-loop iteration and returns the key it handled, if
// any. A key injected over the console wins over the matrix.
func (f *Firmware) Poll() byte {
	source := uint8(protocol.KeySourceMatrix)
	key := NoKey

	if f.console != nil {
		f.console.Process()
		if key = f.console.NextKey(); key != NoKey {
			source = protocol.KeySourceRemote
			RecordEvent(Event{Type: EvtRemote, Key: key, State: f.Calc.State(), At: millis(f.clock.Now())})
		}
	}
	if key == NoKey {
		if key = f.keys.Scan(); key != NoKey {
			RecordEvent(Event{Type: EvtKey, Key: key, State: f.Calc.State(), At: millis(f.clock.Now())})
		}
	}

	if key != NoKey {
		if f.beeper != nil {
			f.beeper.Click()
		}
		if f.console != nil {
			f.console.KeyEvent(key, source)
		}
		if IsDebugEnabled() {
			DebugAsync("[KEY] " + string(rune(key)))
		}
		f.Calc.HandleKey(key)
	}

	f.clock.Sleep(config.Ms(f.timing.IdleMs))
	return key
}

// Run polls until ctx is cancelled. A panicking poll is logged with an
// event-ring dump and the loop carries on.
func (f *Firmware) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		f.safePoll()
	}
}

func (f *Firmware) safePoll() {
	defer func() {
		if r := recover(); r != nil {
			n := atomic.AddUint32(&f.faults, 1)
			DebugPrintln("[FAULT] poll panicked, faults=" + itoa(int(n)))
			DumpEventRing()
		}
	}()
	f.Poll()
}

// FaultCount returns how many polls panicked and were recovered.
func (f *Firmware) FaultCount() uint32 {
	return atomic.LoadUint32(&f.faults)
}

// mirrorDisplay draws on the LCD and, when a console is attached, repeats
// each operation over the link so the host can rebuild the screen.
type mirrorDisplay struct {
	lcd     *LCD
	console *Console
}

func (d *mirrorDisplay) Clear() {
	d.lcd.Clear()
	if d.console != nil {
		d.console.LCDCommand(LCDClearDisplay)
	}
}

func (d *mirrorDisplay) SetCursor(row, col uint8) {
	d.lcd.SetCursor(row, col)
	if d.console != nil {
		d.console.LCDCommand(CursorAddress(row, col))
	}
}

func (d *mirrorDisplay) DisplayString(s string) {
	d.lcd.DisplayString(s)
	if d.console != nil {
		d.console.LCDText(s)
	}
}
