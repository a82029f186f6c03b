package core

import (
	"time"

	"keycalc/config"
)

// HD44780 instruction bytes used by the driver.
const (
	LCDClearDisplay  = 0x01
	LCDEntryModeInc  = 0x06 // increment address, no display shift
	LCDDisplayOn     = 0x0C // display on, cursor off, blink off
	LCDFunction8Bit2 = 0x38 // 8-bit bus, 2 lines, 5x8 font
	LCDRow0Address   = 0x80
	LCDRow1Address   = 0xC0
)

// LCDPins is the wiring of an 8-bit parallel character LCD.
type LCDPins struct {
	Data Bus
	RS   Pin // low = command, high = data
	RW   Pin // held low (write)
	EN   Pin
}

// LCDTiming holds the settling delays of the transfer protocol.
type LCDTiming struct {
	Settle   time.Duration // between each phase of a transfer
	Clear    time.Duration // after the clear command
	InitStep time.Duration // after each step of the init sequence
}

// LCDPinsFromConfig converts configured LCD wiring.
func LCDPinsFromConfig(c config.LCDConfig) LCDPins {
	return LCDPins{
		Data: BusFromConfig(c.Data),
		RS:   PinFromConfig(c.RS),
		RW:   PinFromConfig(c.RW),
		EN:   PinFromConfig(c.EN),
	}
}

// LCDTimingFromConfig converts configured LCD delays.
func LCDTimingFromConfig(t config.TimingConfig) LCDTiming {
	return LCDTiming{
		Settle:   config.Ms(t.LCDSettleMs),
		Clear:    config.Ms(t.LCDClearMs),
		InitStep: config.Ms(t.LCDInitStepMs),
	}
}

// CursorAddress returns the set-DDRAM-address command for a position. Row 0
// starts at 0x80; every other row uses the second line at 0xC0. Columns are
// not range checked.
func CursorAddress(row, col uint8) byte {
	if row == 0 {
		return LCDRow0Address + col
	}
	return LCDRow1Address + col
}

// LCD drives an HD44780-compatible display over an 8-bit bus. Every
// operation blocks for its settling delays. The cursor position lives only in
// the display controller.
type LCD struct {
	port   PortDriver
	clock  Clock
	pins   LCDPins
	timing LCDTiming
}

func NewLCD(port PortDriver, clock Clock, pins LCDPins, timing LCDTiming) *LCD {
	return &LCD{port: port, clock: clock, pins: pins, timing: timing}
}

// Configure makes the data bus and control lines digital outputs and holds
// RW low.
func (l *LCD) Configure() {
	bus := l.pins.Data
	l.port.SetDirection(bus.Port, bus.Mask(), true)
	l.port.EnableDigital(bus.Port, bus.Mask())

	configurePins(l.port, []Pin{l.pins.RW, l.pins.EN, l.pins.RS}, true, false)
	setPin(l.port, l.pins.RW, false)
}

// Init runs the power-on instruction sequence.
func (l *LCD) Init() {
	l.SendCommand(LCDFunction8Bit2)
	l.clock.Sleep(l.timing.InitStep)
	l.SendCommand(LCDDisplayOn)
	l.clock.Sleep(l.timing.InitStep)
	l.Clear()
	l.clock.Sleep(l.timing.InitStep)
	l.SendCommand(LCDEntryModeInc)
	l.clock.Sleep(l.timing.InitStep)
}

// SendCommand latches an instruction byte.
func (l *LCD) SendCommand(cmd byte) {
	l.transfer(cmd, false)
}

// SendData latches a character byte at the current address.
func (l *LCD) SendData(b byte) {
	l.transfer(b, true)
}

// transfer puts b on the bus, selects command or data with RS and pulses EN;
// the controller latches on the falling edge.
func (l *LCD) transfer(b byte, data bool) {
	bus := l.pins.Data
	l.port.WritePins(bus.Port, bus.Mask(), bus.Value(b))
	setPin(l.port, l.pins.RS, data)
	l.clock.Sleep(l.timing.Settle)

	setPin(l.port, l.pins.EN, true)
	l.clock.Sleep(l.timing.Settle)

	setPin(l.port, l.pins.EN, false)
	l.clock.Sleep(l.timing.Settle)
}

// Clear blanks the display and homes the address counter.
func (l *LCD) Clear() {
	l.SendCommand(LCDClearDisplay)
	l.clock.Sleep(l.timing.Clear)
}

// SetCursor moves the address counter to (row, col).
func (l *LCD) SetCursor(row, col uint8) {
	l.SendCommand(CursorAddress(row, col))
}

// DisplayString writes s from the current position with no wrapping.
func (l *LCD) DisplayString(s string) {
	for i := 0; i < len(s); i++ {
		l.SendData(s[i])
	}
}
