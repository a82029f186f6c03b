package core

import (
	"time"

	"keycalc/config"
)

const (
	KeypadRows = config.KeypadRows
	KeypadCols = config.KeypadCols

	// NoKey is returned by Scan when nothing is pressed.
	NoKey byte = 0
)

// KeypadLayout maps (row, column) to the glyph printed on the key.
var KeypadLayout = [KeypadRows][KeypadCols]byte{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}

// KeyPosition returns the matrix cell of a glyph.
func KeyPosition(key byte) (row, col int, ok bool) {
	for r := range KeypadLayout {
		for c := range KeypadLayout[r] {
			if KeypadLayout[r][c] == key {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// KeypadPins is the wiring of the 4x4 matrix. Rows are outputs, columns are
// pulled-up inputs that read low when a key joins them to a low row.
type KeypadPins struct {
	Rows [KeypadRows]Pin
	Cols [KeypadCols]Pin
}

type KeypadTiming struct {
	Settle   time.Duration // after selecting a row
	Debounce time.Duration // between the two samples of a candidate press
}

// KeypadPinsFromConfig converts configured keypad wiring. The config must
// have passed Validate.
func KeypadPinsFromConfig(c config.KeypadConfig) KeypadPins {
	var pins KeypadPins
	for i := range pins.Rows {
		pins.Rows[i] = PinFromConfig(c.Rows[i])
	}
	for i := range pins.Cols {
		pins.Cols[i] = PinFromConfig(c.Cols[i])
	}
	return pins
}

func KeypadTimingFromConfig(t config.TimingConfig) KeypadTiming {
	return KeypadTiming{
		Settle:   config.Ms(t.ScanSettleMs),
		Debounce: config.Ms(t.DebounceMs),
	}
}

// Keypad scans a diode-less 4x4 matrix one row at a time.
type Keypad struct {
	port   PortDriver
	clock  Clock
	pins   KeypadPins
	timing KeypadTiming
	rows   []portMask
}

func NewKeypad(port PortDriver, clock Clock, pins KeypadPins, timing KeypadTiming) *Keypad {
	return &Keypad{
		port:   port,
		clock:  clock,
		pins:   pins,
		timing: timing,
		rows:   groupPins(pins.Rows[:]),
	}
}

// Configure sets rows as outputs and columns as inputs, all with pull-ups.
func (k *Keypad) Configure() {
	configurePins(k.port, k.pins.Rows[:], true, true)
	configurePins(k.port, k.pins.Cols[:], false, true)
}

// Scan runs one pass over the matrix. A column that reads low is sampled
// again after the debounce delay; if it is still low the scan waits for the
// key to be released and returns its glyph. When no key is confirmed on any
// row Scan returns NoKey without waiting.
func (k *Keypad) Scan() byte {
	writeGroup(k.port, k.rows, true)

	for row := 0; row < KeypadRows; row++ {
		writeGroup(k.port, k.rows, true)
		setPin(k.port, k.pins.Rows[row], false)
		k.clock.Sleep(k.timing.Settle)

		for col := 0; col < KeypadCols; col++ {
			if !k.columnLow(col) {
				continue
			}
			k.clock.Sleep(k.timing.Debounce)
			if !k.columnLow(col) {
				RecordEvent(Event{Type: EvtBounce, Key: KeypadLayout[row][col], At: millis(k.clock.Now())})
				continue
			}

			// Release wait: one glyph per press, however long it is held.
			for k.columnLow(col) {
			}
			return KeypadLayout[row][col]
		}
	}

	return NoKey
}

func (k *Keypad) columnLow(col int) bool {
	return !pinHigh(k.port, k.pins.Cols[col])
}
