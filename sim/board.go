package sim

import (
	"sync"
	"time"

	"keycalc/config"
	"keycalc/core"
)

// AccessCost is the virtual time charged for every port access.
const AccessCost = time.Microsecond

const numPorts = config.PortF + 1

type portRegs struct {
	latch  uint32
	dir    uint32 // 1 = output
	pullUp uint32
	den    uint32
}

// Board is a virtual target wired per a config: a 4x4 keypad on the keypad
// pins and an HD44780 on the LCD pins. It implements core.PortDriver.
type Board struct {
	mu    sync.Mutex
	clock *Clock
	ports [numPorts]portRegs

	rows [core.KeypadRows]core.Pin
	cols [core.KeypadCols]core.Pin
	lcd  core.LCDPins

	keypad  *Keypad
	display *HD44780

	enHigh   bool
	enRiseAt time.Duration

	// Accesses counts port driver calls.
	Accesses uint64
}

var _ core.PortDriver = (*Board)(nil)

// NewBoard wires a board for a validated config.
func NewBoard(cfg *config.Config, clock *Clock) *Board {
	keys := core.KeypadPinsFromConfig(cfg.Keypad)
	return &Board{
		clock:   clock,
		rows:    keys.Rows,
		cols:    keys.Cols,
		lcd:     core.LCDPinsFromConfig(cfg.LCD),
		keypad:  NewKeypad(),
		display: NewHD44780(clock.Now),
	}
}

func (b *Board) Clock() *Clock     { return b.clock }
func (b *Board) Keypad() *Keypad   { return b.keypad }
func (b *Board) Display() *HD44780 { return b.display }

func (b *Board) regs(port core.PortID) *portRegs {
	if int(port) >= len(b.ports) {
		panic("sim: no such port " + string(rune('A'+port)))
	}
	return &b.ports[port]
}

func (b *Board) access() {
	b.Accesses++
	b.clock.Advance(AccessCost)
}

func (b *Board) SetDirection(port core.PortID, mask uint32, asOutput bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access()
	r := b.regs(port)
	if asOutput {
		r.dir |= mask
	} else {
		r.dir &^= mask
	}
}

func (b *Board) SetPullUp(port core.PortID, mask uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access()
	b.regs(port).pullUp |= mask
}

func (b *Board) EnableDigital(port core.PortID, mask uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access()
	b.regs(port).den |= mask
}

// WritePins updates the output latch. A falling edge on EN latches the bus
// into the display.
func (b *Board) WritePins(port core.PortID, mask uint32, values uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access()
	r := b.regs(port)
	r.latch = r.latch&^mask | values&mask

	en := b.levelLocked(b.lcd.EN)
	switch {
	case en && !b.enHigh:
		b.enRiseAt = b.clock.Now()
	case !en && b.enHigh:
		b.latchDisplay()
	}
	b.enHigh = en
}

func (b *Board) latchDisplay() {
	if b.levelLocked(b.lcd.RW) {
		// read cycle; the firmware never reads the controller
		return
	}
	bus := b.lcd.Data
	value := byte((b.outputLocked(bus.Port) & bus.Mask()) >> bus.Shift)
	b.display.Latch(b.levelLocked(b.lcd.RS), value, b.clock.Now()-b.enRiseAt)
}

// ReadPins returns pin levels. Outputs read back their latch, inputs with a
// pull-up read high unless a closed key joins them to a low row.
func (b *Board) ReadPins(port core.PortID, mask uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access()
	r := b.regs(port)
	if r.den&mask != mask {
		// digital input disabled reads as zero
		mask &= r.den
	}
	return b.inputLocked(port) & mask
}

// Level returns the current level of a single pin.
func (b *Board) Level(p core.Pin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.levelLocked(p)
}

// IsOutput reports whether a pin is configured as an output.
func (b *Board) IsOutput(p core.Pin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs(p.Port).dir&p.Mask() != 0
}

// HasPullUp reports whether a pin's pull-up is enabled.
func (b *Board) HasPullUp(p core.Pin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.regs(p.Port).pullUp&p.Mask() != 0
}

func (b *Board) levelLocked(p core.Pin) bool {
	return b.inputLocked(p.Port)&p.Mask() != 0
}

func (b *Board) outputLocked(port core.PortID) uint32 {
	r := b.regs(port)
	return r.latch & r.dir
}

func (b *Board) inputLocked(port core.PortID) uint32 {
	r := b.regs(port)
	levels := r.latch&r.dir | r.pullUp&^r.dir

	now := b.clock.Now()
	for c, col := range b.cols {
		if col.Port != port || r.dir&col.Mask() != 0 {
			continue
		}
		for row, rp := range b.rows {
			rr := b.regs(rp.Port)
			if rr.dir&rp.Mask() == 0 || rr.latch&rp.Mask() != 0 {
				continue
			}
			if b.keypad.closed(row, c, now) {
				levels &^= col.Mask()
				break
			}
		}
	}
	return levels
}
