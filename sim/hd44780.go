package sim

import (
	"strings"
	"sync"
	"time"
)

const (
	LCDRows    = 2
	LCDColumns = 16 // visible
	ddramWidth = 40

	row1Base = 0x40

	maxTransfers = 4096
)

// Transfer is one byte latched by the controller on an EN falling edge.
type Transfer struct {
	At    time.Duration
	Data  bool          // RS high
	Value byte
	Pulse time.Duration // EN high time
}

// HD44780 models the parts of the controller the firmware uses: clear,
// entry mode, display control, function set and DDRAM addressing.
type HD44780 struct {
	mu        sync.Mutex
	ddram     [LCDRows][ddramWidth]byte
	addr      uint8
	decrement bool
	displayOn bool
	function  byte
	log       []Transfer
	now       func() time.Duration
}

// NewHD44780 returns a blank display. now timestamps the transfer log and
// may be nil.
func NewHD44780(now func() time.Duration) *HD44780 {
	d := &HD44780{now: now}
	d.clear()
	return d
}

// Command executes an instruction byte.
func (d *HD44780) Command(b byte) {
	d.Latch(false, b, 0)
}

// Data writes a character at the address counter.
func (d *HD44780) Data(b byte) {
	d.Latch(true, b, 0)
}

// Latch records and executes one transfer.
func (d *HD44780) Latch(data bool, b byte, pulse time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := Transfer{Data: data, Value: b, Pulse: pulse}
	if d.now != nil {
		t.At = d.now()
	}
	if len(d.log) == maxTransfers {
		d.log = append(d.log[:0], d.log[maxTransfers/2:]...)
	}
	d.log = append(d.log, t)

	if data {
		d.write(b)
		return
	}

	switch {
	case b&0x80 != 0:
		d.addr = b & 0x7F
	case b&0x40 != 0:
		// CGRAM address; custom glyphs are not modelled.
	case b&0x20 != 0:
		d.function = b
	case b&0x10 != 0:
		// cursor/display shift
	case b&0x08 != 0:
		d.displayOn = b&0x04 != 0
	case b&0x04 != 0:
		d.decrement = b&0x02 == 0
	case b&0x02 != 0:
		d.addr = 0
	case b == 0x01:
		d.clear()
	}
}

func (d *HD44780) clear() {
	for r := range d.ddram {
		for c := range d.ddram[r] {
			d.ddram[r][c] = ' '
		}
	}
	d.addr = 0
	d.decrement = false
}

func (d *HD44780) write(b byte) {
	row, col := 0, int(d.addr)
	if d.addr >= row1Base {
		row, col = 1, int(d.addr-row1Base)
	}
	if col < ddramWidth {
		d.ddram[row][col] = b
	}

	if d.decrement {
		switch d.addr {
		case 0:
			d.addr = row1Base + ddramWidth - 1
		case row1Base:
			d.addr = ddramWidth - 1
		default:
			d.addr--
		}
		return
	}
	switch d.addr {
	case ddramWidth - 1:
		d.addr = row1Base
	case row1Base + ddramWidth - 1:
		d.addr = 0
	default:
		d.addr++
	}
}

// Line returns the visible characters of a row, padded with spaces.
func (d *HD44780) Line(row int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if row < 0 || row >= LCDRows {
		return ""
	}
	return string(d.ddram[row][:LCDColumns])
}

// Text returns a row without trailing blanks.
func (d *HD44780) Text(row int) string {
	return strings.TrimRight(d.Line(row), " ")
}

// Address returns the DDRAM address counter.
func (d *HD44780) Address() uint8 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

func (d *HD44780) DisplayOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.displayOn
}

// Function returns the last function-set instruction.
func (d *HD44780) Function() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.function
}

// Transfers returns a copy of the transfer log.
func (d *HD44780) Transfers() []Transfer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Transfer(nil), d.log...)
}

// Commands returns the instruction bytes in the log, in order.
func (d *HD44780) Commands() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []byte
	for _, t := range d.log {
		if !t.Data {
			out = append(out, t.Value)
		}
	}
	return out
}

func (d *HD44780) ResetLog() {
	d.mu.Lock()
	d.log = nil
	d.mu.Unlock()
}
