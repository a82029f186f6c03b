package sim

import (
	"testing"
	"time"

	"keycalc/config"
	"keycalc/core"
)

func TestBoardColumnFollowsRow(t *testing.T) {
	cfg := config.DefaultConfig()
	clk := NewClock()
	b := NewBoard(cfg, clk)
	pins := core.KeypadPinsFromConfig(cfg.Keypad)

	for _, p := range pins.Rows {
		b.SetDirection(p.Port, p.Mask(), true)
		b.WritePins(p.Port, p.Mask(), p.Mask())
	}
	for _, p := range pins.Cols {
		b.SetDirection(p.Port, p.Mask(), false)
		b.SetPullUp(p.Port, p.Mask())
		b.EnableDigital(p.Port, p.Mask())
	}

	// '6' is row 1, column 2.
	b.Keypad().Schedule(Press{Key: '6', At: 0, Hold: time.Second})
	col := pins.Cols[2]

	if !b.Level(col) {
		t.Fatal("column low while its row is high")
	}
	row := pins.Rows[1]
	b.WritePins(row.Port, row.Mask(), 0)
	if b.ReadPins(col.Port, col.Mask()) != 0 {
		t.Error("column high while row driven low and key closed")
	}

	clk.Advance(time.Second)
	if b.ReadPins(col.Port, col.Mask()) == 0 {
		t.Error("column low after release")
	}
}

func TestBoardChargesAccesses(t *testing.T) {
	cfg := config.DefaultConfig()
	clk := NewClock()
	b := NewBoard(cfg, clk)

	b.ReadPins(core.PortID(config.PortA), 1)
	b.WritePins(core.PortID(config.PortA), 1, 1)
	if clk.Now() != 2*AccessCost || b.Accesses != 2 {
		t.Errorf("now %v, accesses %d", clk.Now(), b.Accesses)
	}
}

func TestKeypadSequence(t *testing.T) {
	k := NewKeypad()
	end := k.Sequence("1x2", 0, 10*time.Millisecond, 5*time.Millisecond)
	if end != 45*time.Millisecond {
		t.Errorf("sequence end = %v", end)
	}
	if k.Pending(0) != 2 {
		t.Errorf("pending = %d, want 2 (x is not a key)", k.Pending(0))
	}
	k.Prune(time.Hour)
	if k.Pending(0) != 0 {
		t.Error("Prune kept finished presses")
	}
}
