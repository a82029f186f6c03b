package core_test

import (
	"testing"
	"time"

	"keycalc/core"
	"keycalc/sim"
)

func (r *rig) keypad() *core.Keypad {
	k := core.NewKeypad(r.board, r.clock, core.KeypadPinsFromConfig(r.cfg.Keypad), core.KeypadTimingFromConfig(r.cfg.Timing))
	k.Configure()
	return k
}

func TestKeypadConfigure(t *testing.T) {
	r := newRig()
	r.keypad()
	pins := core.KeypadPinsFromConfig(r.cfg.Keypad)
	for _, p := range pins.Rows {
		if !r.board.IsOutput(p) || !r.board.HasPullUp(p) {
			t.Errorf("row %+v not a pulled-up output", p)
		}
	}
	for _, p := range pins.Cols {
		if r.board.IsOutput(p) || !r.board.HasPullUp(p) {
			t.Errorf("column %+v not a pulled-up input", p)
		}
	}
}

func TestScanReturnsEveryKey(t *testing.T) {
	r := newRig()
	k := r.keypad()

	for row := range core.KeypadLayout {
		for col, glyph := range core.KeypadLayout[row] {
			press := sim.Press{Key: glyph, At: r.clock.Now(), Hold: 200 * time.Millisecond}
			r.board.Keypad().Schedule(press)

			if got := k.Scan(); got != glyph {
				t.Errorf("(%d,%d): Scan() = %q, want %q", row, col, got, glyph)
			}
			if r.clock.Now() < press.At+press.Hold {
				t.Errorf("%q returned at %v before release at %v", glyph, r.clock.Now(), press.At+press.Hold)
			}
		}
	}
}

func TestScanNoKeyDoesNotBlock(t *testing.T) {
	r := newRig()
	k := r.keypad()
	start := r.clock.Now()

	if got := k.Scan(); got != core.NoKey {
		t.Fatalf("Scan() = %q, want no key", got)
	}
	// Four row settles and nothing else.
	elapsed := r.clock.Now() - start
	if elapsed < 40*time.Millisecond || elapsed > 41*time.Millisecond {
		t.Errorf("idle scan took %v", elapsed)
	}
}

func TestScanRejectsBounce(t *testing.T) {
	r := newRig()
	k := r.keypad()
	core.ClearEventRing()
	defer core.ClearEventRing()

	// Closed while row 0 is sampled, open again before the debounce
	// re-sample.
	now := r.clock.Now()
	r.board.Keypad().Schedule(sim.Press{Key: '1', At: now + 9*time.Millisecond, Hold: 5 * time.Millisecond})

	if got := k.Scan(); got != core.NoKey {
		t.Errorf("bounce returned %q", got)
	}

	bounces := 0
	for _, e := range core.Events() {
		if e.Type == core.EvtBounce && e.Key == '1' {
			bounces++
		}
	}
	if bounces != 1 {
		t.Errorf("recorded %d bounces, want 1", bounces)
	}
}

func TestHeldKeyReturnsOnce(t *testing.T) {
	r := newRig()
	k := r.keypad()
	press := sim.Press{Key: '5', At: r.clock.Now(), Hold: time.Second}
	r.board.Keypad().Schedule(press)

	if got := k.Scan(); got != '5' {
		t.Fatalf("Scan() = %q, want '5'", got)
	}
	if r.clock.Now() < press.At+press.Hold {
		t.Errorf("returned at %v while key still held", r.clock.Now())
	}
	if got := k.Scan(); got != core.NoKey {
		t.Errorf("second Scan() = %q, want no key", got)
	}
}

func TestKeyPosition(t *testing.T) {
	row, col, ok := core.KeyPosition('#')
	if !ok || row != 3 || col != 2 {
		t.Errorf("KeyPosition('#') = %d, %d, %v", row, col, ok)
	}
	if _, _, ok := core.KeyPosition('x'); ok {
		t.Error("KeyPosition('x') found a key")
	}
}
