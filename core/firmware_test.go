package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"keycalc/core"
	"keycalc/sim"
)

func (r *rig) firmware() *core.Firmware {
	fw := core.NewFirmware(r.cfg, r.board, r.clock)
	fw.Boot()
	return fw
}

type clickCounter int

func (c *clickCounter) Click() { *c++ }

func TestBootSequence(t *testing.T) {
	r := newRig()
	fw := r.firmware()

	want := []byte{0x38, 0x0C, 0x01, 0x06, 0x01, 0x80, 0x80}
	got := r.board.Display().Commands()
	if len(got) != len(want) {
		t.Fatalf("boot commands = % X, want % X", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("boot command %d = 0x%02X, want 0x%02X", i, got[i], want[i])
		}
	}
	if fw.Calc.State() != core.StateEnteringA {
		t.Errorf("state after boot = %v", fw.Calc.State())
	}
	if first := r.board.Display().Transfers()[0].At; first < 40*time.Millisecond {
		t.Errorf("first LCD transfer at %v, before power-up settle", first)
	}
}

func TestPollIdleDelay(t *testing.T) {
	r := newRig()
	fw := r.firmware()
	start := r.clock.Now()

	if key := fw.Poll(); key != core.NoKey {
		t.Fatalf("Poll() = %q with no key pressed", key)
	}
	if elapsed := r.clock.Now() - start; elapsed < 140*time.Millisecond {
		t.Errorf("poll took %v, want scan plus 100ms idle", elapsed)
	}
}

// pollKeys polls until n keys have been handled or the budget runs out.
func pollKeys(fw *core.Firmware, n, budget int) string {
	var got []byte
	for i := 0; i < budget && len(got) < n; i++ {
		if k := fw.Poll(); k != core.NoKey {
			got = append(got, k)
		}
	}
	return string(got)
}

func TestMultiplicationEndToEnd(t *testing.T) {
	r := newRig()
	fw := r.firmware()
	clicks := new(clickCounter)
	fw.SetBeeper(clicks)

	keys := "12*3#"
	r.board.Keypad().Sequence(keys, r.clock.Now(), 250*time.Millisecond, 200*time.Millisecond)
	r.board.Display().ResetLog()

	if got := pollKeys(fw, len(keys), 100); got != keys {
		t.Fatalf("handled keys %q, want %q", got, keys)
	}
	if int(*clicks) != len(keys) {
		t.Errorf("beeper clicked %d times", *clicks)
	}

	// The result is written after the second-row address; find what
	// followed it.
	var shown []byte
	second := false
	for _, tr := range r.board.Display().Transfers() {
		switch {
		case !tr.Data && tr.Value == 0xC0:
			second = true
			shown = nil
		case !tr.Data:
			second = false
		case second:
			shown = append(shown, tr.Value)
		}
	}
	if string(shown) != "36" {
		t.Errorf("result row showed %q, want \"36\"", shown)
	}

	d := r.board.Display()
	if d.Text(0) != "" || d.Text(1) != "" {
		t.Errorf("display after hold = %q / %q", d.Text(0), d.Text(1))
	}
	if a, b := fw.Calc.Operands(); a != 0 || b != 0 || fw.Calc.State() != core.StateEnteringA {
		t.Errorf("after hold: state %v, operands %d, %d", fw.Calc.State(), a, b)
	}
}

func TestResultHoldBlocks(t *testing.T) {
	r := newRig()
	fw := r.firmware()

	r.board.Keypad().Sequence("2*2", r.clock.Now(), 250*time.Millisecond, 200*time.Millisecond)
	if got := pollKeys(fw, 3, 100); got != "2*2" {
		t.Fatalf("handled %q", got)
	}

	// '#' pressed, then 'C' pressed and released entirely inside the hold.
	at := r.clock.Now()
	r.board.Keypad().Schedule(sim.Press{Key: '#', At: at, Hold: 250 * time.Millisecond})
	r.board.Keypad().Schedule(sim.Press{Key: 'C', At: at + time.Second, Hold: 250 * time.Millisecond})

	if got := pollKeys(fw, 1, 10); got != "#" {
		t.Fatalf("handled %q, want \"#\"", got)
	}
	if got := pollKeys(fw, 1, 5); got != "" {
		t.Errorf("key %q seen although it was pressed during the hold", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRig()
	fw := r.firmware()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := fw.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}

type faultyBeeper struct{}

func (faultyBeeper) Click() { panic("buzzer fault") }

func TestRunRecoversFromPanic(t *testing.T) {
	r := newRig()
	fw := r.firmware()
	fw.SetBeeper(faultyBeeper{})
	r.board.Keypad().Tap('4', r.clock.Now())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for fw.FaultCount() == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatal("panic was not recovered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v", err)
	}
}
