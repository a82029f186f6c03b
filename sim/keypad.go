package sim

import (
	"sort"
	"sync"
	"time"

	"keycalc/core"
)

// DefaultHold is how long Tap keeps a key down.
const DefaultHold = 60 * time.Millisecond

// Press holds a key closed over [At, At+Hold). A press shorter than the
// firmware's debounce delay behaves like contact bounce.
type Press struct {
	Key  byte
	At   time.Duration
	Hold time.Duration
}

func (p Press) active(now time.Duration) bool {
	return now >= p.At && now < p.At+p.Hold
}

// Keypad is a scripted 4x4 matrix.
type Keypad struct {
	mu      sync.Mutex
	presses []Press
}

func NewKeypad() *Keypad {
	return &Keypad{}
}

// Schedule adds a press. Keys not on the matrix are ignored.
func (k *Keypad) Schedule(p Press) bool {
	if _, _, ok := core.KeyPosition(p.Key); !ok {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.presses = append(k.presses, p)
	sort.SliceStable(k.presses, func(i, j int) bool {
		return k.presses[i].At < k.presses[j].At
	})
	return true
}

// Tap presses key at the given time for DefaultHold.
func (k *Keypad) Tap(key byte, at time.Duration) bool {
	return k.Schedule(Press{Key: key, At: at, Hold: DefaultHold})
}

// Sequence schedules keys one after another, each held for hold and
// separated by gap.
func (k *Keypad) Sequence(keys string, start, hold, gap time.Duration) time.Duration {
	at := start
	for i := 0; i < len(keys); i++ {
		k.Schedule(Press{Key: keys[i], At: at, Hold: hold})
		at += hold + gap
	}
	return at
}

// closed reports whether any active press joins row and col at now.
func (k *Keypad) closed(row, col int, now time.Duration) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, p := range k.presses {
		if !p.active(now) {
			continue
		}
		r, c, _ := core.KeyPosition(p.Key)
		if r == row && c == col {
			return true
		}
	}
	return false
}

// Pending returns presses that have not finished by now.
func (k *Keypad) Pending(now time.Duration) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, p := range k.presses {
		if now < p.At+p.Hold {
			n++
		}
	}
	return n
}

// Prune drops finished presses.
func (k *Keypad) Prune(now time.Duration) {
	k.mu.Lock()
	defer k.mu.Unlock()
	kept := k.presses[:0]
	for _, p := range k.presses {
		if now < p.At+p.Hold {
			kept = append(kept, p)
		}
	}
	k.presses = kept
}
