package core

import "time"

// State is the calculator's input phase.
type State uint8

const (
	StateIdle State = iota
	StateEnteringA
	StateEnteringB
	StateDisplayingResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateEnteringA:
		return "ENTERING_A"
	case StateEnteringB:
		return "ENTERING_B"
	case StateDisplayingResult:
		return "RESULT"
	default:
		return "UNKNOWN(" + itoa(int(s)) + ")"
	}
}

// Keys with a fixed meaning. A, B and D are ignored.
const (
	KeyReset    byte = 'C'
	KeyMultiply byte = '*'
	KeyEquals   byte = '#'
)

// Display is the part of the LCD the calculator renders through.
type Display interface {
	Clear()
	SetCursor(row, col uint8)
	DisplayString(s string)
}

// CalcObserver is notified of state changes and results. Optional.
type CalcObserver interface {
	CalcState(state State, a, b uint32)
	CalcResult(a, b, result uint32)
}

// Calculator is the two-operand multiply state machine. Operands wrap at
// 32 bits.
type Calculator struct {
	a, b     uint32
	state    State
	display  Display
	clock    Clock
	hold     time.Duration
	observer CalcObserver
}

// NewCalculator returns a calculator in StateIdle. Call Init before feeding
// keys.
func NewCalculator(display Display, clock Clock, hold time.Duration) *Calculator {
	return &Calculator{
		display: display,
		clock:   clock,
		hold:    hold,
	}
}

func (c *Calculator) SetObserver(o CalcObserver) {
	c.observer = o
}

// Init moves the calculator out of Idle with a full reset.
func (c *Calculator) Init() {
	c.Reset()
}

func (c *Calculator) State() State {
	return c.state
}

func (c *Calculator) Operands() (a, b uint32) {
	return c.a, c.b
}

// Reset clears both operands and the display and homes the cursor.
func (c *Calculator) Reset() {
	c.a = 0
	c.b = 0
	c.display.Clear()
	c.display.SetCursor(0, 0)
	c.state = StateEnteringA
	RecordEvent(Event{Type: EvtReset, State: c.state, At: millis(c.clock.Now())})
	c.notify()
}

// HandleKey applies one key. Reset is honoured in every state; keys with
// no transition in the current state are dropped.
func (c *Calculator) HandleKey(key byte) {
	if key == KeyReset {
		c.Reset()
		return
	}

	switch c.state {
	case StateEnteringA:
		switch {
		case isDigit(key):
			c.a = accumulate(c.a, key)
			c.show(c.a)
			c.notify()
		case key == KeyMultiply:
			c.display.Clear()
			c.setState(StateEnteringB)
		}

	case StateEnteringB:
		switch {
		case isDigit(key):
			c.b = accumulate(c.b, key)
			c.show(c.b)
			c.notify()
		case key == KeyEquals:
			c.showResult()
		}
	}
}

func (c *Calculator) show(v uint32) {
	c.display.Clear()
	c.display.DisplayString(FormatUint(v))
}

// showResult displays A*B on the second row, holds it, then resets. The
// hold blocks; keys pressed meanwhile are not seen.
func (c *Calculator) showResult() {
	result := c.a * c.b
	c.setState(StateDisplayingResult)

	c.display.Clear()
	c.display.SetCursor(1, 0)
	c.display.DisplayString(FormatUint(result))

	RecordEvent(Event{Type: EvtResult, State: c.state, At: millis(c.clock.Now()), Value1: c.a, Value2: c.b})
	if c.observer != nil {
		c.observer.CalcResult(c.a, c.b, result)
	}
	if IsDebugEnabled() {
		DebugAsync("[CALC] " + FormatUint(c.a) + " * " + FormatUint(c.b) + " = " + FormatUint(result))
	}

	c.clock.Sleep(c.hold)
	c.Reset()
}

func (c *Calculator) setState(s State) {
	if c.state == s {
		return
	}
	c.state = s
	RecordEvent(Event{Type: EvtState, State: s, At: millis(c.clock.Now()), Value1: c.a, Value2: c.b})
	c.notify()
}

func (c *Calculator) notify() {
	if c.observer != nil {
		c.observer.CalcState(c.state, c.a, c.b)
	}
}
