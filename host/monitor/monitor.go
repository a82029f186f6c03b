package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"keycalc/core"
	"keycalc/host/serial"
	"keycalc/protocol"
	"keycalc/sim"
)

var (
	ErrNotConnected = errors.New("not connected to calculator")
	ErrInvalidKey   = errors.New("key is not on the keypad")
)

// EventKind tells which field group of an Event is set.
type EventKind int

const (
	EventKey EventKind = iota
	EventState
	EventResult
	EventDebug
	EventVersion
	EventScreen
)

// Event is one decoded firmware message.
type Event struct {
	Kind   EventKind
	Key    byte
	Source uint8
	State  core.State
	A, B   uint32
	Result uint32
	Text   string
}

// eventQueue is how many undelivered events are kept before new ones are
// dropped.
const eventQueue = 64

// Monitor is a host-side view of a running calculator: it mirrors the LCD
// from the console stream, reports events and injects keys.
type Monitor struct {
	mu        sync.Mutex
	transport *protocol.HostTransport
	connected bool

	registry *protocol.Registry
	screen   *sim.HD44780
	events   chan Event

	idInjectKey uint16
	idGetState  uint16

	dropped atomic.Uint32
}

// New returns an unconnected monitor.
func New() *Monitor {
	r := protocol.NewLinkRegistry()
	return &Monitor{
		registry:    r,
		screen:      sim.NewHD44780(nil),
		events:      make(chan Event, eventQueue),
		idInjectKey: r.MustLookup(protocol.CmdInjectKey),
		idGetState:  r.MustLookup(protocol.CmdGetState),
	}
}

// Connect opens device with the console defaults.
func (m *Monitor) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig opens a serial port and attaches to it.
func (m *Monitor) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	// Bytes queued before we attached belong to no frame we can follow.
	_ = port.Flush()
	return m.Attach(port)
}

// Attach starts monitoring an already open stream.
func (m *Monitor) Attach(port io.ReadWriteCloser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		return errors.New("monitor already attached")
	}

	m.transport = protocol.NewHostTransport(port)
	m.transport.SetResponseHandler(m.handleResponse)
	m.connected = true
	return nil
}

// Close detaches and closes the port. It waits for the read goroutine, so
// it must not hold mu while doing so.
func (m *Monitor) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	t := m.transport
	m.connected = false
	m.mu.Unlock()

	return t.Close()
}

func (m *Monitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Monitor) link() (*protocol.HostTransport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, ErrNotConnected
	}
	return m.transport, nil
}

// InjectKey queues a key press on the firmware, ahead of the matrix.
func (m *Monitor) InjectKey(ctx context.Context, key byte) error {
	if _, _, ok := core.KeyPosition(key); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	t, err := m.link()
	if err != nil {
		return err
	}
	return t.SendCommandContext(ctx, m.idInjectKey, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, uint32(key))
	})
}

// InjectKeys sends keys one at a time, waiting gap between them. The
// firmware handles at most one key per poll, and '#' blocks it for the
// result hold, so callers pick gap to suit.
func (m *Monitor) InjectKeys(ctx context.Context, keys string, gap time.Duration) error {
	for i := 0; i < len(keys); i++ {
		if err := m.InjectKey(ctx, keys[i]); err != nil {
			return fmt.Errorf("key %d of %q: %w", i, keys, err)
		}
		if gap <= 0 || i == len(keys)-1 {
			continue
		}
		select {
		case <-time.After(gap):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// RequestState asks for a calc_state and version report.
func (m *Monitor) RequestState(ctx context.Context) error {
	t, err := m.link()
	if err != nil {
		return err
	}
	return t.SendCommandContext(ctx, m.idGetState, nil)
}

// Events delivers decoded firmware messages. Events are dropped while the
// channel is full.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Dropped returns the number of events lost to a full channel.
func (m *Monitor) Dropped() uint32 {
	return m.dropped.Load()
}

// Screen returns the mirrored LCD rows.
func (m *Monitor) Screen() [2]string {
	return [2]string{m.screen.Line(0), m.screen.Line(1)}
}

func (m *Monitor) emit(e Event) {
	select {
	case m.events <- e:
	default:
		m.dropped.Add(1)
	}
}

// handleResponse runs on the transport's read goroutine.
func (m *Monitor) handleResponse(id uint16, data *[]byte) error {
	def, ok := m.registry.Get(id)
	if !ok || def.Kind != protocol.KindResponse {
		return &protocol.MessageError{ID: id, Err: protocol.ErrUnknownMessage}
	}

	switch def.Name {
	case protocol.RespKeyEvent:
		v, err := decodeUints(data, 2)
		if err != nil {
			return err
		}
		m.emit(Event{Kind: EventKey, Key: byte(v[0]), Source: uint8(v[1])})

	case protocol.RespLCDCommand:
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return err
		}
		m.screen.Command(byte(v))
		m.emit(Event{Kind: EventScreen})

	case protocol.RespLCDText:
		s, err := protocol.DecodeVLQString(data)
		if err != nil {
			return err
		}
		for i := 0; i < len(s); i++ {
			m.screen.Data(s[i])
		}
		m.emit(Event{Kind: EventScreen, Text: s})

	case protocol.RespCalcState:
		v, err := decodeUints(data, 3)
		if err != nil {
			return err
		}
		m.emit(Event{Kind: EventState, State: core.State(v[0]), A: v[1], B: v[2]})

	case protocol.RespCalcResult:
		v, err := decodeUints(data, 3)
		if err != nil {
			return err
		}
		m.emit(Event{Kind: EventResult, A: v[0], B: v[1], Result: v[2]})

	case protocol.RespDebug, protocol.RespVersion:
		s, err := protocol.DecodeVLQString(data)
		if err != nil {
			return err
		}
		kind := EventDebug
		if def.Name == protocol.RespVersion {
			kind = EventVersion
		}
		m.emit(Event{Kind: kind, Text: s})
	}
	return nil
}

func decodeUints(data *[]byte, n int) ([]uint32, error) {
	out := make([]uint32, n)
	for i := range out {
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return nil, fmt.Errorf("decoding argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
