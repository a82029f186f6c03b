package core

import (
	"sync"
	"sync/atomic"
)

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a calculator event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Key    byte   // Key involved, 0 if none
	State  State  // Calculator state after the event
	At     uint32 // Milliseconds since boot
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtKey    = 1 // confirmed key from the matrix
	EvtRemote = 2 // key injected over the console link
	EvtBounce = 3 // candidate press rejected by debounce
	EvtState  = 4 // state transition
	EvtResult = 5 // product computed
	EvtReset  = 6 // full reset
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = defaultDebugWriter

	// debugEnabled controls whether DebugPrintln output is active
	debugEnabled bool

	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventCount    uint32

	// Async debug output; debugChan is nil until InitAsyncDebug
	asyncMu      sync.Mutex
	debugChan    chan string
	debugDone    chan struct{}
	debugDropped uint32
)

// DebugQueueSize is the async debug backlog before messages are dropped.
const DebugQueueSize = 16

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// InitAsyncDebug starts the async debug output goroutine
func InitAsyncDebug() {
	asyncMu.Lock()
	defer asyncMu.Unlock()
	if debugChan != nil {
		return
	}
	debugChan = make(chan string, DebugQueueSize)
	debugDone = make(chan struct{})
	go debugOutputWorker(debugChan, debugDone)
}

// StopAsyncDebug drains the queue and stops the worker. Later DebugAsync
// calls write synchronously again.
func StopAsyncDebug() {
	asyncMu.Lock()
	ch, done := debugChan, debugDone
	debugChan, debugDone = nil, nil
	asyncMu.Unlock()

	if ch == nil {
		return
	}
	close(ch)
	<-done
}

func debugOutputWorker(ch <-chan string, done chan<- struct{}) {
	defer close(done)
	for msg := range ch {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message without blocking the caller. A full
// queue drops the message. Before InitAsyncDebug it behaves like
// DebugPrintln.
func DebugAsync(msg string) {
	if !debugEnabled {
		return
	}
	asyncMu.Lock()
	defer asyncMu.Unlock()
	if debugChan == nil {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
		return
	}
	select {
	case debugChan <- msg:
	default:
		atomic.AddUint32(&debugDropped, 1)
	}
}

// DebugDropped returns how many async messages were lost to a full queue.
func DebugDropped() uint32 {
	return atomic.LoadUint32(&debugDropped)
}

// RecordEvent stores an event in the ring buffer
func RecordEvent(evt Event) {
	eventRing[eventRingHead] = evt
	eventRingHead = (eventRingHead + 1) % EventRingSize
	eventCount++
}

// Events returns the buffered events, oldest first
func Events() []Event {
	var out []Event
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(eventRingHead+i)%EventRingSize]
		if evt.Type != 0 {
			out = append(out, evt)
		}
	}
	return out
}

// DumpEventRing writes the ring buffer through the debug writer regardless
// of the enabled flag (call on fault or on request)
func DumpEventRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	debugPrintln("[EVENTS] total recorded: " + FormatUint(eventCount))

	for _, evt := range Events() {
		line := "[EVENTS] " + eventName(evt.Type) +
			" t=" + FormatUint(evt.At) +
			" state=" + evt.State.String()
		if evt.Key != 0 {
			line += " key=" + string(rune(evt.Key))
		}
		debugPrintln(line +
			" v1=" + FormatUint(evt.Value1) +
			" v2=" + FormatUint(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEventRing clears the event buffer
func ClearEventRing() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
	eventCount = 0
}

func eventName(t uint8) string {
	switch t {
	case EvtKey:
		return "KEY"
	case EvtRemote:
		return "REMOTE_KEY"
	case EvtBounce:
		return "BOUNCE"
	case EvtState:
		return "STATE"
	case EvtResult:
		return "RESULT"
	case EvtReset:
		return "RESET"
	default:
		return "UNKNOWN"
	}
}
