package core

import (
	"errors"
	"sync"

	"keycalc/protocol"
)

// ErrInjectedKey rejects an inject_key whose byte is not on the keypad.
var ErrInjectedKey = errors.New("injected key is not on the keypad")

const (
	consoleRxSize   = 256
	consoleKeyQueue = 16
)

// Console is the firmware end of the optional serial link. Bytes arrive
// from a reader goroutine through Feed; everything else runs on the main
// loop. Responses are written out as soon as they are framed.
type Console struct {
	mu        sync.Mutex
	rx        *protocol.FifoBuffer
	tx        *protocol.ScratchOutput
	write     func([]byte) (int, error)
	registry  *protocol.Registry
	transport *protocol.Transport

	keys     [consoleKeyQueue]byte
	keyHead  int
	keyCount int

	// last calculator snapshot, for get_state
	state State
	a, b  uint32

	idKeyEvent   uint16
	idLCDCommand uint16
	idLCDText    uint16
	idCalcState  uint16
	idCalcResult uint16
	idDebug      uint16
	idVersion    uint16

	// WriteErrors counts failed or short writes to the link.
	WriteErrors uint32
	// Dropped counts injected keys lost to a full queue.
	Dropped uint32
}

// NewConsole builds a console that sends its frames through write.
func NewConsole(write func([]byte) (int, error)) *Console {
	c := &Console{
		rx:       protocol.NewFifoBuffer(consoleRxSize),
		tx:       protocol.NewScratchOutput(),
		write:    write,
		registry: protocol.NewLinkRegistry(),
	}

	r := c.registry
	c.idKeyEvent = r.MustLookup(protocol.RespKeyEvent)
	c.idLCDCommand = r.MustLookup(protocol.RespLCDCommand)
	c.idLCDText = r.MustLookup(protocol.RespLCDText)
	c.idCalcState = r.MustLookup(protocol.RespCalcState)
	c.idCalcResult = r.MustLookup(protocol.RespCalcResult)
	c.idDebug = r.MustLookup(protocol.RespDebug)
	c.idVersion = r.MustLookup(protocol.RespVersion)

	// Names come from the catalogue, so Bind cannot fail here.
	_ = r.Bind(protocol.CmdInjectKey, c.handleInjectKey)
	_ = r.Bind(protocol.CmdGetState, c.handleGetState)

	c.transport = protocol.NewTransport(c.tx, r.Dispatch)
	c.transport.SetFlushCallback(c.flushLocked)
	c.transport.SetResetCallback(func() {
		c.keyHead = 0
		c.keyCount = 0
	})
	return c
}

// Registry returns the message catalogue the console speaks.
func (c *Console) Registry() *protocol.Registry {
	return c.registry
}

// Feed hands received bytes to the console. Safe to call from a reader
// goroutine. Bytes that do not fit are dropped and will be retransmitted
// by the host.
func (c *Console) Feed(data []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rx.Write(data)
}

// Process decodes buffered frames and runs their handlers.
func (c *Console) Process() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rx.IsEmpty() {
		return
	}
	c.transport.Receive(c.rx)
}

// NextKey pops the oldest injected key, or NoKey.
func (c *Console) NextKey() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keyCount == 0 {
		return NoKey
	}
	k := c.keys[c.keyHead]
	c.keyHead = (c.keyHead + 1) % consoleKeyQueue
	c.keyCount--
	return k
}

// PendingKeys reports how many injected keys are queued.
func (c *Console) PendingKeys() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyCount
}

// FrameErrors returns the receive-side framing error count.
func (c *Console) FrameErrors() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport.FrameErrors()
}

// HandlerErrors counts commands the console refused, such as injected keys
// that are not on the keypad.
func (c *Console) HandlerErrors() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport.HandlerErrors
}

func (c *Console) KeyEvent(key byte, source uint8) {
	c.send(c.idKeyEvent, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, uint32(key))
		protocol.EncodeVLQUint(o, uint32(source))
	})
}

func (c *Console) LCDCommand(cmd byte) {
	c.send(c.idLCDCommand, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, uint32(cmd))
	})
}

func (c *Console) LCDText(s string) {
	c.send(c.idLCDText, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQString(o, s)
	})
}

// CalcState implements CalcObserver.
func (c *Console) CalcState(state State, a, b uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state, c.a, c.b = state, a, b
	c.sendLocked(c.idCalcState, c.encodeState)
}

// CalcResult implements CalcObserver.
func (c *Console) CalcResult(a, b, result uint32) {
	c.send(c.idCalcResult, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQUint(o, a)
		protocol.EncodeVLQUint(o, b)
		protocol.EncodeVLQUint(o, result)
	})
}

// Debug sends a log line over the link. It has the DebugWriter signature so
// a target can route DebugPrintln through the console.
func (c *Console) Debug(msg string) {
	if len(msg) > maxDebugText {
		msg = msg[:maxDebugText]
	}
	c.send(c.idDebug, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQString(o, msg)
	})
}

// A frame carries at most 64 bytes; leave room for header, ID and length.
const maxDebugText = protocol.MessageLengthMax - protocol.MessageHeaderSize - protocol.MessageTrailerSize - 4

func (c *Console) handleInjectKey(data *[]byte) error {
	key, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return err
	}
	if key > 0xFF {
		return ErrInjectedKey
	}
	if _, _, ok := KeyPosition(byte(key)); !ok {
		return ErrInjectedKey
	}
	if c.keyCount == consoleKeyQueue {
		c.Dropped++
		return nil
	}
	c.keys[(c.keyHead+c.keyCount)%consoleKeyQueue] = byte(key)
	c.keyCount++
	return nil
}

func (c *Console) handleGetState(data *[]byte) error {
	c.sendLocked(c.idCalcState, c.encodeState)
	c.sendLocked(c.idVersion, func(o protocol.OutputBuffer) {
		protocol.EncodeVLQString(o, protocol.Version)
	})
	return nil
}

func (c *Console) encodeState(o protocol.OutputBuffer) {
	protocol.EncodeVLQUint(o, uint32(c.state))
	protocol.EncodeVLQUint(o, c.a)
	protocol.EncodeVLQUint(o, c.b)
}

func (c *Console) send(id uint16, args func(protocol.OutputBuffer)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendLocked(id, args)
}

func (c *Console) sendLocked(id uint16, args func(protocol.OutputBuffer)) {
	if !c.transport.SendResponse(id, args) {
		// Oversized frame; the host would reject it anyway.
		c.tx.Reset()
		return
	}
	c.flushLocked()
}

func (c *Console) flushLocked() {
	data := c.tx.Result()
	if len(data) == 0 || c.write == nil {
		c.tx.Reset()
		return
	}
	n, err := c.write(data)
	if err != nil || n != len(data) {
		c.WriteErrors++
	}
	c.tx.Reset()
}
