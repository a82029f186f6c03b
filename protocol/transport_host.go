package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	ErrTransportClosed = errors.New("transport closed")
	ErrNak             = errors.New("firmware rejected sequence")
)

// DefaultAckTimeout bounds how long SendCommand waits for an ACK.
const DefaultAckTimeout = 2 * time.Second

// ResponseHandler receives every non-ACK message from the firmware. It runs
// on the transport's read goroutine.
type ResponseHandler func(id uint16, data *[]byte) error

// HostTransport is the host end of the link. Commands are sent one at a time
// and each waits for its ACK; responses arrive asynchronously.
type HostTransport struct {
	port io.ReadWriteCloser

	sendMu sync.Mutex
	seq    uint8

	handlerMu sync.RWMutex
	handler   ResponseHandler

	input   *FifoBuffer
	scanner FrameScanner
	ackChan chan *Message

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewHostTransport starts reading from port immediately.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:     port,
		seq:      MessageDest,
		input:    NewFifoBuffer(1024),
		ackChan:  make(chan *Message, 4),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// SetResponseHandler installs the callback for firmware messages.
func (t *HostTransport) SetResponseHandler(handler ResponseHandler) {
	t.handlerMu.Lock()
	t.handler = handler
	t.handlerMu.Unlock()
}

// SendCommand sends one message and waits up to DefaultAckTimeout for the
// firmware to acknowledge it.
func (t *HostTransport) SendCommand(id uint16, args func(output OutputBuffer)) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultAckTimeout)
	defer cancel()
	return t.SendCommandContext(ctx, id, args)
}

// SendCommandContext is SendCommand bounded by ctx.
func (t *HostTransport) SendCommandContext(ctx context.Context, id uint16, args func(output OutputBuffer)) error {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	scratch := NewScratchOutput()
	ok := EncodeFrame(scratch, t.seq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(id))
		if args != nil {
			args(output)
		}
	})
	if !ok {
		return fmt.Errorf("message %d exceeds %d byte frame", id, MessageLengthMax)
	}

	// Forget ACKs left over from an earlier timed-out command.
	for len(t.ackChan) > 0 {
		<-t.ackChan
	}

	msg := scratch.Result()
	n, err := t.port.Write(msg)
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}

	want := NextSequence(t.seq)
	select {
	case ack := <-t.ackChan:
		if ack.Sequence != want {
			return fmt.Errorf("%w: sent 0x%02x, firmware expects 0x%02x", ErrNak, t.seq, ack.Sequence)
		}
		t.seq = want
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for ACK of seq 0x%02x: %w", t.seq, ctx.Err())
	case <-t.stopChan:
		return ErrTransportClosed
	}
}

// Sequence returns the sequence number the next command will carry.
func (t *HostTransport) Sequence() uint8 {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()
	return t.seq
}

// Close stops the reader and closes the port.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}

func (t *HostTransport) stopped() bool {
	select {
	case <-t.stopChan:
		return true
	default:
		return false
	}
}

func (t *HostTransport) readLoop() {
	defer close(t.doneChan)

	buf := make([]byte, 256)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			t.input.Write(buf[:n])
			t.process()
		}
		if err == nil {
			continue
		}
		if t.stopped() || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
			return
		}
		// Serial reads report io.EOF when the read timeout expires with no
		// data; keep polling.
		time.Sleep(10 * time.Millisecond)
	}
}

func (t *HostTransport) process() {
	data := t.input.Data()
	consumed := t.scanner.Scan(data, func(seq uint8, payload []byte) {
		msg := &Message{
			Length:   uint8(len(payload) + MessageLengthMin),
			Sequence: seq,
			Payload:  append([]byte(nil), payload...),
		}
		t.dispatch(msg)
	})
	t.input.Pop(consumed)
}

func (t *HostTransport) dispatch(msg *Message) {
	if msg.IsAck() {
		select {
		case t.ackChan <- msg:
		default:
		}
		return
	}

	t.handlerMu.RLock()
	handler := t.handler
	t.handlerMu.RUnlock()
	if handler == nil {
		return
	}

	payload := msg.Payload
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			return
		}
		if err := handler(uint16(id), &payload); err != nil {
			return
		}
	}
}
