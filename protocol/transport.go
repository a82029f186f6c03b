package protocol

// CommandHandler handles one decoded message. data points just past the
// message ID.
type CommandHandler func(cmdID uint16, data *[]byte) error

// Transport is the firmware end of the link. It is not safe for concurrent
// use; the firmware drives it from its main loop.
type Transport struct {
	scanner FrameScanner
	nextSeq uint8
	output  OutputBuffer
	handler CommandHandler

	resetCallback func()
	flushCallback func()

	// HandlerErrors counts messages whose handler returned an error.
	HandlerErrors uint32
}

func NewTransport(output OutputBuffer, handler CommandHandler) *Transport {
	return &Transport{
		nextSeq: MessageDest,
		output:  output,
		handler: handler,
	}
}

// Receive consumes complete frames from input, dispatches in-sequence
// frames and answers every frame with an ACK/NAK.
func (t *Transport) Receive(input InputBuffer) {
	consumed := t.scanner.Scan(input.Data(), func(seq uint8, payload []byte) {
		if seq == MessageDest && t.nextSeq != MessageDest {
			// Host restarted its sequence.
			t.nextSeq = MessageDest
			if t.resetCallback != nil {
				t.resetCallback()
			}
		}
		if seq == t.nextSeq {
			t.nextSeq = NextSequence(seq)
			t.parsePayload(payload)
		}
		// Out-of-sequence frames get the same reply, which the host reads as
		// a NAK naming the sequence we want.
		t.encodeAck()
	})
	input.Pop(consumed)
}

func (t *Transport) parsePayload(payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			t.HandlerErrors++
		}
	}()

	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			t.HandlerErrors++
			return
		}
		if t.handler == nil {
			return
		}
		if err := t.handler(uint16(id), &payload); err != nil {
			// Arguments of a failed message can't be skipped reliably.
			t.HandlerErrors++
			return
		}
	}
}

func (t *Transport) encodeAck() {
	EncodeFrame(t.output, t.nextSeq, nil)
	if t.flushCallback != nil {
		t.flushCallback()
	}
}

// SendResponse queues a frame holding one message. It reports false if the
// message was too long for a frame.
func (t *Transport) SendResponse(id uint16, args func(output OutputBuffer)) bool {
	return EncodeFrame(t.output, t.nextSeq, func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(id))
		if args != nil {
			args(output)
		}
	})
}

// Synchronized reports whether the receive side is aligned on frames.
func (t *Transport) Synchronized() bool {
	return t.scanner.Synchronized()
}

// FrameErrors returns the number of frames dropped on receive.
func (t *Transport) FrameErrors() uint32 {
	return t.scanner.Errors
}

// Reset restores the power-on sequence state.
func (t *Transport) Reset() {
	t.scanner.Reset()
	t.nextSeq = MessageDest
	if t.resetCallback != nil {
		t.resetCallback()
	}
}

// SetResetCallback registers a function run when the host restarts.
func (t *Transport) SetResetCallback(callback func()) {
	t.resetCallback = callback
}

// SetFlushCallback registers a function run after each ACK is queued so it
// can be pushed out ahead of pending responses.
func (t *Transport) SetFlushCallback(callback func()) {
	t.flushCallback = callback
}
