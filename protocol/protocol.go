// Package protocol implements the framed serial link between the calculator
// firmware and a host console.
//
// Frame layout (both directions):
//
//	[len][seq][payload ...][crc hi][crc lo][0x7E]
//
// len counts the whole frame. seq carries MessageDest in the high nibble and
// a 4-bit sequence number in the low nibble. The payload is a series of
// VLQ-encoded message IDs, each followed by its VLQ-encoded arguments. An
// empty payload is an ACK/NAK carrying the next expected sequence.
package protocol

// Version is the link protocol version reported by get_state.
const Version = "1.0.0"

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F

	// MessageMax bounds a scratch output buffer; several frames can be
	// queued before a flush.
	MessageMax = 512
)

// Message is a decoded frame.
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte
	CRC      uint16
}

// IsAck reports whether the frame is an ACK/NAK (no payload).
func (m *Message) IsAck() bool {
	return len(m.Payload) == 0
}

// NextSequence returns the sequence that follows seq, staying in the
// MessageDest range.
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// EncodeFrame writes a complete frame to output. body writes the payload and
// may be nil for an ACK. It returns false if the payload did not fit in a
// single frame; the partial frame is still written and will be rejected by the
// receiver's CRC check, so callers should size their payloads.
func EncodeFrame(output OutputBuffer, seq uint8, body func(output OutputBuffer)) bool {
	start := output.CurPosition()
	output.Output([]byte{0, seq})
	if body != nil {
		body(output)
	}

	length := len(output.DataSince(start)) + MessageTrailerSize
	output.Update(start, uint8(length))

	crc := CRC16(output.DataSince(start))
	output.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
	return length <= MessageLengthMax
}

// FrameScanner splits a byte stream into frames, resynchronising on the sync
// byte after any framing or CRC error.
type FrameScanner struct {
	desynced bool
	// Errors counts frames dropped for bad length, sync or CRC.
	Errors uint32
}

// Scan consumes as many complete frames from data as possible, calling fn
// for each valid one. The payload passed to fn aliases data. It returns the
// number of bytes consumed; a trailing partial frame is left in place.
func (s *FrameScanner) Scan(data []byte, fn func(seq uint8, payload []byte)) int {
	total := len(data)

	for len(data) > 0 {
		if s.desynced {
			idx := -1
			for i, b := range data {
				if b == MessageValueSync {
					idx = i
					break
				}
			}
			if idx < 0 {
				data = nil
				break
			}
			data = data[idx+1:]
			s.desynced = false
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			s.drop()
			continue
		}
		if data[MessagePositionSeq]&^MessageSeqMask != MessageDest {
			s.drop()
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			s.drop()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			s.drop()
			continue
		}

		fn(data[MessagePositionSeq], data[MessageHeaderSize:msgLen-MessageTrailerSize])
		data = data[msgLen:]
	}

	return total - len(data)
}

// Synchronized reports whether the scanner is aligned on frame boundaries.
func (s *FrameScanner) Synchronized() bool {
	return !s.desynced
}

// Reset realigns the scanner.
func (s *FrameScanner) Reset() {
	s.desynced = false
}

func (s *FrameScanner) drop() {
	s.desynced = true
	s.Errors++
}
