package protocol

import (
	"bytes"
	"testing"
)

func TestVLQIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 31, -32, 95, 96, 127, -127, 4095, -4096,
		65535, -65535, 1 << 26, -(1 << 26), 2147483647, -2147483648}

	for _, want := range values {
		out := NewScratchOutput()
		EncodeVLQInt(out, want)

		data := out.Result()
		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("Decode %d: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("VLQ mismatch: want %d, got %d (encoded %v)", want, got, out.Result())
		}
		if len(data) != 0 {
			t.Errorf("Decode %d left %d bytes", want, len(data))
		}
	}
}

func TestVLQEncodingLength(t *testing.T) {
	tests := []struct {
		v    uint32
		size int
	}{
		{0, 1},
		{95, 1},
		{96, 2},
		{4095, 2},
		{1 << 20, 3},
		{0xFFFFFFFF, 1}, // -1 as signed
		{0x7FFFFFFF, 5},
	}

	for _, tc := range tests {
		out := NewScratchOutput()
		EncodeVLQUint(out, tc.v)
		if len(out.Result()) != tc.size {
			t.Errorf("EncodeVLQUint(%d) used %d bytes, want %d", tc.v, len(out.Result()), tc.size)
		}
	}
}

func TestVLQStringAndBytes(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQString(out, "12*3")
	EncodeVLQBytes(out, []byte{0xFF, 0x00})

	data := out.Result()
	s, err := DecodeVLQString(&data)
	if err != nil || s != "12*3" {
		t.Fatalf("DecodeVLQString = %q, %v", s, err)
	}
	b, err := DecodeVLQBytes(&data)
	if err != nil || !bytes.Equal(b, []byte{0xFF, 0x00}) {
		t.Fatalf("DecodeVLQBytes = %v, %v", b, err)
	}
}

func TestVLQTruncated(t *testing.T) {
	data := []byte{0x80}
	if _, err := DecodeVLQInt(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}

	data = []byte{0x05, 'a', 'b'}
	if _, err := DecodeVLQString(&data); err != ErrBufferTooSmall {
		t.Errorf("Short string: expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQOverlong(t *testing.T) {
	data := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&data); err != ErrInvalidVLQ {
		t.Errorf("Expected ErrInvalidVLQ, got %v", err)
	}
}
