package protocol

import "testing"

func TestCRC16(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint16
	}{
		{"empty", []byte{}, 0xFFFF},
		{"check string", []byte("123456789"), 0x6F91},
	}

	for _, tc := range tests {
		if got := CRC16(tc.data); got != tc.want {
			t.Errorf("%s: CRC16 = 0x%04X, want 0x%04X", tc.name, got, tc.want)
		}
	}
}

func TestCRC16DetectsSingleByteChange(t *testing.T) {
	a := CRC16([]byte{0x01, 0x02, 0x03})
	b := CRC16([]byte{0x01, 0x02, 0x04})
	if a == b {
		t.Errorf("CRC16 collision: both inputs produced 0x%04X", a)
	}
}
