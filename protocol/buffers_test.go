package protocol

import (
	"bytes"
	"testing"
)

func TestSliceInputBufferPop(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})

	buf.Pop(2)
	if buf.Available() != 3 || buf.Data()[0] != 3 {
		t.Errorf("After Pop(2): available=%d data=%v", buf.Available(), buf.Data())
	}

	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("Pop past the end should empty the buffer, %d left", buf.Available())
	}
}

func TestScratchOutputPatch(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output([]byte{1, 2, 3})
	scratch.Output([]byte{4, 5})

	scratch.Update(0, 99)
	scratch.Update(7, 42) // past the write position, ignored

	if got := scratch.Result(); !bytes.Equal(got, []byte{99, 2, 3, 4, 5}) {
		t.Errorf("Result = %v", got)
	}
	if got := scratch.DataSince(2); !bytes.Equal(got, []byte{3, 4, 5}) {
		t.Errorf("DataSince(2) = %v", got)
	}
	if scratch.DataSince(6) != nil {
		t.Error("DataSince past the write position should be nil")
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 || scratch.Free() != MessageMax {
		t.Errorf("After Reset: pos=%d free=%d", scratch.CurPosition(), scratch.Free())
	}
}

func TestScratchOutputTruncates(t *testing.T) {
	scratch := NewScratchOutput()
	scratch.Output(make([]byte, MessageMax+10))
	if scratch.CurPosition() != MessageMax {
		t.Errorf("Expected truncation at %d, got %d", MessageMax, scratch.CurPosition())
	}
}

func TestFifoBufferCapacity(t *testing.T) {
	fifo := NewFifoBuffer(10)
	if !fifo.IsEmpty() {
		t.Fatal("New FIFO should be empty")
	}

	written := fifo.Write(make([]byte, 12))
	if written != 9 {
		t.Errorf("Size-10 FIFO should accept 9 bytes, took %d", written)
	}
	if fifo.Free() != 0 {
		t.Errorf("Full FIFO reports %d free", fifo.Free())
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)
	fifo.Write([]byte{1, 2, 3, 4})

	head := make([]byte, 2)
	fifo.Read(head)

	if n := fifo.Write([]byte{5, 6}); n != 2 {
		t.Fatalf("Expected to write 2 bytes across the wrap, wrote %d", n)
	}

	if got := fifo.Data(); !bytes.Equal(got, []byte{3, 4, 5, 6}) {
		t.Errorf("Data() across wrap = %v", got)
	}

	fifo.Pop(3)
	rest := make([]byte, 4)
	if n := fifo.Read(rest); n != 1 || rest[0] != 6 {
		t.Errorf("After Pop(3): read %d bytes %v", n, rest[:n])
	}
}
