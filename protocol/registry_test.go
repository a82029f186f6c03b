package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestRegistrySequentialIDs(t *testing.T) {
	r := NewRegistry()

	id1 := r.Register("first", "a=%u", KindCommand)
	id2 := r.Register("second", "", KindResponse)
	again := r.Register("first", "ignored", KindResponse)

	if id1 != 0 || id2 != 1 {
		t.Errorf("IDs not sequential: %d, %d", id1, id2)
	}
	if again != id1 {
		t.Errorf("Re-registering returned %d, want %d", again, id1)
	}
	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}

	def, ok := r.Get(id1)
	if !ok || def.Format != "a=%u" || def.Kind != KindCommand {
		t.Errorf("Get(%d) = %+v, %v", id1, def, ok)
	}
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()
	id := r.Register("inject", "key=%c", KindCommand)

	var got uint32
	if err := r.Bind("inject", func(data *[]byte) error {
		v, err := DecodeVLQUint(data)
		got = v
		return err
	}); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	data := []byte{'7'}
	if err := r.Dispatch(id, &data); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got != '7' {
		t.Errorf("Handler decoded %d, want %d", got, '7')
	}

	if err := r.Dispatch(99, &data); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("Unknown ID: got %v", err)
	}

	unbound := r.Register("response", "", KindResponse)
	if err := r.Dispatch(unbound, &data); !errors.Is(err, ErrNoHandler) {
		t.Errorf("Unbound message: got %v", err)
	}

	if err := r.Bind("missing", nil); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("Bind unknown: got %v", err)
	}
}

func TestLinkRegistryIsStable(t *testing.T) {
	a := NewLinkRegistry()
	b := NewLinkRegistry()

	if a.Dictionary() != b.Dictionary() {
		t.Fatal("Two link registries disagree")
	}
	if id := a.MustLookup(CmdInjectKey); id != 0 {
		t.Errorf("inject_key has ID %d, want 0", id)
	}
	if !strings.Contains(a.Dictionary(), "calc_result a=%u b=%u result=%u") {
		t.Errorf("Dictionary missing calc_result:\n%s", a.Dictionary())
	}
}
