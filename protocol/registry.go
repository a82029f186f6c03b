package protocol

import (
	"errors"
	"strconv"
	"sync"
)

var (
	ErrUnknownMessage = errors.New("unknown message")
	ErrNoHandler      = errors.New("message has no handler")
)

// Kind tells which direction a message travels.
type Kind uint8

const (
	// KindCommand messages travel host -> firmware.
	KindCommand Kind = iota
	// KindResponse messages travel firmware -> host.
	KindResponse
)

// Handler decodes its own arguments from the front of *data.
type Handler func(data *[]byte) error

// Definition describes one message in the link catalogue.
type Definition struct {
	ID      uint16
	Name    string
	Format  string // e.g. "key=%c"
	Kind    Kind
	Handler Handler
}

// Registry assigns sequential IDs to message names. Both ends build the
// same registry in the same order, so IDs agree without a dictionary
// exchange.
type Registry struct {
	mu     sync.RWMutex
	defs   map[uint16]*Definition
	byName map[string]uint16
	nextID uint16
}

func NewRegistry() *Registry {
	return &Registry{
		defs:   make(map[uint16]*Definition),
		byName: make(map[string]uint16),
	}
}

// Register adds a message and returns its ID. Registering a name twice
// returns the existing ID.
func (r *Registry) Register(name, format string, kind Kind) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[name]; ok {
		return id
	}

	id := r.nextID
	r.nextID++
	r.defs[id] = &Definition{ID: id, Name: name, Format: format, Kind: kind}
	r.byName[name] = id
	return id
}

// Bind attaches a handler to a registered message.
func (r *Registry) Bind(name string, handler Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[name]
	if !ok {
		return unknownName(name)
	}
	r.defs[id].Handler = handler
	return nil
}

// Lookup returns the ID registered for name.
func (r *Registry) Lookup(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// MustLookup is Lookup for names known at compile time.
func (r *Registry) MustLookup(name string) uint16 {
	id, ok := r.Lookup(name)
	if !ok {
		panic("protocol: message not registered: " + name)
	}
	return id
}

// Get returns the definition for id.
func (r *Registry) Get(id uint16) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	return def, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Dispatch runs the handler bound to id.
func (r *Registry) Dispatch(id uint16, data *[]byte) error {
	def, ok := r.Get(id)
	if !ok {
		return &MessageError{ID: id, Err: ErrUnknownMessage}
	}
	if def.Handler == nil {
		return &MessageError{ID: id, Name: def.Name, Err: ErrNoHandler}
	}
	return def.Handler(data)
}

// Dictionary lists the catalogue one message per line, in ID order.
func (r *Registry) Dictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dict := ""
	for id := uint16(0); id < r.nextID; id++ {
		def := r.defs[id]
		dict += strconv.Itoa(int(id)) + " " + def.Name
		if def.Format != "" {
			dict += " " + def.Format
		}
		dict += "\n"
	}
	return dict
}

// MessageError reports a dispatch failure for a specific message.
type MessageError struct {
	ID   uint16
	Name string
	Err  error
}

func (e *MessageError) Error() string {
	s := e.Err.Error() + ": id=" + strconv.Itoa(int(e.ID))
	if e.Name != "" {
		s += " name=" + e.Name
	}
	return s
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

func unknownName(name string) error {
	return &MessageError{Name: name, Err: ErrUnknownMessage}
}
