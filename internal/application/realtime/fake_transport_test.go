package realtime_test

import (
	"encoding/json"
	"sync"

	"github.com/jhoicas/Inventario-sync/internal/application/realtime"
)

type emission struct {
	Event   string
	Payload any
}

// fakeTransport transporte en memoria. responder (si existe) se invoca en cada Emit,
// fuera del lock, y puede llamar a Deliver de forma síncrona.
type fakeTransport struct {
	mu        sync.Mutex
	connected bool
	handlers  map[string]realtime.Handler
	emitted   []emission
	responder func(f *fakeTransport, event string, payload any)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{connected: true, handlers: make(map[string]realtime.Handler)}
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) SetConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *fakeTransport) On(event string, h realtime.Handler) {
	f.mu.Lock()
	f.handlers[event] = h
	f.mu.Unlock()
}

func (f *fakeTransport) Off(event string) {
	f.mu.Lock()
	delete(f.handlers, event)
	f.mu.Unlock()
}

func (f *fakeTransport) Emit(event string, payload any) error {
	f.mu.Lock()
	f.emitted = append(f.emitted, emission{Event: event, Payload: payload})
	responder := f.responder
	f.mu.Unlock()
	if responder != nil {
		responder(f, event, payload)
	}
	return nil
}

func (f *fakeTransport) Emitted() []emission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emission(nil), f.emitted...)
}

func (f *fakeTransport) HasHandler(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[event]
	return ok
}

// Deliver entrega payload (serializado a JSON) al handler del evento. false si no hay handler.
func (f *fakeTransport) Deliver(event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(data)
	return true
}

// DeliverRaw entrega JSON literal.
func (f *fakeTransport) DeliverRaw(event, raw string) bool {
	f.mu.Lock()
	h := f.handlers[event]
	f.mu.Unlock()
	if h == nil {
		return false
	}
	h(json.RawMessage(raw))
	return true
}
