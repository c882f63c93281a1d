package realtime

import (
	"sync"
)

type delivery struct {
	handle  string
	event   string
	payload interface{}
}

// fakeTransport delivers synchronously to an in-memory set of connections
// and records what each one received.
type fakeTransport struct {
	mu         sync.Mutex
	handles    []string
	rooms      map[string]map[string]bool
	deliveries []delivery
}

func newFakeTransport(handles ...string) *fakeTransport {
	return &fakeTransport{handles: handles, rooms: make(map[string]map[string]bool)}
}

func (f *fakeTransport) connect(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handles = append(f.handles, handle)
}

func (f *fakeTransport) drop(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, h := range f.handles {
		if h == handle {
			f.handles = append(f.handles[:i], f.handles[i+1:]...)
			break
		}
	}
	for _, members := range f.rooms {
		delete(members, handle)
	}
}

func (f *fakeTransport) Emit(handle, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{handle, event, payload})
}

func (f *fakeTransport) BroadcastToRoom(room, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.handles {
		if f.rooms[room][h] {
			f.deliveries = append(f.deliveries, delivery{h, event, payload})
		}
	}
}

func (f *fakeTransport) BroadcastExcept(handle, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.handles {
		if h != handle {
			f.deliveries = append(f.deliveries, delivery{h, event, payload})
		}
	}
}

func (f *fakeTransport) Join(handle, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rooms[room] == nil {
		f.rooms[room] = make(map[string]bool)
	}
	f.rooms[room][handle] = true
}

func (f *fakeTransport) Leave(handle, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms[room], handle)
}

func (f *fakeTransport) inRoom(handle, room string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[room][handle]
}

// received returns the payloads of event delivered to handle, in order.
func (f *fakeTransport) received(handle, event string) []interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []interface{}
	for _, d := range f.deliveries {
		if d.handle == handle && d.event == event {
			out = append(out, d.payload)
		}
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = nil
}
