package chatclient

import (
	"fmt"
	"sync"
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/realtime"
)

type State string

const (
	StatePending State = "pending"
	StateQueued  State = "queued"
	StateSent    State = "sent"
	StateFailed  State = "failed"
)

var (
	ErrUnknownMessage    = fmt.Errorf("unknown client message id")
	ErrInvalidTransition = fmt.Errorf("invalid state transition")
)

// transitions lists the states each state may move to. Sent and failed are final.
var transitions = map[State][]State{
	StatePending: {StateSent, StateQueued, StateFailed},
	StateQueued:  {StatePending},
}

// PendingMessage is an optimistic send keyed by its client message id.
type PendingMessage struct {
	Payload   realtime.SendMessagePayload
	State     State
	MessageID string // durable id, set once sent
	Error     string // set once failed
	UpdatedAt time.Time
}

// Pending tracks optimistic sends until the server acknowledges or rejects them.
type Pending struct {
	mu    sync.Mutex
	items map[string]*PendingMessage
	now   func() time.Time
}

func NewPending() *Pending {
	return &Pending{items: make(map[string]*PendingMessage), now: time.Now}
}

// Track starts tracking p in the pending state. Tracking an id again is a no-op.
func (p *Pending) Track(payload realtime.SendMessagePayload) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.items[payload.ClientMessageID]; ok {
		return
	}
	p.items[payload.ClientMessageID] = &PendingMessage{Payload: payload, State: StatePending, UpdatedAt: p.now()}
}

func (p *Pending) move(id string, to State, apply func(*PendingMessage)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.items[id]
	if !ok {
		return ErrUnknownMessage
	}
	for _, allowed := range transitions[m.State] {
		if allowed == to {
			m.State = to
			m.UpdatedAt = p.now()
			if apply != nil {
				apply(m)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, m.State, to)
}

func (p *Pending) MarkQueued(id string) error {
	return p.move(id, StateQueued, nil)
}

func (p *Pending) MarkResent(id string) error {
	return p.move(id, StatePending, nil)
}

func (p *Pending) MarkSent(id, messageID string) error {
	return p.move(id, StateSent, func(m *PendingMessage) { m.MessageID = messageID })
}

func (p *Pending) MarkFailed(id, reason string) error {
	return p.move(id, StateFailed, func(m *PendingMessage) { m.Error = reason })
}

// Get returns a copy of the tracked message.
func (p *Pending) Get(id string) (PendingMessage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.items[id]
	if !ok {
		return PendingMessage{}, false
	}
	return *m, true
}

// Forget stops tracking id, typically after the UI has rendered the final state.
func (p *Pending) Forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.items, id)
}
