package chatclient

import (
	"errors"
	"sync"

	"github.com/mdhaarishussain/Yuvshiksha/internal/realtime"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
)

// Emitter sends one event over the live connection.
type Emitter interface {
	Emit(event string, payload interface{}) error
}

// Client sends messages optimistically. While disconnected sends go to the
// outbox and are flushed in order on reconnect.
type Client struct {
	mu        sync.Mutex
	emitter   Emitter
	outbox    *Outbox
	pending   *Pending
	connected bool
}

func NewClient(outbox *Outbox, emitter Emitter) *Client {
	return &Client{emitter: emitter, outbox: outbox, pending: NewPending()}
}

func (c *Client) Pending() *Pending {
	return c.pending
}

// Send emits p, or queues it when offline. A client message id is generated
// when p has none. The returned id keys the message in Pending.
func (c *Client) Send(p realtime.SendMessagePayload) (string, error) {
	if p.ClientMessageID == "" {
		p.ClientMessageID = utils.NewCorrelationID()
	}
	c.pending.Track(p)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		err := c.emitter.Emit(realtime.EventSendMessage, p)
		if err == nil {
			return p.ClientMessageID, nil
		}
		c.connected = false
	}
	return p.ClientMessageID, c.queue(p)
}

func (c *Client) queue(p realtime.SendMessagePayload) error {
	if err := c.outbox.Enqueue(p); err != nil {
		_ = c.pending.MarkFailed(p.ClientMessageID, err.Error())
		return err
	}
	return c.pending.MarkQueued(p.ClientMessageID)
}

// HandleConnected marks the connection live and flushes the outbox. It returns
// how many queued messages were emitted.
func (c *Client) HandleConnected() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true

	return c.outbox.Flush(func(p realtime.SendMessagePayload) error {
		// Entries queued before a restart are not tracked yet
		c.pending.Track(p)
		if err := c.pending.MarkResent(p.ClientMessageID); err != nil && !errors.Is(err, ErrInvalidTransition) {
			return err
		}
		if err := c.emitter.Emit(realtime.EventSendMessage, p); err != nil {
			c.connected = false
			_ = c.pending.MarkQueued(p.ClientMessageID)
			return err
		}
		return nil
	})
}

func (c *Client) HandleDisconnected() {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

// HandleMessageSent reconciles an acknowledgement with its optimistic send.
func (c *Client) HandleMessageSent(ack realtime.MessageSent) error {
	if ack.ClientMessageID == "" {
		return ErrUnknownMessage
	}
	return c.pending.MarkSent(ack.ClientMessageID, ack.ID)
}

// HandleMessageError marks the matching send failed. Errors without a client
// message id are not tied to a send and are ignored.
func (c *Client) HandleMessageError(e realtime.MessageError) error {
	if e.ClientMessageID == "" {
		return nil
	}
	return c.pending.MarkFailed(e.ClientMessageID, e.Error)
}
