package chatclient

import (
	"errors"
	"testing"

	"github.com/mdhaarishussain/Yuvshiksha/internal/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmitter struct {
	fail    bool
	emitted []realtime.SendMessagePayload
}

func (f *fakeEmitter) Emit(event string, payload interface{}) error {
	if f.fail {
		return errors.New("connection lost")
	}
	if event == realtime.EventSendMessage {
		f.emitted = append(f.emitted, payload.(realtime.SendMessagePayload))
	}
	return nil
}

func openOutbox(t *testing.T, dir string) *Outbox {
	t.Helper()
	o, err := OpenOutbox(dir)
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	return o
}

func payload(id, content string) realtime.SendMessagePayload {
	return realtime.SendMessagePayload{Recipient: "bob", Content: content, ClientMessageID: id}
}

func TestOutbox_FIFOAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	o, err := OpenOutbox(dir)
	require.NoError(t, err)
	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, o.Enqueue(payload(id, "msg "+id)))
	}
	require.NoError(t, o.Close())
	assert.ErrorIs(t, o.Enqueue(payload("c4", "late")), ErrClosed)

	o = openOutbox(t, dir)
	require.NoError(t, o.Enqueue(payload("c4", "msg c4")))
	n, err := o.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	var order []string
	sent, err := o.Flush(func(p realtime.SendMessagePayload) error {
		order = append(order, p.ClientMessageID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, sent)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, order)

	n, err = o.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOutbox_FlushStopsAtFirstError(t *testing.T) {
	o := openOutbox(t, t.TempDir())
	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, o.Enqueue(payload(id, id)))
	}

	boom := errors.New("boom")
	sent, err := o.Flush(func(p realtime.SendMessagePayload) error {
		if p.ClientMessageID == "c2" {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sent)

	var rest []string
	_, err = o.Flush(func(p realtime.SendMessagePayload) error {
		rest = append(rest, p.ClientMessageID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c3"}, rest)
}

func TestPending_Transitions(t *testing.T) {
	p := NewPending()
	p.Track(payload("c1", "hi"))

	require.NoError(t, p.MarkQueued("c1"))
	require.NoError(t, p.MarkResent("c1"))
	require.NoError(t, p.MarkSent("c1", "m-1"))

	m, ok := p.Get("c1")
	require.True(t, ok)
	assert.Equal(t, StateSent, m.State)
	assert.Equal(t, "m-1", m.MessageID)

	assert.ErrorIs(t, p.MarkFailed("c1", "late"), ErrInvalidTransition)
	assert.ErrorIs(t, p.MarkSent("missing", "m-2"), ErrUnknownMessage)

	p.Track(payload("c2", "hi"))
	require.NoError(t, p.MarkFailed("c2", "Recipient not found"))
	m, _ = p.Get("c2")
	assert.Equal(t, StateFailed, m.State)
	assert.Equal(t, "Recipient not found", m.Error)
	assert.ErrorIs(t, p.MarkResent("c2"), ErrInvalidTransition)

	p.Forget("c2")
	_, ok = p.Get("c2")
	assert.False(t, ok)
}

func TestClient_OfflineSendsFlushOnConnect(t *testing.T) {
	emitter := &fakeEmitter{}
	c := NewClient(openOutbox(t, t.TempDir()), emitter)

	id1, err := c.Send(payload("", "first"))
	require.NoError(t, err)
	require.NotEmpty(t, id1)
	id2, err := c.Send(payload("c2", "second"))
	require.NoError(t, err)
	assert.Equal(t, "c2", id2)

	m, _ := c.Pending().Get(id1)
	assert.Equal(t, StateQueued, m.State)
	assert.Empty(t, emitter.emitted)

	n, err := c.HandleConnected()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, emitter.emitted, 2)
	assert.Equal(t, "first", emitter.emitted[0].Content)
	assert.Equal(t, "second", emitter.emitted[1].Content)

	m, _ = c.Pending().Get(id1)
	assert.Equal(t, StatePending, m.State)

	require.NoError(t, c.HandleMessageSent(realtime.MessageSent{ID: "m-1", ClientMessageID: id1}))
	require.NoError(t, c.HandleMessageError(realtime.MessageError{Error: "Rate limit exceeded", ClientMessageID: "c2"}))
	require.NoError(t, c.HandleMessageError(realtime.MessageError{Error: "Not authenticated"}))

	m, _ = c.Pending().Get(id1)
	assert.Equal(t, StateSent, m.State)
	assert.Equal(t, "m-1", m.MessageID)
	m, _ = c.Pending().Get("c2")
	assert.Equal(t, StateFailed, m.State)
}

func TestClient_EmitFailureQueues(t *testing.T) {
	emitter := &fakeEmitter{}
	outbox := openOutbox(t, t.TempDir())
	c := NewClient(outbox, emitter)
	_, err := c.HandleConnected()
	require.NoError(t, err)

	id, err := c.Send(payload("c1", "online"))
	require.NoError(t, err)
	m, _ := c.Pending().Get(id)
	assert.Equal(t, StatePending, m.State)
	assert.Len(t, emitter.emitted, 1)

	emitter.fail = true
	id, err = c.Send(payload("c2", "dropped"))
	require.NoError(t, err)
	m, _ = c.Pending().Get(id)
	assert.Equal(t, StateQueued, m.State)

	n, err := outbox.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	emitter.fail = false
	sent, err := c.HandleConnected()
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, "dropped", emitter.emitted[1].Content)
}

func TestClient_RestartReplaysUntrackedEntries(t *testing.T) {
	dir := t.TempDir()
	o, err := OpenOutbox(dir)
	require.NoError(t, err)
	require.NoError(t, o.Enqueue(payload("c1", "from last run")))
	require.NoError(t, o.Close())

	emitter := &fakeEmitter{}
	c := NewClient(openOutbox(t, dir), emitter)
	n, err := c.HandleConnected()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	m, ok := c.Pending().Get("c1")
	require.True(t, ok)
	assert.Equal(t, StatePending, m.State)
}
