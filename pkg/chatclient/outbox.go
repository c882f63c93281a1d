package chatclient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/mdhaarishussain/Yuvshiksha/internal/realtime"
)

var ErrClosed = fmt.Errorf("outbox closed")

var (
	outboxPrefix = []byte("outbox/")
	outboxUpper  = []byte("outbox0") // '0' sorts right after '/'
)

// Outbox is a durable FIFO of sends made while offline. Entries survive a
// process restart and are replayed in enqueue order.
type Outbox struct {
	mu     sync.Mutex
	db     *pebble.DB
	seq    uint64
	closed bool
}

// OpenOutbox opens or creates the outbox stored in dir.
func OpenOutbox(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open outbox: %w", err)
	}

	o := &Outbox{db: db}
	seq, err := o.lastSeq()
	if err != nil {
		db.Close()
		return nil, err
	}
	o.seq = seq
	return o, nil
}

func outboxKey(seq uint64) []byte {
	return append(append([]byte{}, outboxPrefix...), fmt.Sprintf("%020d", seq)...)
}

func (o *Outbox) iter() (*pebble.Iterator, error) {
	return o.db.NewIter(&pebble.IterOptions{LowerBound: outboxPrefix, UpperBound: outboxUpper})
}

func (o *Outbox) lastSeq() (uint64, error) {
	it, err := o.iter()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	if !it.Last() {
		return 0, nil
	}
	seq, err := strconv.ParseUint(string(it.Key()[len(outboxPrefix):]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("outbox corrupt key %q: %w", it.Key(), err)
	}
	return seq, nil
}

// Enqueue appends p to the outbox.
func (o *Outbox) Enqueue(p realtime.SendMessagePayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}

	o.seq++
	return o.db.Set(outboxKey(o.seq), data, pebble.Sync)
}

// Len counts queued entries.
func (o *Outbox) Len() (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, ErrClosed
	}

	it, err := o.iter()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for it.First(); it.Valid(); it.Next() {
		n++
	}
	return n, it.Error()
}

// Flush hands every entry to emit in enqueue order and removes it once emit
// returns nil. It stops at the first emit error, leaving that entry and the
// rest queued.
func (o *Outbox) Flush(emit func(realtime.SendMessagePayload) error) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, ErrClosed
	}

	it, err := o.iter()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	sent := 0
	for it.First(); it.Valid(); it.Next() {
		var p realtime.SendMessagePayload
		if err := json.Unmarshal(it.Value(), &p); err != nil {
			return sent, fmt.Errorf("outbox corrupt entry %q: %w", it.Key(), err)
		}
		if err := emit(p); err != nil {
			return sent, err
		}
		if err := o.db.Delete(it.Key(), pebble.Sync); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, it.Error()
}

func (o *Outbox) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	return o.db.Close()
}
