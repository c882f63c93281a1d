package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/mdhaarishussain/Yuvshiksha/internal/metrics"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
)

// PresenceStore maps each online user to the one connection handle that
// currently represents them.
type PresenceStore interface {
	// Set records handle as userID's connection, replacing any earlier one.
	// previous is the other user handle was authenticated as, if any.
	Set(ctx context.Context, userID, handle string) (previous string, err error)
	// RemoveHandle drops the mapping that points at handle. removed is false
	// when handle was never authenticated or has since been superseded.
	RemoveHandle(ctx context.Context, handle string) (userID string, removed bool, err error)
	IsOnline(ctx context.Context, userID string) (bool, error)
	Online(ctx context.Context) ([]string, error)
}

// MemoryPresence is a process-local PresenceStore.
type MemoryPresence struct {
	mu       sync.RWMutex
	byUser   map[string]string
	byHandle map[string]string
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{
		byUser:   make(map[string]string),
		byHandle: make(map[string]string),
	}
}

func (m *MemoryPresence) Set(_ context.Context, userID, handle string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// the handle re-authenticated as someone else
	previous := m.byHandle[handle]
	if previous == userID {
		previous = ""
	}
	if previous != "" && m.byUser[previous] == handle {
		delete(m.byUser, previous)
	}
	// a newer connection supersedes the old one, whose disconnect becomes a no-op
	if old, ok := m.byUser[userID]; ok && old != handle {
		delete(m.byHandle, old)
	}
	m.byUser[userID] = handle
	m.byHandle[handle] = userID
	return previous, nil
}

func (m *MemoryPresence) RemoveHandle(_ context.Context, handle string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.byHandle[handle]
	if !ok {
		return "", false, nil
	}
	delete(m.byHandle, handle)
	if m.byUser[userID] != handle {
		return "", false, nil
	}
	delete(m.byUser, userID)
	return userID, true, nil
}

func (m *MemoryPresence) IsOnline(_ context.Context, userID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byUser[userID]
	return ok, nil
}

func (m *MemoryPresence) Online(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]string, 0, len(m.byUser))
	for userID := range m.byUser {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users, nil
}

// Presence tracks who is online and tells everyone else when that changes.
type Presence struct {
	store     PresenceStore
	transport Transport
}

func NewPresence(store PresenceStore, transport Transport) *Presence {
	return &Presence{store: store, transport: transport}
}

// Authenticate marks userID online through handle, subscribes handle to the
// user's personal channel and announces the user to every other connection.
// The caller receives the current online list instead of its own announcement.
// A handle that re-authenticates as another user leaves the earlier user's
// personal channel.
func (p *Presence) Authenticate(ctx context.Context, userID, handle string) error {
	previous, err := p.store.Set(ctx, userID, handle)
	if err != nil {
		return err
	}
	if previous != "" {
		p.transport.Leave(handle, PersonalRoom(previous))
	}
	p.transport.Join(handle, PersonalRoom(userID))
	p.transport.BroadcastExcept(handle, EventUserOnline, userID)

	online, err := p.store.Online(ctx)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("Failed to list online users")
		return nil
	}
	metrics.OnlineUsers.Set(float64(len(online)))
	p.transport.Emit(handle, EventOnlineUsers, online)
	return nil
}

// Disconnect clears handle's mapping and announces the user offline. It is a
// no-op when handle is unknown or a newer connection replaced it.
func (p *Presence) Disconnect(ctx context.Context, handle string) (string, bool, error) {
	userID, removed, err := p.store.RemoveHandle(ctx, handle)
	if err != nil || !removed {
		return "", false, err
	}
	p.transport.BroadcastExcept(handle, EventUserOffline, userID)
	if online, err := p.store.Online(ctx); err == nil {
		metrics.OnlineUsers.Set(float64(len(online)))
	}
	return userID, true, nil
}

func (p *Presence) IsOnline(ctx context.Context, userID string) (bool, error) {
	return p.store.IsOnline(ctx, userID)
}

func (p *Presence) Online(ctx context.Context) ([]string, error) {
	return p.store.Online(ctx)
}

// PushToUser sends an event to userID's personal channel.
func (p *Presence) PushToUser(userID, event string, payload interface{}) {
	p.transport.BroadcastToRoom(PersonalRoom(userID), event, payload)
}
