package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/mdhaarishussain/Yuvshiksha/internal/metrics"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	"github.com/mdhaarishussain/Yuvshiksha/internal/services"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
)

// MessageStore is the part of the conversation store the protocol needs.
type MessageStore interface {
	Send(ctx context.Context, in services.SendInput) (*models.Message, bool, error)
	MarkRead(ctx context.Context, messageID, readerID string) (*models.Message, error)
	HasHistory(ctx context.Context, a, b string) (bool, error)
}

// Notifier records the durable notification for a delivered message.
type Notifier interface {
	NotifyNewMessage(ctx context.Context, msg *models.Message) error
}

// Limiter throttles sends per user.
type Limiter interface {
	Allow(key string) bool
}

// Error reasons, used as the metrics label for message_error.
const (
	reasonUnauthenticated = "unauthenticated"
	reasonForbidden       = "forbidden"
	reasonRateLimited     = "rate_limited"
	reasonValidation      = "validation"
	reasonNotFound        = "not_found"
	reasonStorage         = "storage"
)

type session struct {
	handle string
	// tokenUserID is the identity proven by the handshake token, if any.
	tokenUserID string

	mu     sync.Mutex
	userID string

	// sendMu keeps one connection's sends in receive order.
	sendMu sync.Mutex
}

func (s *session) identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Handler runs the messaging protocol for every connection. A connection is
// unauthenticated until it sends authenticate; only then may it join rooms,
// send or mark messages read.
type Handler struct {
	messages  MessageStore
	presence  *Presence
	transport Transport
	notifier  Notifier
	limiter   Limiter

	// dispatch runs best-effort side effects off the send path.
	dispatch func(func())

	mu       sync.RWMutex
	sessions map[string]*session
}

type HandlerOption func(*Handler)

func WithNotifier(n Notifier) HandlerOption {
	return func(h *Handler) { h.notifier = n }
}

func WithLimiter(l Limiter) HandlerOption {
	return func(h *Handler) { h.limiter = l }
}

// WithDispatcher replaces the goroutine used for side effects.
func WithDispatcher(d func(func())) HandlerOption {
	return func(h *Handler) { h.dispatch = d }
}

func NewHandler(messages MessageStore, presence *Presence, transport Transport, opts ...HandlerOption) *Handler {
	h := &Handler{
		messages:  messages,
		presence:  presence,
		transport: transport,
		dispatch:  func(f func()) { go f() },
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect registers a new connection. tokenUserID is the identity verified
// during the handshake, or empty when the handshake carried no token.
func (h *Handler) Connect(handle, tokenUserID string) {
	h.mu.Lock()
	h.sessions[handle] = &session{handle: handle, tokenUserID: tokenUserID}
	n := len(h.sessions)
	h.mu.Unlock()

	metrics.SocketConnections.Set(float64(n))
	logger.Debug().Str("socket_id", handle).Str("user_id", tokenUserID).Msg("Socket connected")
}

func (h *Handler) session(handle string) *session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[handle]
}

// UserID returns the identity a connection authenticated as.
func (h *Handler) UserID(handle string) string {
	if s := h.session(handle); s != nil {
		return s.identity()
	}
	return ""
}

func (h *Handler) fail(handle, reason, msg, clientMessageID string) {
	metrics.MessageErrors.WithLabelValues(reason).Inc()
	h.transport.Emit(handle, EventMessageError, MessageError{Error: msg, ClientMessageID: clientMessageID})
}

// failWith reports err to the originating connection using the client-safe
// message of an AppError.
func (h *Handler) failWith(handle string, err error, clientMessageID string) {
	appErr, ok := apperrors.As(err)
	if !ok {
		logger.Error().Err(err).Str("socket_id", handle).Msg("Unexpected socket error")
		h.fail(handle, reasonStorage, "Failed to send message", clientMessageID)
		return
	}

	reason := reasonStorage
	switch appErr.Code {
	case http.StatusBadRequest:
		reason = reasonValidation
	case http.StatusForbidden:
		reason = reasonForbidden
	case http.StatusNotFound:
		reason = reasonNotFound
	}
	if reason == reasonStorage {
		logger.Error().Err(err).Str("socket_id", handle).Msg("Socket operation failed")
	}
	h.fail(handle, reason, appErr.Message, clientMessageID)
}

// Authenticate binds the connection to userID.
func (h *Handler) Authenticate(ctx context.Context, handle, userID string) {
	s := h.session(handle)
	if s == nil {
		return
	}
	if userID == "" {
		h.fail(handle, reasonValidation, "User id is required", "")
		return
	}
	if s.tokenUserID != "" && s.tokenUserID != userID {
		logger.Warn().Str("socket_id", handle).Str("token_user", s.tokenUserID).Str("claimed_user", userID).Msg("Socket authenticate mismatch")
		h.fail(handle, reasonForbidden, "Authentication does not match token", "")
		return
	}

	if err := h.presence.Authenticate(ctx, userID, handle); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to record presence")
		h.fail(handle, reasonStorage, "Authentication failed", "")
		return
	}

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	logger.Info().Str("socket_id", handle).Str("user_id", userID).Msg("Socket authenticated")
}

// JoinRoom subscribes the connection to a conversation room it belongs to.
func (h *Handler) JoinRoom(_ context.Context, handle, roomID string) {
	userID := h.UserID(handle)
	if userID == "" {
		h.fail(handle, reasonUnauthenticated, "Not authenticated", "")
		return
	}
	if !CanJoin(roomID, userID) {
		h.fail(handle, reasonForbidden, "Cannot join room", "")
		return
	}
	h.transport.Join(handle, roomID)
}

// SendMessage persists a message and fans it out. Only persistence failures
// are reported to the sender; nothing is broadcast in that case.
func (h *Handler) SendMessage(ctx context.Context, handle string, p SendMessagePayload) {
	s := h.session(handle)
	if s == nil {
		return
	}
	userID := s.identity()
	if userID == "" {
		h.fail(handle, reasonUnauthenticated, "Not authenticated", p.ClientMessageID)
		return
	}
	if p.Sender == "" {
		p.Sender = userID
	}
	if p.Sender != userID {
		h.fail(handle, reasonForbidden, "Sender does not match authenticated user", p.ClientMessageID)
		return
	}
	if p.Recipient == "" {
		h.fail(handle, reasonValidation, "Recipient is required", p.ClientMessageID)
		return
	}
	if h.limiter != nil && !h.limiter.Allow(userID) {
		h.fail(handle, reasonRateLimited, apperrors.ErrRateLimit.Message, p.ClientMessageID)
		return
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	hasHistory, err := h.messages.HasHistory(ctx, p.Sender, p.Recipient)
	if err != nil {
		h.failWith(handle, err, p.ClientMessageID)
		return
	}

	msg, created, err := h.messages.Send(ctx, services.SendInput{
		SenderID:        p.Sender,
		RecipientID:     p.Recipient,
		Content:         p.Content,
		MessageType:     p.MessageType,
		BookingID:       p.Booking,
		ReplyToID:       p.ReplyTo,
		ClientMessageID: p.ClientMessageID,
	})
	if err != nil {
		h.failWith(handle, err, p.ClientMessageID)
		return
	}

	// a replayed send was already delivered, so only the ack is repeated
	if created {
		metrics.MessagesSent.WithLabelValues(metrics.TransportSocket).Inc()
		h.fanOut(msg, !hasHistory)
	}

	h.transport.Emit(handle, EventMessageSent, MessageSent{
		ID:              msg.ID,
		Content:         msg.Content,
		CreatedAt:       msg.CreatedAt,
		Sender:          msg.SenderID,
		Recipient:       msg.RecipientID,
		ClientMessageID: p.ClientMessageID,
	})

	if created && h.notifier != nil {
		h.dispatch(func() { h.notify(msg) })
	}
}

func (h *Handler) fanOut(msg *models.Message, isNewConversation bool) {
	h.transport.BroadcastToRoom(RoomID(msg.SenderID, msg.RecipientID), EventNewMessage, msg)

	sender := msg.Sender.Summary()
	if sender.ID == "" {
		sender.ID = msg.SenderID
	}
	personal := PersonalRoom(msg.RecipientID)

	if isNewConversation {
		h.transport.BroadcastToRoom(personal, EventNewConversation, NewConversation{
			Participant: sender,
			LastMessage: msg,
			UnreadCount: 1,
		})
	}
	h.transport.BroadcastToRoom(personal, EventMessageNotification, MessageNotification{
		MessageID: msg.ID,
		Sender:    sender,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt,
	})
}

// notify creates the durable notification. Failures are logged and never
// reach the sender.
func (h *Handler) notify(msg *models.Message) {
	defer func() {
		if r := recover(); r != nil {
			metrics.NotificationFailures.Inc()
			logger.Error().Str("panic", fmt.Sprintf("%v", r)).Str("message_id", msg.ID).Msg("Notification panic recovered")
		}
	}()
	if err := h.notifier.NotifyNewMessage(context.Background(), msg); err != nil {
		metrics.NotificationFailures.Inc()
		logger.Warn().Err(err).Str("message_id", msg.ID).Str("recipient_id", msg.RecipientID).Msg("Failed to create message notification")
	}
}

// MarkMessageRead marks a message read by the connection's user and tells
// the sender's connections.
func (h *Handler) MarkMessageRead(ctx context.Context, handle, messageID string) {
	userID := h.UserID(handle)
	if userID == "" {
		h.fail(handle, reasonUnauthenticated, "Not authenticated", "")
		return
	}
	if messageID == "" {
		h.fail(handle, reasonValidation, "Message id is required", "")
		return
	}

	msg, err := h.messages.MarkRead(ctx, messageID, userID)
	if err != nil {
		h.failWith(handle, err, "")
		return
	}
	h.transport.BroadcastToRoom(PersonalRoom(msg.SenderID), EventMessageRead, MessageRead{MessageID: msg.ID})
}

// Disconnect forgets the connection and updates presence.
func (h *Handler) Disconnect(ctx context.Context, handle string) {
	h.mu.Lock()
	delete(h.sessions, handle)
	n := len(h.sessions)
	h.mu.Unlock()
	metrics.SocketConnections.Set(float64(n))

	userID, removed, err := h.presence.Disconnect(ctx, handle)
	if err != nil {
		logger.Error().Err(err).Str("socket_id", handle).Msg("Failed to clear presence")
		return
	}
	if removed {
		logger.Info().Str("socket_id", handle).Str("user_id", userID).Msg("User went offline")
	}
}
