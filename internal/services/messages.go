package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	apperrors "github.com/mdhaarishussain/Yuvshiksha/pkg/errors"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/utils"
	"gorm.io/gorm"
)

// Pagination and search limits for message queries.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
	SearchLimit     = 50
)

// MessageService owns direct messages between two users.
type MessageService struct {
	db *gorm.DB
}

func NewMessageService(db *gorm.DB) *MessageService {
	return &MessageService{db: db}
}

// SendInput is a new message as submitted over HTTP or the socket.
type SendInput struct {
	SenderID        string
	RecipientID     string
	Content         string
	MessageType     models.MessageType
	BookingID       string
	ReplyToID       string
	ClientMessageID string
}

// Conversation is one counterparty of a user with the latest message between
// them and the number of unread messages the user has received from them.
type Conversation struct {
	Participant models.Summary  `json:"participant"`
	LastMessage *models.Message `json:"lastMessage"`
	UnreadCount int64           `json:"unreadCount"`
}

func storageError(msg string, err error) error {
	return apperrors.Transient(msg, err)
}

// pairScope restricts a query to messages exchanged between a and b in either direction.
func pairScope(a, b string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))", a, b, b, a)
	}
}

func withParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Sender").Preload("Recipient")
}

// Send validates and persists a message and returns it with sender,
// recipient and reply target loaded. A repeated (sender, clientMessageId)
// returns the message stored by the first attempt with created false.
func (s *MessageService) Send(ctx context.Context, in SendInput) (msg *models.Message, created bool, err error) {
	if in.SenderID == "" {
		return nil, false, apperrors.Validation("Sender is required")
	}
	if in.RecipientID == "" {
		return nil, false, apperrors.Validation("Recipient is required")
	}
	content, err := SanitizeMessageContent(in.Content)
	if err != nil {
		return nil, false, err
	}
	msgType, err := NormalizeMessageType(in.MessageType)
	if err != nil {
		return nil, false, err
	}

	db := s.db.WithContext(ctx)

	if in.ClientMessageID != "" {
		existing, err := s.findByClientID(ctx, in.SenderID, in.ClientMessageID)
		if err != nil || existing != nil {
			return existing, false, err
		}
	}

	var recipient models.User
	if err := db.Select("id").First(&recipient, "id = ?", in.RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.NotFound("Recipient not found")
		}
		return nil, false, storageError("Failed to send message", err)
	}

	row := models.Message{
		SenderID:    in.SenderID,
		RecipientID: in.RecipientID,
		Content:     content,
		MessageType: msgType,
	}
	if in.BookingID != "" {
		row.BookingID = &in.BookingID
	}
	if in.ClientMessageID != "" {
		row.ClientMessageID = &in.ClientMessageID
	}
	if in.ReplyToID != "" {
		var target models.Message
		err := db.Select("id").Scopes(pairScope(in.SenderID, in.RecipientID)).First(&target, "id = ?", in.ReplyToID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.NotFound("Reply target not found")
		}
		if err != nil {
			return nil, false, storageError("Failed to send message", err)
		}
		row.ReplyToID = &target.ID
	}

	if err := db.Create(&row).Error; err != nil {
		// a concurrent attempt with the same client id won the unique index
		if in.ClientMessageID != "" {
			if existing, findErr := s.findByClientID(ctx, in.SenderID, in.ClientMessageID); findErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, storageError("Failed to send message", err)
	}
	msg, err = s.load(ctx, row.ID)
	return msg, err == nil, err
}

// findByClientID returns the message sender already stored under clientID,
// deleted or not, or nil when there is none.
func (s *MessageService) findByClientID(ctx context.Context, senderID, clientID string) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).Unscoped().
		Scopes(withParticipants).
		Where("sender_id = ? AND client_message_id = ?", senderID, clientID).
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("Failed to send message", err)
	}
	return &msg, nil
}

func (s *MessageService) load(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Scopes(withParticipants).
		Preload("ReplyTo").
		First(&msg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Message not found")
	}
	if err != nil {
		return nil, storageError("Failed to load message", err)
	}
	return &msg, nil
}

type conversationRow struct {
	ID          string
	PartnerID   string
	UnreadCount int64
}

// conversationSQL picks the newest message per counterparty and sums that
// counterparty's unread inbound messages in a single pass.
const conversationSQL = `
SELECT id, partner_id, unread_count FROM (
	SELECT id, partner_id,
		ROW_NUMBER() OVER (PARTITION BY partner_id ORDER BY created_at DESC, id DESC) AS rn,
		SUM(CASE WHEN recipient_id = ? AND is_read = ? THEN 1 ELSE 0 END) OVER (PARTITION BY partner_id) AS unread_count
	FROM (
		SELECT id, sender_id, recipient_id, is_read, created_at,
			CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END AS partner_id
		FROM messages
		WHERE (sender_id = ? OR recipient_id = ?) AND deleted_at IS NULL
	) mine
) ranked
WHERE rn = 1`

// ListConversations returns one entry per counterparty of userID, most
// recently active first.
func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	db := s.db.WithContext(ctx)

	var rows []conversationRow
	if err := db.Raw(conversationSQL, userID, false, userID, userID, userID).Scan(&rows).Error; err != nil {
		return nil, storageError("Failed to load conversations", err)
	}
	if len(rows) == 0 {
		return []Conversation{}, nil
	}

	ids := make([]string, 0, len(rows))
	partnerIDs := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
		partnerIDs = append(partnerIDs, r.PartnerID)
	}

	var lastMessages []models.Message
	if err := db.Scopes(withParticipants).Where("id IN ?", ids).Find(&lastMessages).Error; err != nil {
		return nil, storageError("Failed to load conversations", err)
	}
	byID := make(map[string]*models.Message, len(lastMessages))
	for i := range lastMessages {
		byID[lastMessages[i].ID] = &lastMessages[i]
	}

	var partners []models.User
	if err := db.Where("id IN ?", partnerIDs).Find(&partners).Error; err != nil {
		return nil, storageError("Failed to load conversations", err)
	}
	users := make(map[string]models.User, len(partners))
	for _, u := range partners {
		users[u.ID] = u
	}

	conversations := make([]Conversation, 0, len(rows))
	for _, r := range rows {
		last, ok := byID[r.ID]
		if !ok {
			// deleted between the aggregate and the hydration query
			continue
		}
		participant := models.Summary{ID: r.PartnerID}
		if u, ok := users[r.PartnerID]; ok {
			participant = u.Summary()
		}
		conversations = append(conversations, Conversation{
			Participant: participant,
			LastMessage: last,
			UnreadCount: r.UnreadCount,
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i].LastMessage, conversations[j].LastMessage
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return conversations, nil
}

// NormalizePage applies the default page and size and caps the size.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// ListMessages returns one page of the conversation between viewerID and
// otherID, oldest first. Pages count back from the newest message. Messages
// otherID sent to viewerID are marked read; the viewer's own are untouched.
func (s *MessageService) ListMessages(ctx context.Context, viewerID, otherID string, page, limit int) ([]models.Message, error) {
	page, limit = NormalizePage(page, limit)
	db := s.db.WithContext(ctx)

	var messages []models.Message
	err := db.Scopes(pairScope(viewerID, otherID), withParticipants).
		Preload("ReplyTo").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&messages).Error
	if err != nil {
		return nil, storageError("Failed to load messages", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	now := time.Now()
	err = db.Model(&models.Message{}).
		Where("sender_id = ? AND recipient_id = ? AND is_read = ?", otherID, viewerID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error
	if err != nil {
		return nil, storageError("Failed to mark messages as read", err)
	}
	for i := range messages {
		m := &messages[i]
		if m.SenderID == otherID && m.RecipientID == viewerID && !m.IsRead {
			m.IsRead = true
			m.ReadAt = &now
		}
	}

	return messages, nil
}

// UnreadCount counts unread messages addressed to userID.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, storageError("Failed to count unread messages", err)
	}
	return count, nil
}

// MarkRead marks a message read by its recipient. Marking an already read
// message returns it unchanged. Anyone else gets NotFound.
func (s *MessageService) MarkRead(ctx context.Context, messageID, readerID string) (*models.Message, error) {
	db := s.db.WithContext(ctx)

	var msg models.Message
	err := db.Where("id = ? AND recipient_id = ?", messageID, readerID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Message not found")
	}
	if err != nil {
		return nil, storageError("Failed to mark message as read", err)
	}
	if msg.IsRead {
		return &msg, nil
	}

	now := time.Now()
	if err := db.Model(&msg).Updates(map[string]interface{}{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, storageError("Failed to mark message as read", err)
	}
	msg.IsRead = true
	msg.ReadAt = &now
	return &msg, nil
}

// SoftDelete hides a message from every query. Only the sender may delete;
// the recipient gets Forbidden and anyone else NotFound.
func (s *MessageService) SoftDelete(ctx context.Context, messageID, requesterID string) error {
	db := s.db.WithContext(ctx)

	var msg models.Message
	err := db.First(&msg, "id = ?", messageID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("Message not found")
	}
	if err != nil {
		return storageError("Failed to delete message", err)
	}

	switch requesterID {
	case msg.SenderID:
	case msg.RecipientID:
		return apperrors.Forbidden("Not authorized to delete this message")
	default:
		return apperrors.NotFound("Message not found")
	}

	if err := db.Delete(&msg).Error; err != nil {
		return storageError("Failed to delete message", err)
	}
	return nil
}

// Search finds messages involving userID whose content contains query,
// case-insensitively, newest first. counterpartyID narrows it to one pair.
func (s *MessageService) Search(ctx context.Context, userID, query, counterpartyID string) ([]models.Message, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.Validation("Search query is required")
	}
	pattern := utils.SanitizeSearchQuery(query)

	q := s.db.WithContext(ctx).Scopes(withParticipants)
	if counterpartyID != "" {
		q = q.Scopes(pairScope(userID, counterpartyID))
	} else {
		q = q.Where("(sender_id = ? OR recipient_id = ?)", userID, userID)
	}

	var messages []models.Message
	err := q.Where(`LOWER(content) LIKE ? ESCAPE '\'`, pattern).
		Order("created_at DESC").
		Limit(SearchLimit).
		Find(&messages).Error
	if err != nil {
		return nil, storageError("Failed to search messages", err)
	}
	return messages, nil
}

// HasHistory reports whether a and b have ever exchanged a message,
// including ones since deleted.
func (s *MessageService) HasHistory(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Unscoped().Model(&models.Message{}).
		Scopes(pairScope(a, b)).
		Count(&count).Error
	if err != nil {
		return false, storageError("Failed to check conversation history", err)
	}
	return count > 0, nil
}

// newerInPair matches rows that have a later message in the same pair, so the
// newest row of every pair survives purging and HasHistory stays true.
const newerInPair = `EXISTS (
	SELECT 1 FROM messages newer
	WHERE ((newer.sender_id = messages.sender_id AND newer.recipient_id = messages.recipient_id)
		OR (newer.sender_id = messages.recipient_id AND newer.recipient_id = messages.sender_id))
	AND (newer.created_at > messages.created_at
		OR (newer.created_at = messages.created_at AND newer.id > messages.id)))`

// PurgeDeleted permanently removes messages soft-deleted before cutoff,
// except the newest message of each pair.
func (s *MessageService) PurgeDeleted(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Where(newerInPair).
		Delete(&models.Message{})
	if res.Error != nil {
		return 0, storageError("Failed to purge deleted messages", res.Error)
	}
	return res.RowsAffected, nil
}
