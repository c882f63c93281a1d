package realtime

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/mdhaarishussain/Yuvshiksha/internal/database"
	"github.com/mdhaarishussain/Yuvshiksha/internal/models"
	"github.com/mdhaarishussain/Yuvshiksha/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, first string) models.User {
	t.Helper()
	u := models.User{
		ID:        uuid.NewString(),
		FirstName: first,
		LastName:  "Test",
		Email:     first + "-" + uuid.NewString()[:8] + "@example.com",
		Role:      models.RoleStudent,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}

type countingNotifier struct {
	calls int
	err   error
	panic bool
}

func (n *countingNotifier) NotifyNewMessage(_ context.Context, _ *models.Message) error {
	n.calls++
	if n.panic {
		panic("notification store exploded")
	}
	return n.err
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

type harness struct {
	db        *gorm.DB
	transport *fakeTransport
	handler   *Handler
	notifier  *countingNotifier
	alice     models.User
	bob       models.User
}

// newHarness connects alice on "ha" and bob on "hb", both authenticated.
func newHarness(t *testing.T, opts ...HandlerOption) *harness {
	t.Helper()
	db := setupTestDB(t)
	transport := newFakeTransport()
	notifier := &countingNotifier{}

	opts = append([]HandlerOption{
		WithNotifier(notifier),
		WithDispatcher(func(f func()) { f() }),
	}, opts...)
	h := NewHandler(services.NewMessageService(db), NewPresence(NewMemoryPresence(), transport), transport, opts...)

	hs := &harness{
		db:        db,
		transport: transport,
		handler:   h,
		notifier:  notifier,
		alice:     createUser(t, db, "Alice"),
		bob:       createUser(t, db, "Bob"),
	}

	ctx := context.Background()
	for handle, user := range map[string]models.User{"ha": hs.alice, "hb": hs.bob} {
		transport.connect(handle)
		h.Connect(handle, "")
		h.Authenticate(ctx, handle, user.ID)
	}
	transport.reset()
	return hs
}

func (hs *harness) send(content string) {
	hs.handler.SendMessage(context.Background(), "ha", SendMessagePayload{
		Recipient: hs.bob.ID,
		Content:   content,
	})
}

func errorsFor(tr *fakeTransport, handle string) []string {
	var out []string
	for _, p := range tr.received(handle, EventMessageError) {
		out = append(out, p.(MessageError).Error)
	}
	return out
}

func TestSendMessage_RequiresAuthentication(t *testing.T) {
	hs := newHarness(t)
	hs.transport.connect("anon")
	hs.handler.Connect("anon", "")

	hs.handler.SendMessage(context.Background(), "anon", SendMessagePayload{Sender: hs.alice.ID, Recipient: hs.bob.ID, Content: "hi", ClientMessageID: "c1"})

	errs := hs.transport.received("anon", EventMessageError)
	require.Len(t, errs, 1)
	assert.Equal(t, MessageError{Error: "Not authenticated", ClientMessageID: "c1"}, errs[0])
	assert.Empty(t, hs.transport.received("hb", EventMessageNotification))

	var count int64
	hs.db.Model(&models.Message{}).Count(&count)
	assert.Zero(t, count)
}

func TestSendMessage_DeliversAndAcknowledges(t *testing.T) {
	hs := newHarness(t)
	room := RoomID(hs.alice.ID, hs.bob.ID)
	hs.handler.JoinRoom(context.Background(), "ha", room)
	hs.handler.JoinRoom(context.Background(), "hb", room)

	hs.send("Hello Bob")

	for _, handle := range []string{"ha", "hb"} {
		msgs := hs.transport.received(handle, EventNewMessage)
		require.Len(t, msgs, 1, handle)
		assert.Equal(t, "Hello Bob", msgs[0].(*models.Message).Content)
	}

	notes := hs.transport.received("hb", EventMessageNotification)
	require.Len(t, notes, 1)
	note := notes[0].(MessageNotification)
	assert.Equal(t, hs.alice.ID, note.Sender.ID)
	assert.Equal(t, "Alice", note.Sender.FirstName)
	assert.Equal(t, "Hello Bob", note.Content)
	assert.Empty(t, hs.transport.received("ha", EventMessageNotification))

	acks := hs.transport.received("ha", EventMessageSent)
	require.Len(t, acks, 1)
	ack := acks[0].(MessageSent)
	assert.Equal(t, note.MessageID, ack.ID)
	assert.Equal(t, hs.alice.ID, ack.Sender)
	assert.Equal(t, hs.bob.ID, ack.Recipient)
	assert.False(t, ack.CreatedAt.IsZero())
	assert.Empty(t, hs.transport.received("hb", EventMessageSent))

	assert.Equal(t, 1, hs.notifier.calls)
}

func TestSendMessage_NewConversationOnlyOnce(t *testing.T) {
	hs := newHarness(t)

	hs.send("first")
	convs := hs.transport.received("hb", EventNewConversation)
	require.Len(t, convs, 1)
	conv := convs[0].(NewConversation)
	assert.Equal(t, hs.alice.ID, conv.Participant.ID)
	assert.Equal(t, 1, conv.UnreadCount)
	assert.Equal(t, "first", conv.LastMessage.Content)
	assert.Empty(t, hs.transport.received("ha", EventNewConversation))

	hs.send("second")
	hs.handler.SendMessage(context.Background(), "hb", SendMessagePayload{Recipient: hs.alice.ID, Content: "reply"})

	assert.Len(t, hs.transport.received("hb", EventNewConversation), 1)
	assert.Empty(t, hs.transport.received("ha", EventNewConversation))
}

func TestSendMessage_DeletedHistoryStillCounts(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	svc := services.NewMessageService(hs.db)

	hs.send("first")
	acks := hs.transport.received("ha", EventMessageSent)
	require.Len(t, acks, 1)
	require.NoError(t, svc.SoftDelete(ctx, acks[0].(MessageSent).ID, hs.alice.ID))

	hs.send("again")
	assert.Len(t, hs.transport.received("hb", EventNewConversation), 1)
}

func TestSendMessage_SenderMustBeAuthenticatedUser(t *testing.T) {
	hs := newHarness(t)

	hs.handler.SendMessage(context.Background(), "ha", SendMessagePayload{Sender: hs.bob.ID, Recipient: hs.alice.ID, Content: "spoof"})

	assert.Equal(t, []string{"Sender does not match authenticated user"}, errorsFor(hs.transport, "ha"))
	assert.Empty(t, hs.transport.received("hb", EventMessageNotification))
}

func TestSendMessage_PersistenceFailureOnlyReachesSender(t *testing.T) {
	hs := newHarness(t)

	hs.handler.SendMessage(context.Background(), "ha", SendMessagePayload{
		Recipient:       uuid.NewString(),
		Content:         "to nobody",
		ClientMessageID: "tmp-9",
	})

	errs := hs.transport.received("ha", EventMessageError)
	require.Len(t, errs, 1)
	assert.Equal(t, MessageError{Error: "Recipient not found", ClientMessageID: "tmp-9"}, errs[0])
	assert.Empty(t, hs.transport.received("ha", EventMessageSent))
	assert.Empty(t, hs.transport.received("hb", EventMessageError))
	assert.Empty(t, hs.transport.received("hb", EventNewMessage))
	assert.Zero(t, hs.notifier.calls)
}

func TestSendMessage_EmptyContentRejected(t *testing.T) {
	hs := newHarness(t)
	hs.send("   ")

	assert.Equal(t, []string{"Message content is required"}, errorsFor(hs.transport, "ha"))
	assert.Empty(t, hs.transport.received("hb", EventMessageNotification))
}

func TestSendMessage_NotificationFailureIsSwallowed(t *testing.T) {
	hs := newHarness(t)
	hs.notifier.err = errors.New("notifications table missing")

	hs.send("still delivered")

	assert.Len(t, hs.transport.received("ha", EventMessageSent), 1)
	assert.Empty(t, hs.transport.received("ha", EventMessageError))
	assert.Equal(t, 1, hs.notifier.calls)
}

func TestSendMessage_NotificationPanicIsContained(t *testing.T) {
	hs := newHarness(t)
	hs.notifier.panic = true

	assert.NotPanics(t, func() { hs.send("still delivered") })
	assert.Len(t, hs.transport.received("ha", EventMessageSent), 1)
}

func TestSendMessage_ReplayOnlyAcknowledges(t *testing.T) {
	hs := newHarness(t)
	payload := SendMessagePayload{Recipient: hs.bob.ID, Content: "queued", ClientMessageID: "tmp-1"}

	hs.handler.SendMessage(context.Background(), "ha", payload)
	hs.handler.SendMessage(context.Background(), "ha", payload)

	acks := hs.transport.received("ha", EventMessageSent)
	require.Len(t, acks, 2)
	assert.Equal(t, acks[0].(MessageSent).ID, acks[1].(MessageSent).ID)
	assert.Equal(t, "tmp-1", acks[1].(MessageSent).ClientMessageID)
	assert.Len(t, hs.transport.received("hb", EventMessageNotification), 1)
	assert.Equal(t, 1, hs.notifier.calls)
}

func TestSendMessage_RateLimited(t *testing.T) {
	hs := newHarness(t, WithLimiter(denyLimiter{}))
	hs.send("too fast")

	assert.Equal(t, []string{"Rate limit exceeded"}, errorsFor(hs.transport, "ha"))
}

func TestSendMessage_PreservesConnectionOrder(t *testing.T) {
	hs := newHarness(t)
	for i := 0; i < 5; i++ {
		hs.send(fmt.Sprintf("m%d", i))
	}

	acks := hs.transport.received("ha", EventMessageSent)
	require.Len(t, acks, 5)
	for i, a := range acks {
		assert.Equal(t, fmt.Sprintf("m%d", i), a.(MessageSent).Content)
	}

	messages, err := services.NewMessageService(hs.db).ListMessages(context.Background(), hs.bob.ID, hs.alice.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, messages, 5)
	for i, m := range messages {
		assert.Equal(t, acks[i].(MessageSent).ID, m.ID)
	}
}

func TestAuthenticate_MustMatchHandshakeToken(t *testing.T) {
	hs := newHarness(t)
	hs.transport.connect("hc")
	hs.handler.Connect("hc", hs.alice.ID)

	hs.handler.Authenticate(context.Background(), "hc", hs.bob.ID)
	assert.Equal(t, []string{"Authentication does not match token"}, errorsFor(hs.transport, "hc"))
	assert.Empty(t, hs.handler.UserID("hc"))

	hs.handler.Authenticate(context.Background(), "hc", hs.alice.ID)
	assert.Equal(t, hs.alice.ID, hs.handler.UserID("hc"))
}

func TestAuthenticate_AnnouncesToOthers(t *testing.T) {
	hs := newHarness(t)
	carol := createUser(t, hs.db, "Carol")
	hs.transport.connect("hc")
	hs.handler.Connect("hc", "")

	hs.handler.Authenticate(context.Background(), "hc", carol.ID)

	assert.Empty(t, hs.transport.received("hc", EventUserOnline))
	assert.Equal(t, []interface{}{carol.ID}, hs.transport.received("ha", EventUserOnline))
	assert.Equal(t, []interface{}{carol.ID}, hs.transport.received("hb", EventUserOnline))
	online := hs.transport.received("hc", EventOnlineUsers)
	require.Len(t, online, 1)
	assert.Len(t, online[0], 3)
}

func TestJoinRoom(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()
	carol := createUser(t, hs.db, "Carol")

	hs.handler.JoinRoom(ctx, "ha", RoomID(hs.bob.ID, carol.ID))
	assert.Equal(t, []string{"Cannot join room"}, errorsFor(hs.transport, "ha"))
	assert.False(t, hs.transport.inRoom("ha", RoomID(hs.bob.ID, carol.ID)))

	hs.handler.JoinRoom(ctx, "ha", RoomID(hs.alice.ID, carol.ID))
	assert.True(t, hs.transport.inRoom("ha", RoomID(hs.alice.ID, carol.ID)))

	hs.transport.connect("anon")
	hs.handler.Connect("anon", "")
	hs.handler.JoinRoom(ctx, "anon", RoomID(hs.alice.ID, carol.ID))
	assert.Equal(t, []string{"Not authenticated"}, errorsFor(hs.transport, "anon"))
}

func TestMarkMessageRead(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	hs.send("read me")
	id := hs.transport.received("ha", EventMessageSent)[0].(MessageSent).ID

	hs.handler.MarkMessageRead(ctx, "ha", id)
	assert.Equal(t, []string{"Message not found"}, errorsFor(hs.transport, "ha"))

	hs.handler.MarkMessageRead(ctx, "hb", id)
	hs.handler.MarkMessageRead(ctx, "hb", id)
	assert.Equal(t, []interface{}{MessageRead{MessageID: id}, MessageRead{MessageID: id}}, hs.transport.received("ha", EventMessageRead))
	assert.Empty(t, hs.transport.received("hb", EventMessageRead))
	assert.Empty(t, errorsFor(hs.transport, "hb"))

	unread, err := services.NewMessageService(hs.db).UnreadCount(ctx, hs.bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestDisconnect_AnnouncesOffline(t *testing.T) {
	hs := newHarness(t)
	ctx := context.Background()

	hs.transport.drop("ha")
	hs.handler.Disconnect(ctx, "ha")

	assert.Equal(t, []interface{}{hs.alice.ID}, hs.transport.received("hb", EventUserOffline))
	assert.Empty(t, hs.handler.UserID("ha"))

	hs.handler.Disconnect(ctx, "ha")
	assert.Len(t, hs.transport.received("hb", EventUserOffline), 1)
}
