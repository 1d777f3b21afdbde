package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"referral-chat/internal/config"
	"referral-chat/internal/domain/message"
	referral_errors "referral-chat/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type messagingFixture struct {
	convSvc  *ConversationService
	msgSvc   *MessageService
	convRepo *fakeConversationRepo
	msgRepo  *fakeMessageRepo
}

func newMessagingFixture() *messagingFixture {
	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo()
	return &messagingFixture{
		convSvc:  NewConversationService(nil, convRepo, nil, nil),
		msgSvc:   NewMessageService(nil, msgRepo, convRepo, nil, nil, nil, config.ChatConfig{}),
		convRepo: convRepo,
		msgRepo:  msgRepo,
	}
}

func TestMessageService_SendMessage_UpdatesConversationState(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)
	prevActivity := conv.LastActivityAt

	msg, err := fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "hi"})
	req.NoError(err)
	req.Equal(conv.ID, msg.ConversationID)
	req.Equal(userA, msg.SenderID)
	req.Equal(userB, msg.RecipientID)
	req.False(msg.IsRead)
	req.True(msg.IsActive)

	// The conversation reflects the message it just gained
	reloaded, err := fix.convSvc.GetByID(ctx, conv.ID)
	req.NoError(err)
	req.True(reloaded.LastMessageID.Valid)
	req.Equal(msg.ID, reloaded.LastMessageID.UUID)
	req.False(reloaded.LastActivityAt.Before(prevActivity))

	// Only the recipient gains an unread marker
	req.True(reloaded.IsUnreadBy(userB))
	req.False(reloaded.IsUnreadBy(userA))
}

func TestMessageService_SendMessage_ValidatesContent(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	_, err = fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "   "})
	req.ErrorIs(err, referral_errors.ErrInvalidInput)

	_, err = fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: strings.Repeat("x", 4001)})
	req.ErrorIs(err, referral_errors.ErrInvalidInput)
}

func TestMessageService_SendMessage_GuardsConversationAccess(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	// Non-participants may not send
	_, err = fix.msgSvc.SendMessage(ctx, conv.ID, uuid.New(), SendMessageInput{Content: "hi"})
	req.ErrorIs(err, referral_errors.ErrForbidden)

	// Archived conversations are gone from the sender's point of view
	_, err = fix.convSvc.Archive(ctx, conv.ID, userA)
	req.NoError(err)
	_, err = fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "hi"})
	req.ErrorIs(err, referral_errors.ErrNotFound)

	// Unknown conversation
	_, err = fix.msgSvc.SendMessage(ctx, uuid.New(), userA, SendMessageInput{Content: "hi"})
	req.ErrorIs(err, referral_errors.ErrNotFound)
}

func TestMessageService_SendMessage_FailsWithoutCounterpart(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	// Simulate a participant row lost to corruption
	fix.convRepo.participants[conv.ID] = fix.convRepo.participants[conv.ID][:1]

	_, err = fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "hi"})
	req.ErrorIs(err, referral_errors.ErrInvalidInput)
	req.Contains(err.Error(), "cannot determine recipient")
}

func TestMessageService_SendMessage_CarriesAttachments(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	attachments := []message.Attachment{{
		FileName: "resume.pdf",
		FileType: "application/pdf",
		FileURL:  "https://cdn.example.com/attachments/resume.pdf",
		FileSize: 12345,
	}}
	msg, err := fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "see attached", Attachments: attachments})
	req.NoError(err)
	req.Len(msg.Attachments, 1)
	req.Equal("resume.pdf", msg.Attachments[0].FileName)
}

func TestMessageService_GetConversationMessages_NewestFirst(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	base := time.Now()
	var sent []uuid.UUID
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		fix.msgSvc.now = func() time.Time { return at }
		msg, err := fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "ping"})
		req.NoError(err)
		sent = append(sent, msg.ID)
	}

	page, err := fix.msgSvc.GetConversationMessages(ctx, conv.ID, userB, 1, 2)
	req.NoError(err)
	req.EqualValues(3, page.TotalResults)
	req.Equal(2, page.TotalPages)
	req.Len(page.Results, 2)
	req.Equal(sent[2], page.Results[0].ID)
	req.Equal(sent[1], page.Results[1].ID)

	// Fetching history does not clear the conversation-level marker by itself
	reloaded, err := fix.convSvc.GetByID(ctx, conv.ID)
	req.NoError(err)
	req.True(reloaded.IsUnreadBy(userB))
}

func TestMessageService_GetConversationMessages_RequiresParticipant(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()

	conv, err := fix.convSvc.CreateConversation(ctx, uuid.New(), uuid.New(), CreateConversationInput{})
	req.NoError(err)

	_, err = fix.msgSvc.GetConversationMessages(ctx, conv.ID, uuid.New(), 1, 10)
	req.ErrorIs(err, referral_errors.ErrForbidden)
}

func TestMessageService_MarkMessagesAsRead_OnlyFlipsCallerInbox(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	toB1, err := fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "one"})
	req.NoError(err)
	toB2, err := fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "two"})
	req.NoError(err)
	toA, err := fix.msgSvc.SendMessage(ctx, conv.ID, userB, SendMessageInput{Content: "three"})
	req.NoError(err)

	updated, err := fix.msgSvc.MarkMessagesAsRead(ctx, conv.ID, userB)
	req.NoError(err)
	req.EqualValues(2, updated)

	for _, id := range []uuid.UUID{toB1.ID, toB2.ID} {
		m, err := fix.msgRepo.GetActiveByID(ctx, id)
		req.NoError(err)
		req.True(m.IsRead)
		req.True(m.ReadAt.Valid)
	}

	// A's inbox stays unread
	m, err := fix.msgRepo.GetActiveByID(ctx, toA.ID)
	req.NoError(err)
	req.False(m.IsRead)

	// Second pass finds nothing left to flip
	updated, err = fix.msgSvc.MarkMessagesAsRead(ctx, conv.ID, userB)
	req.NoError(err)
	req.Zero(updated)

	// Outsiders are rejected
	_, err = fix.msgSvc.MarkMessagesAsRead(ctx, conv.ID, uuid.New())
	req.ErrorIs(err, referral_errors.ErrForbidden)
}

func TestMessageService_DeleteMessage_HonorsGraceWindow(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	sentAt := time.Now()
	fix.msgSvc.now = func() time.Time { return sentAt }
	msg, err := fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "oops"})
	req.NoError(err)

	// Only the sender may delete
	fix.msgSvc.now = func() time.Time { return sentAt.Add(time.Minute) }
	_, err = fix.msgSvc.DeleteMessage(ctx, msg.ID, userB)
	req.ErrorIs(err, referral_errors.ErrForbidden)

	// Past the window the delete is rejected and the message stays active
	fix.msgSvc.now = func() time.Time { return sentAt.Add(5*time.Minute + time.Second) }
	_, err = fix.msgSvc.DeleteMessage(ctx, msg.ID, userA)
	req.ErrorIs(err, referral_errors.ErrInvalidInput)
	req.Contains(err.Error(), "deletion window expired")
	still, err := fix.msgRepo.GetActiveByID(ctx, msg.ID)
	req.NoError(err)
	req.True(still.IsActive)

	// Inside the window the soft delete goes through
	fix.msgSvc.now = func() time.Time { return sentAt.Add(4*time.Minute + 59*time.Second) }
	deleted, err := fix.msgSvc.DeleteMessage(ctx, msg.ID, userA)
	req.NoError(err)
	req.False(deleted.IsActive)

	// The row is retained but gone from active lookups
	_, err = fix.msgSvc.DeleteMessage(ctx, msg.ID, userA)
	req.ErrorIs(err, referral_errors.ErrNotFound)
	req.NotNil(fix.msgRepo.messages[msg.ID])
}

func TestMessageService_UnreadCount_TracksActiveUnreadInbox(t *testing.T) {
	req := require.New(t)
	fix := newMessagingFixture()
	ctx := context.Background()
	userA := uuid.New()
	userB := uuid.New()

	conv, err := fix.convSvc.CreateConversation(ctx, userA, userB, CreateConversationInput{})
	req.NoError(err)

	first, err := fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "one"})
	req.NoError(err)
	_, err = fix.msgSvc.SendMessage(ctx, conv.ID, userA, SendMessageInput{Content: "two"})
	req.NoError(err)

	count, err := fix.msgSvc.UnreadCount(ctx, userB)
	req.NoError(err)
	req.EqualValues(2, count)

	// Deleting an unread message within the window removes it from the count
	_, err = fix.msgSvc.DeleteMessage(ctx, first.ID, userA)
	req.NoError(err)
	count, err = fix.msgSvc.UnreadCount(ctx, userB)
	req.NoError(err)
	req.EqualValues(1, count)

	// Message-level reads do not touch the conversation-level signal
	_, err = fix.msgSvc.MarkMessagesAsRead(ctx, conv.ID, userB)
	req.NoError(err)
	count, err = fix.msgSvc.UnreadCount(ctx, userB)
	req.NoError(err)
	req.Zero(count)

	convCount, err := fix.convSvc.UnreadCount(ctx, userB)
	req.NoError(err)
	req.EqualValues(1, convCount)

	// Only an explicit conversation mark-as-read clears it
	_, err = fix.convSvc.MarkAsRead(ctx, conv.ID, userB)
	req.NoError(err)
	convCount, err = fix.convSvc.UnreadCount(ctx, userB)
	req.NoError(err)
	req.Zero(convCount)

	// The sender never had unread messages
	count, err = fix.msgSvc.UnreadCount(ctx, userA)
	req.NoError(err)
	req.Zero(count)
}
