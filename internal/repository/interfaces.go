package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"referral-chat/internal/domain/conversation"
	"referral-chat/internal/domain/message"
)

// ConversationRepository is the store contract for conversation state. All
// lookups are scoped to active conversations; archived threads are invisible
// to every reader and are never reused.
type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	AddParticipant(ctx context.Context, p *conversation.Participant) error

	GetActiveByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	FindActiveBetween(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error)

	Archive(ctx context.Context, id uuid.UUID) error
	SetLastMessage(ctx context.Context, id, messageID uuid.UUID, at time.Time) error

	MarkUnread(ctx context.Context, id, userID uuid.UUID) error
	ClearUnread(ctx context.Context, id, userID uuid.UUID) error
	CountUnreadConversations(ctx context.Context, userID uuid.UUID) (int64, error)

	IsParticipant(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// MessageRepository is the store contract for message state.
type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetActiveByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	GetConversationMessages(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]message.Message, int64, error)

	BulkMarkAsRead(ctx context.Context, conversationID, recipientID uuid.UUID, readAt time.Time) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountUnreadMessages(ctx context.Context, recipientID uuid.UUID) (int64, error)
}
