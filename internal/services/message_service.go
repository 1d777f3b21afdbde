package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"referral-chat/internal/config"
	"referral-chat/internal/domain/message"
	"referral-chat/internal/proxy"
	"referral-chat/internal/redis"
	"referral-chat/internal/repository"
	referral_errors "referral-chat/pkg/errors"
	"referral-chat/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MessageService owns the message lifecycle: transactional send, history,
// bulk read receipts, the time-boxed soft delete, and the message-level
// unread signal.
type MessageService struct {
	db       *gorm.DB
	msgRepo  repository.MessageRepository
	convRepo repository.ConversationRepository
	access   *proxy.AccessControl
	cache    *redis.UnreadCache
	log      *logger.Logger

	deleteWindow     time.Duration
	maxContentLength int

	// now is swappable so the deletion window can be tested at its edges.
	now func() time.Time
}

func NewMessageService(db *gorm.DB, msgRepo repository.MessageRepository, convRepo repository.ConversationRepository, access *proxy.AccessControl, cache *redis.UnreadCache, log *logger.Logger, cfg config.ChatConfig) *MessageService {
	if access == nil {
		access = proxy.NewAccessControl(convRepo)
	}
	window := cfg.DeleteWindow
	if window <= 0 {
		window = 5 * time.Minute
	}
	maxLen := cfg.MaxContentLength
	if maxLen <= 0 {
		maxLen = 4000
	}
	return &MessageService{
		db:               db,
		msgRepo:          msgRepo,
		convRepo:         convRepo,
		access:           access,
		cache:            cache,
		log:              log,
		deleteWindow:     window,
		maxContentLength: maxLen,
		now:              time.Now,
	}
}

type SendMessageInput struct {
	Content     string
	Attachments []message.Attachment
}

// SendMessage creates a message in an active conversation. The message row,
// the conversation's last-message/last-activity pointers, and the recipient's
// unread marker commit in one transaction: a message is never durable without
// the conversation reflecting it.
func (s *MessageService) SendMessage(ctx context.Context, conversationID, senderID uuid.UUID, in SendMessageInput) (message.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return message.Message{}, fmt.Errorf("%w: message content is required", referral_errors.ErrInvalidInput)
	}
	if utf8.RuneCountInString(content) > s.maxContentLength {
		return message.Message{}, fmt.Errorf("%w: message content exceeds %d characters", referral_errors.ErrInvalidInput, s.maxContentLength)
	}

	if s.db == nil {
		msg, err := s.sendDirect(ctx, s.msgRepo, s.convRepo, conversationID, senderID, content, in.Attachments)
		if err != nil {
			return message.Message{}, err
		}
		s.invalidateUnread(ctx, msg.RecipientID)
		return msg, nil
	}

	var msg message.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.sendDirect(ctx,
			repository.NewMessageRepository(tx),
			repository.NewConversationRepository(tx),
			conversationID, senderID, content, in.Attachments)
		if err != nil {
			return err
		}
		msg = res
		return nil
	})
	if err != nil {
		return message.Message{}, err
	}

	s.invalidateUnread(ctx, msg.RecipientID)
	return msg, nil
}

func (s *MessageService) sendDirect(ctx context.Context, msgRepo repository.MessageRepository, convRepo repository.ConversationRepository, conversationID, senderID uuid.UUID, content string, attachments []message.Attachment) (message.Message, error) {
	conv, err := convRepo.GetActiveByID(ctx, conversationID)
	if err != nil {
		return message.Message{}, err
	}
	if !conv.HasParticipant(senderID) {
		return message.Message{}, referral_errors.ErrForbidden
	}

	recipientID, ok := conv.Counterpart(senderID)
	if !ok {
		// Conversations hold exactly two participants; failing here means
		// the stored participant rows violate that invariant.
		return message.Message{}, fmt.Errorf("%w: cannot determine recipient", referral_errors.ErrInvalidInput)
	}

	msg := message.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		Attachments:    attachments,
		IsActive:       true,
		CreatedAt:      s.now(),
	}
	if err := msgRepo.Create(ctx, &msg); err != nil {
		return message.Message{}, err
	}

	if err := convRepo.SetLastMessage(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		return message.Message{}, err
	}
	if err := convRepo.MarkUnread(ctx, conv.ID, recipientID); err != nil {
		return message.Message{}, err
	}

	return msg, nil
}

// GetConversationMessages returns the active messages of a conversation,
// newest first. Callers are expected to follow up with a conversation-level
// mark-as-read; fetching history does not clear the unread-by set by itself.
func (s *MessageService) GetConversationMessages(ctx context.Context, conversationID, userID uuid.UUID, page, limit int) (Page[message.Message], error) {
	if err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return Page[message.Message]{}, err
	}
	if _, err := s.convRepo.GetActiveByID(ctx, conversationID); err != nil {
		return Page[message.Message]{}, err
	}

	page, limit = NormalizePaging(page, limit)
	items, total, err := s.msgRepo.GetConversationMessages(ctx, conversationID, page, limit)
	if err != nil {
		return Page[message.Message]{}, err
	}
	return NewPage(items, page, limit, total), nil
}

// MarkMessagesAsRead flips every active unread message addressed to userID in
// the conversation and returns how many were updated. Messages addressed to
// the other participant are untouched.
func (s *MessageService) MarkMessagesAsRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	if err := s.access.EnsureParticipant(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	updated, err := s.msgRepo.BulkMarkAsRead(ctx, conversationID, userID, s.now())
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.invalidateUnread(ctx, userID)
	}
	return updated, nil
}

// DeleteMessage soft-deletes a message. Only the sender may delete, and only
// within the grace window after sending; the row is retained for audit.
func (s *MessageService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) (message.Message, error) {
	msg, err := s.msgRepo.GetActiveByID(ctx, messageID)
	if err != nil {
		return message.Message{}, err
	}
	if msg.SenderID != userID {
		return message.Message{}, referral_errors.ErrForbidden
	}
	if s.now().Sub(msg.CreatedAt) > s.deleteWindow {
		return message.Message{}, fmt.Errorf("%w: deletion window expired", referral_errors.ErrInvalidInput)
	}

	if err := s.msgRepo.SoftDelete(ctx, messageID); err != nil {
		return message.Message{}, err
	}
	msg.IsActive = false

	if !msg.IsRead {
		s.invalidateUnread(ctx, msg.RecipientID)
	}
	return msg, nil
}

// UnreadCount counts active unread messages addressed to userID. Maintained
// independently of the conversation-level unread set; the two are never
// reconciled.
func (s *MessageService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.cache != nil {
		if count, found, err := s.cache.GetMessageCount(ctx, userID); err == nil && found {
			return count, nil
		}
	}

	count, err := s.msgRepo.CountUnreadMessages(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetMessageCount(ctx, userID, count); err != nil && s.log != nil {
			s.log.Warnf("unread message cache set failed: %s", err)
		}
	}
	return count, nil
}

func (s *MessageService) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil && s.log != nil {
		s.log.Warnf("unread cache invalidation failed for %s: %s", userID, err)
	}
}
