package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"referral-chat/internal/domain/conversation"
	"referral-chat/internal/redis"
	"referral-chat/internal/repository"
	referral_errors "referral-chat/pkg/errors"
	"referral-chat/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationService owns the conversation lifecycle: find-or-create,
// lookup, listing, archival, and the conversation-level unread signal.
//
// When db is nil the service runs its direct path against the injected
// repository, which is how unit tests substitute an in-memory store.
type ConversationService struct {
	db     *gorm.DB
	repo   repository.ConversationRepository
	cache  *redis.UnreadCache
	log    *logger.Logger
}

func NewConversationService(db *gorm.DB, repo repository.ConversationRepository, cache *redis.UnreadCache, log *logger.Logger) *ConversationService {
	return &ConversationService{db: db, repo: repo, cache: cache, log: log}
}

type CreateConversationInput struct {
	Title             string
	ReferralRequestID uuid.NullUUID
}

// CreateConversation finds the active conversation between the two users or
// creates one. Joining an existing thread is idempotent: the existing
// conversation is returned unchanged. Creation inserts the conversation row
// and both participant rows in one transaction.
func (s *ConversationService) CreateConversation(ctx context.Context, initiatorID, otherUserID uuid.UUID, in CreateConversationInput) (conversation.Conversation, error) {
	if initiatorID == uuid.Nil || otherUserID == uuid.Nil || initiatorID == otherUserID {
		return conversation.Conversation{}, fmt.Errorf("%w: conversation requires two distinct participants", referral_errors.ErrInvalidInput)
	}

	if s.db == nil {
		return s.createDirect(ctx, s.repo, initiatorID, otherUserID, in)
	}

	var result conversation.Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res, err := s.createDirect(ctx, repository.NewConversationRepository(tx), initiatorID, otherUserID, in)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return conversation.Conversation{}, err
	}
	return result, nil
}

func (s *ConversationService) createDirect(ctx context.Context, repo repository.ConversationRepository, initiatorID, otherUserID uuid.UUID, in CreateConversationInput) (conversation.Conversation, error) {
	existing, err := repo.FindActiveBetween(ctx, initiatorID, otherUserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, referral_errors.ErrNotFound) {
		return conversation.Conversation{}, err
	}

	now := time.Now()
	conv := conversation.Conversation{
		ID:                uuid.New(),
		Title:             nullString(in.Title),
		LastActivityAt:    now,
		IsActive:          true,
		ReferralRequestID: in.ReferralRequestID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := repo.Create(ctx, &conv); err != nil {
		return conversation.Conversation{}, err
	}

	for _, userID := range []uuid.UUID{initiatorID, otherUserID} {
		p := conversation.Participant{
			ConversationID: conv.ID,
			UserID:         userID,
			JoinedAt:       now,
		}
		if err := repo.AddParticipant(ctx, &p); err != nil {
			return conversation.Conversation{}, err
		}
		conv.Participants = append(conv.Participants, p)
	}

	return conv, nil
}

// GetByID loads an active conversation with participants, unread markers, and
// the last message. Archived or missing conversations surface as NotFound.
func (s *ConversationService) GetByID(ctx context.Context, conversationID uuid.UUID) (conversation.Conversation, error) {
	return s.repo.GetActiveByID(ctx, conversationID)
}

// GetUserConversations lists the user's active conversations ordered by last
// activity, newest first, with the conversation id as a deterministic
// tie-break.
func (s *ConversationService) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) (Page[conversation.Conversation], error) {
	page, limit = NormalizePaging(page, limit)
	items, total, err := s.repo.GetUserConversations(ctx, userID, page, limit)
	if err != nil {
		return Page[conversation.Conversation]{}, err
	}
	return NewPage(items, page, limit, total), nil
}

// Archive terminates a conversation. Only participants may archive, and the
// transition is one-way: an archived conversation drops out of the
// active-scoped lookups, so a repeat archive surfaces as NotFound.
func (s *ConversationService) Archive(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Conversation, error) {
	conv, err := s.repo.GetActiveByID(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !conv.HasParticipant(userID) {
		return conversation.Conversation{}, referral_errors.ErrForbidden
	}

	if err := s.repo.Archive(ctx, conversationID); err != nil {
		return conversation.Conversation{}, err
	}
	conv.IsActive = false

	for _, p := range conv.Participants {
		s.invalidateUnread(ctx, p.UserID)
	}
	return conv, nil
}

// UnreadCount counts active conversations with unseen activity for the user.
// This signal is independent of the per-message unread count.
func (s *ConversationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s.cache != nil {
		if count, found, err := s.cache.GetConversationCount(ctx, userID); err == nil && found {
			return count, nil
		}
	}

	count, err := s.repo.CountUnreadConversations(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetConversationCount(ctx, userID, count); err != nil && s.log != nil {
			s.log.Warnf("unread conversation cache set failed: %s", err)
		}
	}
	return count, nil
}

// MarkAsRead removes the user from the conversation's unread-by set. Marking
// an already-read conversation is a no-op.
func (s *ConversationService) MarkAsRead(ctx context.Context, conversationID, userID uuid.UUID) (conversation.Conversation, error) {
	conv, err := s.repo.GetActiveByID(ctx, conversationID)
	if err != nil {
		return conversation.Conversation{}, err
	}
	if !conv.HasParticipant(userID) {
		return conversation.Conversation{}, referral_errors.ErrForbidden
	}

	if err := s.repo.ClearUnread(ctx, conversationID, userID); err != nil {
		return conversation.Conversation{}, err
	}

	markers := conv.UnreadBy[:0]
	for _, m := range conv.UnreadBy {
		if m.UserID != userID {
			markers = append(markers, m)
		}
	}
	conv.UnreadBy = markers

	s.invalidateUnread(ctx, userID)
	return conv, nil
}

func (s *ConversationService) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil && s.log != nil {
		s.log.Warnf("unread cache invalidation failed for %s: %s", userID, err)
	}
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
