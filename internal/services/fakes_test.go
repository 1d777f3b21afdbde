package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"referral-chat/internal/domain/conversation"
	"referral-chat/internal/domain/message"
	referral_errors "referral-chat/pkg/errors"

	"github.com/google/uuid"
)

// In-memory repository fakes. Services constructed without a *gorm.DB run
// their direct path, so these stand in for Postgres in unit tests.

type fakeConversationRepo struct {
	conversations map[uuid.UUID]*conversation.Conversation
	participants  map[uuid.UUID][]conversation.Participant
	unread        map[uuid.UUID]map[uuid.UUID]time.Time
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[uuid.UUID]*conversation.Conversation),
		participants:  make(map[uuid.UUID][]conversation.Participant),
		unread:        make(map[uuid.UUID]map[uuid.UUID]time.Time),
	}
}

func (r *fakeConversationRepo) Create(ctx context.Context, c *conversation.Conversation) error {
	stored := *c
	stored.Participants = nil
	stored.UnreadBy = nil
	r.conversations[c.ID] = &stored
	return nil
}

func (r *fakeConversationRepo) AddParticipant(ctx context.Context, p *conversation.Participant) error {
	for _, existing := range r.participants[p.ConversationID] {
		if existing.UserID == p.UserID {
			return referral_errors.ErrInvalidInput
		}
	}
	r.participants[p.ConversationID] = append(r.participants[p.ConversationID], *p)
	return nil
}

func (r *fakeConversationRepo) GetActiveByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	c, ok := r.conversations[id]
	if !ok || !c.IsActive {
		return conversation.Conversation{}, referral_errors.ErrNotFound
	}
	return r.hydrate(*c), nil
}

func (r *fakeConversationRepo) FindActiveBetween(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error) {
	for id, c := range r.conversations {
		if !c.IsActive {
			continue
		}
		members := r.participants[id]
		if len(members) != 2 {
			continue
		}
		found := 0
		for _, p := range members {
			if p.UserID == userA || p.UserID == userB {
				found++
			}
		}
		if found == 2 {
			return r.hydrate(*c), nil
		}
	}
	return conversation.Conversation{}, referral_errors.ErrNotFound
}

func (r *fakeConversationRepo) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error) {
	var matches []conversation.Conversation
	for id, c := range r.conversations {
		if !c.IsActive {
			continue
		}
		for _, p := range r.participants[id] {
			if p.UserID == userID {
				matches = append(matches, r.hydrate(*c))
				break
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].LastActivityAt.Equal(matches[j].LastActivityAt) {
			return matches[i].LastActivityAt.After(matches[j].LastActivityAt)
		}
		return strings.Compare(matches[i].ID.String(), matches[j].ID.String()) > 0
	})

	total := int64(len(matches))
	start := (page - 1) * limit
	if start >= len(matches) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

func (r *fakeConversationRepo) Archive(ctx context.Context, id uuid.UUID) error {
	c, ok := r.conversations[id]
	if !ok || !c.IsActive {
		return referral_errors.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (r *fakeConversationRepo) SetLastMessage(ctx context.Context, id, messageID uuid.UUID, at time.Time) error {
	c, ok := r.conversations[id]
	if !ok || !c.IsActive {
		return referral_errors.ErrNotFound
	}
	c.LastMessageID = uuid.NullUUID{UUID: messageID, Valid: true}
	c.LastActivityAt = at
	return nil
}

func (r *fakeConversationRepo) MarkUnread(ctx context.Context, id, userID uuid.UUID) error {
	if r.unread[id] == nil {
		r.unread[id] = make(map[uuid.UUID]time.Time)
	}
	if _, ok := r.unread[id][userID]; !ok {
		r.unread[id][userID] = time.Now()
	}
	return nil
}

func (r *fakeConversationRepo) ClearUnread(ctx context.Context, id, userID uuid.UUID) error {
	delete(r.unread[id], userID)
	return nil
}

func (r *fakeConversationRepo) CountUnreadConversations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for id, members := range r.unread {
		c, ok := r.conversations[id]
		if !ok || !c.IsActive {
			continue
		}
		if _, unread := members[userID]; unread {
			count++
		}
	}
	return count, nil
}

func (r *fakeConversationRepo) IsParticipant(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	for _, p := range r.participants[id] {
		if p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeConversationRepo) hydrate(c conversation.Conversation) conversation.Conversation {
	c.Participants = append([]conversation.Participant(nil), r.participants[c.ID]...)
	c.UnreadBy = nil
	for userID, at := range r.unread[c.ID] {
		c.UnreadBy = append(c.UnreadBy, conversation.UnreadMarker{
			ConversationID: c.ID,
			UserID:         userID,
			MarkedAt:       at,
		})
	}
	return c
}

type fakeMessageRepo struct {
	messages map[uuid.UUID]*message.Message
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[uuid.UUID]*message.Message)}
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *message.Message) error {
	stored := *m
	r.messages[m.ID] = &stored
	return nil
}

func (r *fakeMessageRepo) GetActiveByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	m, ok := r.messages[id]
	if !ok || !m.IsActive {
		return message.Message{}, referral_errors.ErrNotFound
	}
	return *m, nil
}

func (r *fakeMessageRepo) GetConversationMessages(ctx context.Context, conversationID uuid.UUID, page, limit int) ([]message.Message, int64, error) {
	var matches []message.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.IsActive {
			matches = append(matches, *m)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return strings.Compare(matches[i].ID.String(), matches[j].ID.String()) > 0
	})

	total := int64(len(matches))
	start := (page - 1) * limit
	if start >= len(matches) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

func (r *fakeMessageRepo) BulkMarkAsRead(ctx context.Context, conversationID, recipientID uuid.UUID, readAt time.Time) (int64, error) {
	var updated int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.RecipientID == recipientID && m.IsActive && !m.IsRead {
			m.IsRead = true
			m.ReadAt.Time = readAt
			m.ReadAt.Valid = true
			updated++
		}
	}
	return updated, nil
}

func (r *fakeMessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	m, ok := r.messages[id]
	if !ok || !m.IsActive {
		return referral_errors.ErrNotFound
	}
	m.IsActive = false
	return nil
}

func (r *fakeMessageRepo) CountUnreadMessages(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.RecipientID == recipientID && m.IsActive && !m.IsRead {
			count++
		}
	}
	return count, nil
}
