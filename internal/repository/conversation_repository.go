package repository

import (
	"context"
	"errors"
	"time"

	"referral-chat/internal/domain/conversation"
	referral_errors "referral-chat/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresConversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository binds a repository to db, which may be a
// transaction handle. Transactional services construct tx-bound instances
// inside gorm's Transaction closure.
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &PostgresConversationRepository{db: db}
}

func (r *PostgresConversationRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	res := r.db.WithContext(ctx).Omit("Participants", "UnreadBy", "LastMessage").Create(c)
	if res.Error != nil {
		return res.Error
	}
	return nil
}

func (r *PostgresConversationRepository) AddParticipant(ctx context.Context, p *conversation.Participant) error {
	res := r.db.WithContext(ctx).Create(p)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return referral_errors.ErrInvalidInput
		}
		return res.Error
	}
	return nil
}

func (r *PostgresConversationRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("UnreadBy").
		Preload("LastMessage").
		Where("id = ? AND is_active = ?", id, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, referral_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) FindActiveBetween(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error) {
	var c conversation.Conversation

	// Conversations always have exactly two participants, so matching both
	// users pins down the pair.
	subQuery := r.db.Model(&conversation.Participant{}).
		Select("conversation_id").
		Where("user_id IN (?, ?)", userA, userB).
		Group("conversation_id").
		Having("COUNT(DISTINCT user_id) = 2")

	err := r.db.WithContext(ctx).
		Preload("Participants").
		Preload("UnreadBy").
		Preload("LastMessage").
		Where("id IN (?) AND is_active = ?", subQuery, true).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversation.Conversation{}, referral_errors.ErrNotFound
		}
		return conversation.Conversation{}, err
	}
	return c, nil
}

func (r *PostgresConversationRepository) GetUserConversations(ctx context.Context, userID uuid.UUID, page, limit int) ([]conversation.Conversation, int64, error) {
	var conversations []conversation.Conversation
	var total int64

	subQuery := r.db.Model(&conversation.Participant{}).
		Select("conversation_id").
		Where("user_id = ?", userID)

	q := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id IN (?) AND is_active = ?", subQuery, true)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.
		Preload("Participants").
		Preload("UnreadBy").
		Preload("LastMessage").
		Order("last_activity_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&conversations).Error; err != nil {
		return nil, 0, err
	}

	return conversations, total, nil
}

func (r *PostgresConversationRepository) Archive(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return referral_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) SetLastMessage(ctx context.Context, id, messageID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&conversation.Conversation{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"last_message_id":  messageID,
			"last_activity_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return referral_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) MarkUnread(ctx context.Context, id, userID uuid.UUID) error {
	marker := conversation.UnreadMarker{
		ConversationID: id,
		UserID:         userID,
		MarkedAt:       time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&marker).Error
}

func (r *PostgresConversationRepository) ClearUnread(ctx context.Context, id, userID uuid.UUID) error {
	// Clearing an absent marker is a no-op, not an error.
	return r.db.WithContext(ctx).
		Delete(&conversation.UnreadMarker{}, "conversation_id = ? AND user_id = ?", id, userID).Error
}

func (r *PostgresConversationRepository) CountUnreadConversations(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	activeConvs := r.db.Model(&conversation.Conversation{}).
		Select("id").
		Where("is_active = ?", true)

	err := r.db.WithContext(ctx).
		Model(&conversation.UnreadMarker{}).
		Where("user_id = ? AND conversation_id IN (?)", userID, activeConvs).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresConversationRepository) IsParticipant(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&conversation.Participant{}).
		Where("conversation_id = ? AND user_id = ?", id, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
