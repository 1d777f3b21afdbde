package conversation

import (
	"database/sql"
	"time"

	"referral-chat/internal/domain/message"

	"github.com/google/uuid"
)

// Conversation represents the conversations table: a two-party message thread
// between a job seeker, a referrer, or an admin. Exactly two participant rows
// belong to every conversation; archival is one-way.
type Conversation struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Title             sql.NullString `gorm:"size:255"`
	LastActivityAt    time.Time      `gorm:"index"`
	IsActive          bool           `gorm:"index;default:true"`
	LastMessageID     uuid.NullUUID  `gorm:"type:uuid"`
	ReferralRequestID uuid.NullUUID  `gorm:"type:uuid;index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Relationships
	Participants []Participant    `gorm:"foreignKey:ConversationID"`
	UnreadBy     []UnreadMarker   `gorm:"foreignKey:ConversationID"`
	LastMessage  *message.Message `gorm:"foreignKey:LastMessageID"`
}

// Participant represents the conversation_participants table.
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	JoinedAt       time.Time
}

// UnreadMarker represents the conversation_unread_by table: the subset of
// participants with unseen activity in the conversation.
type UnreadMarker struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	MarkedAt       time.Time
}

// HasParticipant reports whether userID belongs to the loaded participant set.
func (c Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the participant other than userID. The two-slot
// participant relation makes this a constant-time lookup; ok is false when
// userID is not a participant or the row set is malformed.
func (c Conversation) Counterpart(userID uuid.UUID) (uuid.UUID, bool) {
	if len(c.Participants) != 2 || !c.HasParticipant(userID) {
		return uuid.Nil, false
	}
	for _, p := range c.Participants {
		if p.UserID != userID {
			return p.UserID, true
		}
	}
	return uuid.Nil, false
}

// IsUnreadBy reports whether userID is in the loaded unread-by set.
func (c Conversation) IsUnreadBy(userID uuid.UUID) bool {
	for _, m := range c.UnreadBy {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "conversation_participants"
}

func (UnreadMarker) TableName() string {
	return "conversation_unread_by"
}
