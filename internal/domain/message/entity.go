package message

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Message represents the messages table. RecipientID is resolved at send time
// as the conversation participant other than the sender. Rows are never hard
// deleted; IsActive=false excludes a message from active listings and counts.
type Message struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID   `gorm:"type:uuid;index"`
	SenderID       uuid.UUID   `gorm:"type:uuid;index"`
	RecipientID    uuid.UUID   `gorm:"type:uuid;index"`
	Content        string      `gorm:"type:text"`
	Attachments    Attachments `gorm:"column:attachments_json;type:jsonb"`
	IsRead         bool        `gorm:"default:false"`
	ReadAt         sql.NullTime
	IsActive       bool      `gorm:"index;default:true"`
	CreatedAt      time.Time `gorm:"index"`
}

// Attachment describes one file attached to a message. The file itself lives
// in object storage; FileURL points at it.
type Attachment struct {
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileURL  string `json:"fileUrl"`
	FileSize int64  `json:"fileSize"`
}

// Attachments is stored as a single JSON column.
type Attachments []Attachment

func (a Attachments) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Attachments) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("unsupported attachments column type")
	}
}

func (Message) TableName() string {
	return "messages"
}
