package httpdto

import (
	"time"

	"referral-chat/internal/domain/message"
	"referral-chat/internal/services"
)

type SendMessageRequest struct {
	Content     string              `json:"content" binding:"required,max=4000"`
	Attachments []AttachmentRequest `json:"attachments" binding:"omitempty,dive"`
}

type AttachmentRequest struct {
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType" binding:"required"`
	FileURL  string `json:"fileUrl" binding:"required,url"`
	FileSize int64  `json:"fileSize" binding:"required,gt=0"`
}

type PresignAttachmentRequest struct {
	FileName string `json:"fileName" binding:"required"`
	FileType string `json:"fileType" binding:"required"`
	FileSize int64  `json:"fileSize" binding:"required,gt=0"`
}

type MessageResponse struct {
	ID             string               `json:"id"`
	ConversationID string               `json:"conversationId"`
	SenderID       string               `json:"senderId"`
	RecipientID    string               `json:"recipientId"`
	Content        string               `json:"content"`
	Attachments    []message.Attachment `json:"attachments"`
	IsRead         bool                 `json:"isRead"`
	ReadAt         *time.Time           `json:"readAt,omitempty"`
	IsActive       bool                 `json:"isActive"`
	CreatedAt      time.Time            `json:"createdAt"`
}

type MarkMessagesReadResponse struct {
	Updated int64 `json:"updated"`
}

func (r SendMessageRequest) ToAttachments() []message.Attachment {
	if len(r.Attachments) == 0 {
		return nil
	}
	attachments := make([]message.Attachment, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		attachments = append(attachments, message.Attachment{
			FileName: a.FileName,
			FileType: a.FileType,
			FileURL:  a.FileURL,
			FileSize: a.FileSize,
		})
	}
	return attachments
}

func FromMessage(m message.Message) MessageResponse {
	res := MessageResponse{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		RecipientID:    m.RecipientID.String(),
		Content:        m.Content,
		Attachments:    m.Attachments,
		IsRead:         m.IsRead,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}
	if res.Attachments == nil {
		res.Attachments = []message.Attachment{}
	}
	if m.ReadAt.Valid {
		readAt := m.ReadAt.Time
		res.ReadAt = &readAt
	}
	return res
}

func FromMessagePage(page services.Page[message.Message]) services.Page[MessageResponse] {
	results := make([]MessageResponse, 0, len(page.Results))
	for _, m := range page.Results {
		results = append(results, FromMessage(m))
	}
	return services.Page[MessageResponse]{
		Results:      results,
		Page:         page.Page,
		Limit:        page.Limit,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}
