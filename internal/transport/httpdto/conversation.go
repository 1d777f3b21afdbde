package httpdto

import (
	"time"

	"referral-chat/internal/domain/conversation"
	"referral-chat/internal/services"
)

type CreateConversationRequest struct {
	OtherUserID       string `json:"otherUserId" binding:"required,uuid"`
	Title             string `json:"title" binding:"omitempty,max=255"`
	ReferralRequestID string `json:"referralRequestId" binding:"omitempty,uuid"`
}

type ConversationResponse struct {
	ID                string           `json:"id"`
	Title             string           `json:"title,omitempty"`
	LastActivityAt    time.Time        `json:"lastActivityAt"`
	IsActive          bool             `json:"isActive"`
	ReferralRequestID string           `json:"referralRequestId,omitempty"`
	Participants      []string         `json:"participants"`
	UnreadBy          []string         `json:"unreadBy"`
	LastMessage       *MessageResponse `json:"lastMessage,omitempty"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

func FromConversation(c conversation.Conversation) ConversationResponse {
	res := ConversationResponse{
		ID:             c.ID.String(),
		LastActivityAt: c.LastActivityAt,
		IsActive:       c.IsActive,
		Participants:   make([]string, 0, len(c.Participants)),
		UnreadBy:       make([]string, 0, len(c.UnreadBy)),
	}
	if c.Title.Valid {
		res.Title = c.Title.String
	}
	if c.ReferralRequestID.Valid {
		res.ReferralRequestID = c.ReferralRequestID.UUID.String()
	}
	for _, p := range c.Participants {
		res.Participants = append(res.Participants, p.UserID.String())
	}
	for _, m := range c.UnreadBy {
		res.UnreadBy = append(res.UnreadBy, m.UserID.String())
	}
	if c.LastMessage != nil {
		lm := FromMessage(*c.LastMessage)
		res.LastMessage = &lm
	}
	return res
}

func FromConversationPage(page services.Page[conversation.Conversation]) services.Page[ConversationResponse] {
	results := make([]ConversationResponse, 0, len(page.Results))
	for _, c := range page.Results {
		results = append(results, FromConversation(c))
	}
	return services.Page[ConversationResponse]{
		Results:      results,
		Page:         page.Page,
		Limit:        page.Limit,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}
