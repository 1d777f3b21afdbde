package proxy

import (
	"context"

	"referral-chat/internal/repository"
	referral_errors "referral-chat/pkg/errors"

	"github.com/google/uuid"
)

// AccessControl guards conversation access. The participant check is a plain
// read performed before the guarded mutation; archive/mark-read races are
// tolerated because both operations converge on the same end state.
type AccessControl struct {
	conversationRepo repository.ConversationRepository
}

func NewAccessControl(conversationRepo repository.ConversationRepository) *AccessControl {
	return &AccessControl{conversationRepo: conversationRepo}
}

func (a *AccessControl) EnsureParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	if a.conversationRepo == nil {
		return referral_errors.ErrForbidden
	}
	ok, err := a.conversationRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return referral_errors.ErrForbidden
	}
	return nil
}
