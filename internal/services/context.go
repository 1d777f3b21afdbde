package services

import (
	"context"
	"errors"

	referral_errors "referral-chat/pkg/errors"
	"referral-chat/pkg/logger"

	"github.com/google/uuid"
)

// HTTPStatus maps service errors to HTTP status codes. Handlers are the only
// consumers; services themselves never see status codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, referral_errors.ErrInvalidInput):
		return 400
	case errors.Is(err, referral_errors.ErrUnauthorized):
		return 401
	case errors.Is(err, referral_errors.ErrForbidden):
		return 403
	case errors.Is(err, referral_errors.ErrNotFound):
		return 404
	default:
		return 500
	}
}

// ErrorCode maps service errors to wire-level error codes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, referral_errors.ErrInvalidInput):
		return "BAD_REQUEST"
	case errors.Is(err, referral_errors.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, referral_errors.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, referral_errors.ErrNotFound):
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}

type ctxKey string

var userIDKey ctxKey = "user_id"

// WithUserContext stores the authenticated user on the context. The value is
// also exposed under the logger's key so request logs carry it.
func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, logger.UserIdKey, userID.String())
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
