// Package httpdto holds the wire shapes of the messaging API: the response
// envelope and the conversation, message, and attachment DTOs.
package httpdto

// Response is the envelope every messaging endpoint returns. Success payloads
// carry a DTO in Data; failures carry a human-readable Error plus a stable
// Code (BAD_REQUEST, UNAUTHORIZED, FORBIDDEN, NOT_FOUND, RATE_LIMITED,
// INTERNAL_ERROR).
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

func NewSuccessResponse[T any](data T) Response[T] {
	return Response[T]{
		Success: true,
		Data:    data,
	}
}

func NewErrorResponse(err string, code string) Response[any] {
	return Response[any]{
		Success: false,
		Error:   err,
		Code:    code,
	}
}
