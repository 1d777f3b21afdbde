package services

import (
	"context"
	"fmt"
	"path"
	"strings"

	"referral-chat/internal/domain/message"
	"referral-chat/internal/storage"
	referral_errors "referral-chat/pkg/errors"

	"github.com/google/uuid"
)

const maxAttachmentSize = 25 << 20 // 25 MiB

var allowedAttachmentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"text/plain":         {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// AttachmentService hands out presigned upload URLs for message attachments.
// Clients upload directly to object storage and pass the resulting attachment
// metadata to sendMessage; the messaging core never proxies file bytes.
type AttachmentService struct {
	store *storage.Client
}

func NewAttachmentService(store *storage.Client) *AttachmentService {
	return &AttachmentService{store: store}
}

type PresignUploadInput struct {
	FileName string
	FileType string
	FileSize int64
}

type PresignUploadResult struct {
	UploadURL  string             `json:"uploadUrl"`
	Headers    map[string]string  `json:"headers"`
	Attachment message.Attachment `json:"attachment"`
}

func (s *AttachmentService) PresignUpload(ctx context.Context, userID uuid.UUID, in PresignUploadInput) (PresignUploadResult, error) {
	if s.store == nil {
		return PresignUploadResult{}, fmt.Errorf("%w: attachment storage not configured", referral_errors.ErrInternal)
	}

	name := path.Base(strings.TrimSpace(in.FileName))
	if name == "" || name == "." || name == "/" {
		return PresignUploadResult{}, fmt.Errorf("%w: file name is required", referral_errors.ErrInvalidInput)
	}
	if in.FileSize <= 0 || in.FileSize > maxAttachmentSize {
		return PresignUploadResult{}, fmt.Errorf("%w: file size must be between 1 byte and %d bytes", referral_errors.ErrInvalidInput, maxAttachmentSize)
	}
	if _, ok := allowedAttachmentTypes[in.FileType]; !ok {
		return PresignUploadResult{}, fmt.Errorf("%w: unsupported file type %q", referral_errors.ErrInvalidInput, in.FileType)
	}

	key := fmt.Sprintf("attachments/%s/%s/%s", userID, uuid.New(), name)
	uploadURL, headers, err := s.store.PresignPut(ctx, key, in.FileType, in.FileSize)
	if err != nil {
		return PresignUploadResult{}, err
	}

	return PresignUploadResult{
		UploadURL: uploadURL,
		Headers:   headers,
		Attachment: message.Attachment{
			FileName: name,
			FileType: in.FileType,
			FileURL:  s.store.FileURL(key),
			FileSize: in.FileSize,
		},
	}, nil
}
