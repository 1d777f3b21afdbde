package handler

import (
	"net/http"

	"referral-chat/internal/services"
	"referral-chat/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	service *services.AttachmentService
}

func NewAttachmentHandler(service *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

func (h *AttachmentHandler) Presign(c *gin.Context) {
	var req httpdto.PresignAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "BAD_REQUEST"))
		return
	}

	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	result, err := h.service.PresignUpload(c.Request.Context(), userID, services.PresignUploadInput{
		FileName: req.FileName,
		FileType: req.FileType,
		FileSize: req.FileSize,
	})
	if err != nil {
		c.JSON(services.HTTPStatus(err), httpdto.NewErrorResponse(err.Error(), services.ErrorCode(err)))
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(result))
}
