package rest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panchakarma/internal/domain"
)

// @Summary Send a file
// @Description Stores the upload and posts it as an image, audio, video or file message depending on its content.
// @Tags Messages
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param file formData file true "Attachment"
// @Param message_id formData string true "Client idempotency token"
// @Param content formData string false "Caption"
// @Param reply_to_message_id formData string false "Message being answered"
// @Success 201 {object} SuccessResponse{data=domain.ChatMessage}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/sessions/{id}/attachments [post]
func (h *Handler) uploadAttachment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	sessionID := c.Param("id")

	messageID := c.PostForm("message_id")
	if messageID == "" {
		badRequestResponse(c, "message_id is required")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		badRequestResponse(c, "file is required")
		return
	}
	if limit := h.config.HTTP.MaxUploadMB << 20; file.Size > limit {
		badRequestResponse(c, fmt.Sprintf("file exceeds %d MB", h.config.HTTP.MaxUploadMB))
		return
	}

	// refuse before touching the bucket when the message could never be accepted
	session, err := h.services.Session.GetSession(ctx, sessionID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if session.Status != domain.SessionStatusActive {
		h.respondError(c, domain.ErrSessionNotActive)
		return
	}

	src, err := file.Open()
	if err != nil {
		badRequestResponse(c, "failed to read upload")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		badRequestResponse(c, "failed to read upload")
		return
	}

	attachment, err := h.files.UploadAttachment(ctx, sessionID, file.Filename, data)
	if err != nil {
		h.logger.Warn("attachment upload failed", zap.String("session_id", sessionID), zap.Error(err))
		h.respondError(c, err)
		return
	}

	req := domain.SendMessageRequest{
		SessionID:    sessionID,
		SenderID:     userID,
		MessageID:    messageID,
		Type:         attachment.MessageType,
		Content:      c.PostForm("content"),
		FileURL:      &attachment.URL,
		FileName:     &attachment.Name,
		FileMimeType: &attachment.MimeType,
		FileSize:     &attachment.Size,
	}
	if replyTo := c.PostForm("reply_to_message_id"); replyTo != "" {
		req.ReplyToMessageID = &replyTo
	}

	message, err := h.services.Message.SendMessage(ctx, req)
	if err != nil {
		h.discardAttachment(attachment.URL)
		h.respondError(c, err)
		return
	}
	if message.FileURL == nil || *message.FileURL != attachment.URL {
		// idempotent replay: the first upload is the one on record
		h.discardAttachment(attachment.URL)
	}

	createdResponse(c, message)
}

func (h *Handler) discardAttachment(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.files.DeleteFile(ctx, url); err != nil {
		h.logger.Warn("failed to discard orphaned attachment", zap.String("url", url), zap.Error(err))
	}
}
