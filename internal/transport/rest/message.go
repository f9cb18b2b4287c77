package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panchakarma/internal/domain"
)

// @Summary List session messages
// @Tags Messages
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param message_type query string false "Type" Enums(text,image,file,audio,video,system)
// @Param status query string false "Status" Enums(pending,sent,delivered,read,failed)
// @Param from query string false "Sent at or after (RFC3339)"
// @Param to query string false "Sent at or before (RFC3339)"
// @Param sort_by query string false "Sort column" Enums(sent_at,created_at)
// @Param sort_order query string false "Sort order" Enums(asc,desc)
// @Success 200 {object} PaginatedResponse{data=[]domain.ChatMessage}
// @Failure 403 {object} ErrorResponse
// @Router /chat/sessions/{id}/messages [get]
func (h *Handler) listMessages(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var filters domain.MessageFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequestResponse(c, "invalid query: "+err.Error())
		return
	}
	filters.Normalize()

	messages, total, err := h.services.Message.ListMessages(c.Request.Context(), c.Param("id"), userID, filters)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, messages, total, filters.Page, filters.Limit)
}

// @Summary Send a message
// @Description Idempotent on message_id: resending returns the stored message with 200.
// @Tags Messages
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body domain.SendMessageRequest true "Message"
// @Success 201 {object} SuccessResponse{data=domain.ChatMessage}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/sessions/{id}/messages [post]
func (h *Handler) sendMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}
	req.SessionID = c.Param("id")
	req.SenderID = userID

	message, err := h.services.Message.SendMessage(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, message)
}

// @Summary Mark every unread message of the session read
// @Tags Messages
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=[]domain.ChatMessage}
// @Failure 403 {object} ErrorResponse
// @Router /chat/sessions/{id}/read [post]
func (h *Handler) markSessionRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	messages, err := h.services.Message.MarkSessionRead(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, messages)
}

// @Summary Get a message
// @Tags Messages
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Message ID"
// @Success 200 {object} SuccessResponse{data=domain.ChatMessage}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /chat/messages/{id} [get]
func (h *Handler) getMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	message, err := h.services.Message.GetMessage(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, message)
}

// @Summary Edit own message
// @Tags Messages
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Message ID"
// @Param request body domain.EditMessageRequest true "New content"
// @Success 200 {object} SuccessResponse{data=domain.ChatMessage}
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/messages/{id} [patch]
func (h *Handler) editMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var req domain.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	message, err := h.services.Message.EditMessage(c.Request.Context(), c.Param("id"), userID, req.Content)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, message)
}

// @Summary Delete own message
// @Tags Messages
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Message ID"
// @Success 200 {object} SuccessResponse{data=domain.ChatMessage}
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/messages/{id} [delete]
func (h *Handler) deleteMessage(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	message, err := h.services.Message.DeleteMessage(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, message)
}

// @Summary Advance delivery status
// @Description Recipients report delivered or read. Status only moves forward.
// @Tags Messages
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Message ID"
// @Param request body domain.MarkStatusRequest true "Status"
// @Success 200 {object} SuccessResponse{data=domain.ChatMessage}
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/messages/{id}/status [post]
func (h *Handler) markMessageStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var req domain.MarkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	messageID := c.Param("id")

	current, err := h.services.Message.GetMessage(ctx, messageID, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if current.SenderID == userID {
		h.respondError(c, domain.ErrForbidden)
		return
	}

	message, err := h.services.Message.MarkStatus(ctx, messageID, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, message)
}
