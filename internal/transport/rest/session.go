package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"panchakarma/internal/domain"
)

// @Summary Book a session
// @Description Creates a pending session between a patient and a doctor. Callers book for themselves; admins may book for anyone.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body domain.CreateSessionRequest true "Session data"
// @Success 201 {object} SuccessResponse{data=domain.ChatSession}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/sessions [post]
func (h *Handler) createSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}
	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var req domain.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	if role != domain.UserRoleAdmin && req.PatientID != userID && req.DoctorID != userID {
		h.respondError(c, domain.ErrForbidden)
		return
	}

	session, err := h.services.Session.CreateSession(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, session)
}

// @Summary List my sessions
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(20)
// @Param status query string false "Status" Enums(pending,active,completed,cancelled,expired)
// @Param session_type query string false "Session type" Enums(chat,audio_call,video_call)
// @Param is_paid query bool false "Payment state"
// @Param from query string false "Created at or after (RFC3339)"
// @Param to query string false "Created at or before (RFC3339)"
// @Param sort_by query string false "Sort column" Enums(created_at,started_at,total_cost)
// @Param sort_order query string false "Sort order" Enums(asc,desc)
// @Success 200 {object} PaginatedResponse{data=[]domain.ChatSession}
// @Failure 400 {object} ErrorResponse
// @Router /chat/sessions [get]
func (h *Handler) listSessions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var filters domain.SessionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		badRequestResponse(c, "invalid query: "+err.Error())
		return
	}
	filters.Normalize()

	sessions, total, err := h.services.Session.ListSessions(c.Request.Context(), userID, filters)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, sessions, total, filters.Page, filters.Limit)
}

// @Summary Get a session
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=domain.ChatSession}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /chat/sessions/{id} [get]
func (h *Handler) getSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	session, err := h.services.Session.GetSession(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session)
}

// @Summary Start a pending session
// @Description Joining the realtime room activates a session as well; this endpoint serves clients without a socket.
// @Tags Sessions
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=domain.ChatSession}
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/sessions/{id}/activate [post]
func (h *Handler) activateSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	session, err := h.services.Session.ActivateSession(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session)
}

// @Summary End a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body domain.EndSessionRequest true "Terminal status"
// @Success 200 {object} SuccessResponse{data=domain.ChatSession}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/sessions/{id}/end [post]
func (h *Handler) endSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var req domain.EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	session, err := h.services.Session.EndSession(c.Request.Context(), c.Param("id"), userID, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session)
}

// @Summary Record payment
// @Description Called by the payment flow once the gateway confirms. Restricted to the admin role used by payment callbacks.
// @Tags Sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body domain.RecordPaymentRequest true "Payment"
// @Success 200 {object} SuccessResponse{data=domain.ChatSession}
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/sessions/{id}/payment [post]
func (h *Handler) recordPayment(c *gin.Context) {
	role, err := getUserRole(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}
	if role != domain.UserRoleAdmin {
		h.respondError(c, domain.ErrForbidden)
		return
	}

	var req domain.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	session, err := h.services.Session.RecordPayment(c.Request.Context(), c.Param("id"), req.TransactionID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session)
}

// @Summary Rate a finished session
// @Tags Sessions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body domain.RateSessionRequest true "Rating"
// @Success 200 {object} SuccessResponse{data=domain.ChatSession}
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /chat/sessions/{id}/rating [post]
func (h *Handler) rateSession(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c, err.Error())
		return
	}

	var req domain.RateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestResponse(c, "invalid request body: "+err.Error())
		return
	}

	session, err := h.services.Session.RateSession(c.Request.Context(), c.Param("id"), userID, req.Rating, req.Review)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, session)
}
