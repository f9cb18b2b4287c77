package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panchakarma/internal/domain"
	"panchakarma/internal/storage"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Code      int    `json:"code,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	TotalCount int64       `json:"total_count"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int64       `json:"total_pages"`
}

func successResponse(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Status: "success",
		Data:   data,
	})
}

func createdResponse(c *gin.Context, data interface{}) {
	successResponse(c, http.StatusCreated, data)
}

func paginatedSuccessResponse(c *gin.Context, data interface{}, totalCount int64, page, pageSize int) {
	totalPages := totalCount / int64(pageSize)
	if totalCount%int64(pageSize) > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func errorResponse(c *gin.Context, statusCode int, errorCode, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Status:    "error",
		Message:   message,
		Code:      statusCode,
		ErrorCode: errorCode,
	})
}

func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, domain.ErrValidation.Code, message)
}

func unauthorizedResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// statusFor maps a domain error code to its HTTP status
var statusFor = map[string]int{
	domain.ErrValidation.Code:             http.StatusBadRequest,
	domain.ErrInvalidParticipant.Code:     http.StatusBadRequest,
	domain.ErrForbidden.Code:              http.StatusForbidden,
	domain.ErrSenderNotParticipant.Code:   http.StatusForbidden,
	domain.ErrNotFound.Code:               http.StatusNotFound,
	domain.ErrDuplicateActiveSession.Code: http.StatusConflict,
	domain.ErrInvalidTransition.Code:      http.StatusConflict,
	domain.ErrSessionNotActive.Code:       http.StatusConflict,
	domain.ErrAlreadyPaid.Code:            http.StatusConflict,
	domain.ErrInvalidState.Code:           http.StatusConflict,
	domain.ErrAlreadyDeleted.Code:         http.StatusConflict,
	domain.ErrConcurrentUpdate.Code:       http.StatusConflict,
	domain.ErrStorageUnavailable.Code:     http.StatusServiceUnavailable,
}

// respondError renders a service error. Storage details never reach the client.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrEmptyFile), errors.Is(err, storage.ErrUnsupportedFile):
		badRequestResponse(c, err.Error())
		return
	}

	code := domain.ErrorCode(err)
	status, ok := statusFor[code]
	if !ok {
		h.logger.Error("unmapped error", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, code, "internal server error")
		return
	}

	message := err.Error()
	if status == http.StatusServiceUnavailable {
		message = domain.ErrStorageUnavailable.Message
	}
	errorResponse(c, status, code, message)
}
