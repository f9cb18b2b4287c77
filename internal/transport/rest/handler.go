package rest

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panchakarma/config"
	"panchakarma/internal/service"
	"panchakarma/internal/storage"
	"panchakarma/internal/transport/websocket"
)

type Handler struct {
	services *service.Services
	hub      *websocket.Hub
	files    storage.FileStorage
	logger   *zap.Logger
	config   *config.Config
}

func NewHandler(services *service.Services, hub *websocket.Hub, files storage.FileStorage, logger *zap.Logger, config *config.Config) *Handler {
	return &Handler{
		services: services,
		hub:      hub,
		files:    files,
		logger:   logger,
		config:   config,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())

	router.Use(h.errorMiddleware())

	router.Use(h.corsMiddleware())

	router.MaxMultipartMemory = h.config.HTTP.MaxUploadMB << 20

	api := router.Group("/api/v1")
	h.initChatRoutes(api)

	// the websocket handshake authenticates from the query string itself
	router.GET("/ws", h.hub.HandleWebSocket)
}

func (h *Handler) initChatRoutes(api *gin.RouterGroup) {
	chat := api.Group("/chat")
	chat.Use(h.authMiddleware())
	{
		sessions := chat.Group("/sessions")
		{
			sessions.POST("", h.createSession)
			sessions.GET("", h.listSessions)
			sessions.GET("/:id", h.getSession)
			sessions.POST("/:id/activate", h.activateSession)
			sessions.POST("/:id/end", h.endSession)
			sessions.POST("/:id/payment", h.recordPayment)
			sessions.POST("/:id/rating", h.rateSession)

			sessions.GET("/:id/messages", h.listMessages)
			sessions.POST("/:id/messages", h.sendMessage)
			sessions.POST("/:id/attachments", h.uploadAttachment)
			sessions.POST("/:id/read", h.markSessionRead)
		}

		messages := chat.Group("/messages")
		{
			messages.GET("/:id", h.getMessage)
			messages.PATCH("/:id", h.editMessage)
			messages.DELETE("/:id", h.deleteMessage)
			messages.POST("/:id/status", h.markMessageStatus)
		}
	}
}
