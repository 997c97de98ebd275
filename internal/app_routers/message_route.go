package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/configuration"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/handler"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/ic/api/messages")
	messageRoute.Use(handler.AuthMiddleware(container.AuthService))
	{
		messageRoute.GET("/conversation/:userAId/:userBId", container.MessageHandler.GetConversation)
		messageRoute.POST("/send/:userAId/:userBId", container.MessageHandler.SendMessage)
		messageRoute.GET("/chat/:chatId", container.MessageHandler.GetMessages)
		messageRoute.POST("/chat/:chatId/read", container.MessageHandler.MarkRead)
	}
}
