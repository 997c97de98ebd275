package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/configuration"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/handler"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/ic/api/chats")
	chatRoute.Use(handler.AuthMiddleware(container.AuthService))
	{
		chatRoute.GET("/get-or-create/:userAId/:userBId", container.ChatHandler.GetOrCreateChat)
		chatRoute.GET("/user/:userId", container.ChatHandler.GetUserChats)
		chatRoute.GET("/unread/:userId", container.ChatHandler.GetTotalUnread)
	}
}
