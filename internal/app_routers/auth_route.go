package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/configuration"
)

func AuthRouters(router *gin.Engine, container *configuration.Container) {
	authRoute := router.Group("/ic/api/auth")
	{
		authRoute.POST("/register", container.AuthHandler.Register)
		authRoute.POST("/login", container.AuthHandler.Login)
	}
}
