package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/configuration"
	"github.com/Amaechina-Ikechukwu/involved-chat-api/internal/handler"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/ic/api/users")
	userRoute.Use(handler.AuthMiddleware(container.AuthService))
	{
		userRoute.GET("/:id", container.UserHandler.GetUser)
		userRoute.PUT("/:id/photo", container.UserHandler.UpdatePhoto)
		userRoute.PUT("/:id/about", container.UserHandler.UpdateAbout)
		userRoute.PUT("/:id/display-name", container.UserHandler.UpdateDisplayName)
		userRoute.PUT("/:id/location", container.UserHandler.UpdateLocation)
		userRoute.POST("/:id/push-token", container.UserHandler.AddPushToken)
		userRoute.POST("/:id/block", container.UserHandler.BlockUser)
		userRoute.POST("/:id/unblock", container.UserHandler.UnblockUser)
		userRoute.GET("/:id/contacts", container.UserHandler.GetContacts)
		userRoute.GET("/:id/nearby", container.UserHandler.GetNearbyUsers)
	}
}
