package routes

import (
	"github.com/gin-gonic/gin"

	"travel_guard/internal/controllers"
	"travel_guard/internal/middleware"
)

func ShareRoutes(r *gin.Engine) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/feed", controllers.HandleFeedWebSocket)
		wsRoutes.GET("/watch", controllers.HandleWatchWebSocket)
	}

	shareRoutes := r.Group("/share")
	{
		shareRoutes.POST("/token", controllers.IssueShare)
		shareRoutes.POST("/revoke", middleware.RequireShareToken(middleware.ScopeFeed), controllers.RevokeShare)
	}
}
