package routes

import (
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func SetupRouter() *gin.Engine {
	r := gin.New()

	// Request logging middleware
	r.Use(ginlogger.SetLogger(
		ginlogger.WithLogger(func(_ *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().Str("component", "http").Logger()
		}),
	))
	r.Use(gin.Recovery())

	AssessmentRoutes(r)
	ShareRoutes(r)

	return r
}
