package routes

import (
	"github.com/gin-gonic/gin"

	"travel_guard/internal/controllers"
)

func AssessmentRoutes(r *gin.Engine) {
	r.GET("/healthz", controllers.Healthz)
	r.GET("/assessment", controllers.GetAssessment)
	r.GET("/zones", controllers.GetZones)
}
