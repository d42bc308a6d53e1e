package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel_guard/internal/engine"
	"travel_guard/internal/middleware"
	"travel_guard/internal/models"
)

var (
	monitor   *engine.Engine
	feed      *engine.PushProvider
	authority *middleware.TokenAuthority
	profile   models.TravelerProfile
)

// Use wires the controllers to the running engine instance. Called
// once from main before the router starts serving.
func Use(e *engine.Engine, p *engine.PushProvider, a *middleware.TokenAuthority, prof models.TravelerProfile) {
	monitor = e
	feed = p
	authority = a
	profile = prof
}

// GetAssessment returns the current safety assessment as one
// consistent snapshot.
// @Summary Current safety assessment
// @Produce json
// @Router /assessment [get]
func GetAssessment(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"assessment": monitor.CurrentAssessment(),
		"state":      monitor.State().String(),
		"safety_id":  profile.SafetyID,
	})
}

// GetZones lists the configured high-risk zones.
// @Summary Configured risk zones
// @Produce json
// @Router /zones [get]
func GetZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"zones": monitor.Zones()})
}

// Healthz is the liveness probe.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": monitor.State().String()})
}
