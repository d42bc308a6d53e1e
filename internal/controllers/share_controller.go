package controllers

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"travel_guard/internal/middleware"
)

// IssueShare mints a share token for the monitored traveler. Guarded
// by the operator key; disabled entirely when ADMIN_KEY is unset.
// @Summary Issue a feed or watch share token
// @Accept json
// @Produce json
// @Router /share/token [post]
func IssueShare(c *gin.Context) {
	adminKey := os.Getenv("ADMIN_KEY")
	if adminKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Token issuance disabled"})
		return
	}
	if c.GetHeader("X-Admin-Key") != adminKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid operator key"})
		return
	}

	var input struct {
		Scope      string `json:"scope" binding:"required"`
		TTLMinutes int    `json:"ttl_minutes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("IssueShare: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.Scope != middleware.ScopeFeed && input.Scope != middleware.ScopeWatch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Scope must be \"feed\" or \"watch\""})
		return
	}
	if input.TTLMinutes <= 0 {
		input.TTLMinutes = 12 * 60
	}

	token, err := middleware.IssueShareToken(profile.TravelerKey, input.Scope, time.Duration(input.TTLMinutes)*time.Minute)
	if err != nil {
		logrus.WithError(err).Error("IssueShare: failed to sign share token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":              token,
		"scope":              input.Scope,
		"safety_id":          profile.SafetyID,
		"expires_in_minutes": input.TTLMinutes,
	})
}
