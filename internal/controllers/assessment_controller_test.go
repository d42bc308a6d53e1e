package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel_guard/internal/engine"
	"travel_guard/internal/middleware"
	"travel_guard/internal/models"
	"travel_guard/internal/store"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := engine.NewPushProvider()
	auth := &middleware.TokenAuthority{}
	e := engine.New(engine.Options{
		Store:       store.New(nil, "traveler"),
		Provider:    provider,
		Permissions: auth,
	})
	Use(e, provider, auth, models.TravelerProfile{TravelerKey: "traveler", SafetyID: "ab12cd34"})

	r := gin.New()
	r.GET("/assessment", GetAssessment)
	r.GET("/zones", GetZones)
	r.GET("/healthz", Healthz)
	r.POST("/share/token", IssueShare)
	r.POST("/share/revoke", middleware.RequireShareToken(middleware.ScopeFeed), RevokeShare)
	return r
}

func TestGetAssessmentDefaultState(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/assessment", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Assessment engine.Assessment `json:"assessment"`
		State      string            `json:"state"`
		SafetyID   string            `json:"safety_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 50, body.Assessment.Score)
	assert.False(t, body.Assessment.InHighRiskZone)
	assert.Equal(t, "All normal. Explore nearby attractions safely.", body.Assessment.Suggestions[0])
	assert.Equal(t, "unauthorized", body.State)
	assert.Equal(t, "ab12cd34", body.SafetyID)
}

func TestGetZones(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/zones", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Kaziranga perimeter")
	assert.Contains(t, w.Body.String(), "1000")
}

func TestHealthz(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestIssueShareDisabledWithoutAdminKey(t *testing.T) {
	t.Setenv("ADMIN_KEY", "")
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/share/token", strings.NewReader(`{"scope":"feed"}`))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIssueShareRejectsWrongKey(t *testing.T) {
	t.Setenv("ADMIN_KEY", "op-key")
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/share/token", strings.NewReader(`{"scope":"feed"}`))
	req.Header.Set("X-Admin-Key", "wrong")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIssueShareFeedToken(t *testing.T) {
	t.Setenv("ADMIN_KEY", "op-key")
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/share/token", strings.NewReader(`{"scope":"feed","ttl_minutes":30}`))
	req.Header.Set("X-Admin-Key", "op-key")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Token string `json:"token"`
		Scope string `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "feed", body.Scope)

	claims, err := middleware.ValidateShareToken(body.Token)
	require.NoError(t, err)
	assert.Equal(t, "traveler", claims.TravelerKey)
	assert.Equal(t, middleware.ScopeFeed, claims.Scope)
}

func TestIssueShareRejectsUnknownScope(t *testing.T) {
	t.Setenv("ADMIN_KEY", "op-key")
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/share/token", strings.NewReader(`{"scope":"admin"}`))
	req.Header.Set("X-Admin-Key", "op-key")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRevokeShareRequiresFeedToken(t *testing.T) {
	r := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/share/revoke", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRevokeShareDropsToUnauthorized(t *testing.T) {
	r := setupTestRouter(t)

	token, err := middleware.IssueShareToken("traveler", middleware.ScopeFeed, time.Hour)
	require.NoError(t, err)

	monitor.GrantPermission()
	require.NoError(t, monitor.Subscribe())
	require.Equal(t, engine.Active, monitor.State())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/share/revoke", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.Unauthorized, monitor.State())
	assert.False(t, authority.HasLocationPermission())
}
