package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"travel_guard/internal/engine"
	"travel_guard/internal/middleware"
	"travel_guard/internal/store"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

// LocationPayload is the incoming JSON from the device feed. The
// capture time may arrive as epoch milliseconds or as an RFC3339
// timestamp string; the custom unmarshaler normalizes both.
type LocationPayload struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	CapturedAtMs int64   `json:"captured_at_ms"`
}

// UnmarshalJSON accepts either captured_at_ms or a textual timestamp
// field, assuming UTC when the string carries no zone suffix.
func (lp *LocationPayload) UnmarshalJSON(data []byte) error {
	type alias LocationPayload
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{alias: (*alias)(lp)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if lp.CapturedAtMs != 0 || aux.Timestamp == "" {
		return nil
	}

	ts := aux.Timestamp
	if !(strings.HasSuffix(ts, "Z") || strings.ContainsAny(ts[max(0, len(ts)-6):], "+-")) {
		ts += "Z"
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", aux.Timestamp, err)
	}
	lp.CapturedAtMs = t.UnixMilli()
	return nil
}

// WatchHub manages trusted-contact WebSocket connections and fans out
// each published assessment.
type WatchHub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan engine.Assessment
	mu        sync.Mutex
}

// NewWatchHub creates a hub and starts its broadcast goroutine.
func NewWatchHub() *WatchHub {
	hub := &WatchHub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan engine.Assessment, 100),
	}
	go hub.run()
	return hub
}

func (h *WatchHub) run() {
	for a := range h.broadcast {
		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteJSON(a); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).
						Info("Watcher connection closed during broadcast, unregistering.")
				} else {
					logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).
						Warn("Failed to send assessment to watcher.")
				}
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

// Register adds a watcher connection.
func (h *WatchHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Watcher registered with WatchHub.")
}

// Unregister removes a watcher connection.
func (h *WatchHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Watcher unregistered from WatchHub.")
}

// Publish queues an assessment for fan-out; drops when the channel is
// full rather than blocking the callback path.
func (h *WatchHub) Publish(a engine.Assessment) {
	select {
	case h.broadcast <- a:
	default:
		logrus.Warn("Assessment broadcast channel full, dropping update.")
	}
}

var watchHub = NewWatchHub()

// PublishAssessment is the engine's publish hook.
func PublishAssessment(a engine.Assessment) {
	watchHub.Publish(a)
}

// authenticateShareSocket validates the share token from the query
// string, since websocket clients cannot set headers reliably.
func authenticateShareSocket(c *gin.Context, scope string) (*middleware.ShareClaims, error) {
	tokenString := c.Query("token")
	if tokenString == "" {
		return nil, errors.New("missing share token")
	}
	claims, err := middleware.ValidateShareToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("invalid share token: %w", err)
	}
	if claims.Scope != scope {
		return nil, fmt.Errorf("share token lacks %q scope", scope)
	}
	return claims, nil
}

// HandleFeedWebSocket accepts the device's location stream. A valid
// feed token is the permission grant; the engine subscribes through
// the push provider and every parsed sample is delivered to it.
// @Summary Device location feed
// @Router /ws/feed [get]
// @Param token query string true "feed share token"
func HandleFeedWebSocket(c *gin.Context) {
	claims, err := authenticateShareSocket(c, middleware.ScopeFeed)
	if err != nil {
		logrus.WithError(err).Warn("Feed WebSocket connection rejected.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	authority.GrantUntil(claims.ExpiresAt.Time)
	monitor.GrantPermission()
	if err := monitor.Subscribe(); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, engine.ErrPermissionDenied) {
			status = http.StatusForbidden
		}
		logrus.WithError(err).Warn("Engine subscription failed for feed connection.")
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade feed WebSocket connection.")
		return
	}
	defer conn.Close()
	defer monitor.Unsubscribe()

	conn.WriteJSON(gin.H{"status": "subscribed", "request": feed.Request()})
	logrus.WithFields(logrus.Fields{
		"traveler_key": claims.TravelerKey,
		"conn_ptr":     fmt.Sprintf("%p", conn),
	}).Info("Feed WebSocket connection established.")

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("traveler_key", claims.TravelerKey).Info("Feed WebSocket closed.")
			} else {
				logrus.WithError(err).Error("Error reading feed WebSocket message.")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if time.Now().After(claims.ExpiresAt.Time) {
			authority.Revoke()
			monitor.RevokePermission()
			conn.WriteJSON(gin.H{"error": "Share token expired, location sharing stopped."})
			logrus.WithField("traveler_key", claims.TravelerKey).
				Info("Feed token expired mid-stream, permission revoked.")
			break
		}
		processFeedSample(conn, p)
	}
}

// processFeedSample parses one payload and pushes it to the engine.
func processFeedSample(conn *websocket.Conn, p []byte) {
	var payload LocationPayload
	if err := json.Unmarshal(p, &payload); err != nil {
		logrus.WithError(err).WithField("payload", string(p)).
			Error("Error unmarshaling location payload from feed.")
		conn.WriteJSON(gin.H{"error": "Invalid location payload. Check timestamp format."})
		return
	}

	delivered := feed.Deliver(store.Sample{
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		CapturedAtMs: payload.CapturedAtMs,
	})
	if !delivered {
		conn.WriteJSON(gin.H{"error": "No active monitoring subscription."})
		return
	}
	conn.WriteJSON(gin.H{"status": "received"})
}

// HandleWatchWebSocket registers a trusted contact for assessment
// fan-out. Watchers only listen; anything they send is discarded.
// @Summary Trusted-contact assessment stream
// @Router /ws/watch [get]
// @Param token query string true "watch share token"
func HandleWatchWebSocket(c *gin.Context) {
	claims, err := authenticateShareSocket(c, middleware.ScopeWatch)
	if err != nil {
		logrus.WithError(err).Warn("Watch WebSocket connection rejected.")
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade watch WebSocket connection.")
		return
	}
	defer conn.Close()

	watchHub.Register(conn)
	defer watchHub.Unregister(conn)

	// Latest snapshot immediately so new watchers are not blind until
	// the next sample arrives.
	conn.WriteJSON(monitor.CurrentAssessment())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Error("Error reading watch WebSocket message.")
			}
			break
		}
		logrus.WithField("traveler_key", claims.TravelerKey).
			Warn("Watcher sent unexpected message. Ignoring.")
	}
}

// RevokeShare withdraws location permission immediately. The active
// subscription is released and later callbacks are ignored.
// @Summary Revoke location sharing
// @Router /share/revoke [post]
func RevokeShare(c *gin.Context) {
	authority.Revoke()
	monitor.RevokePermission()
	logrus.Info("Location sharing revoked via API.")
	c.JSON(http.StatusOK, gin.H{"status": "revoked", "state": monitor.State().String()})
}
