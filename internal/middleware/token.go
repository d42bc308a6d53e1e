package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Share-token scopes. A feed token lets a device stream location
// samples; a watch token lets a trusted contact receive assessments.
const (
	ScopeFeed  = "feed"
	ScopeWatch = "watch"
)

var secret = []byte(getTokenSecret())

func getTokenSecret() string {
	if val := os.Getenv("SHARE_TOKEN_SECRET"); val != "" {
		return val
	}
	return "supersecret" // fallback
}

// ShareClaims identify whose location is being shared and what the
// bearer may do with it.
type ShareClaims struct {
	TravelerKey string `json:"traveler_key"`
	Scope       string `json:"scope"`
	jwt.RegisteredClaims
}

// IssueShareToken signs a share token for the traveler and scope.
func IssueShareToken(travelerKey, scope string, ttl time.Duration) (string, error) {
	claims := ShareClaims{
		TravelerKey: travelerKey,
		Scope:       scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateShareToken parses and verifies a share token.
func ValidateShareToken(tokenStr string) (*ShareClaims, error) {
	claims := &ShareClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid share token")
	}
	return claims, nil
}

// RequireShareToken ensures a valid share token with the given scope
// is present, either as a Bearer header or a token query parameter
// (websocket clients cannot set headers).
func RequireShareToken(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing share token"})
			return
		}

		claims, err := ValidateShareToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired share token"})
			return
		}
		if claims.Scope != scope {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient share-token scope"})
			return
		}

		c.Set("traveler_key", claims.TravelerKey)
		c.Set("share_scope", claims.Scope)
		c.Next()
	}
}

// TokenAuthority implements the engine's permission query: location
// permission is considered granted while an unexpired feed token has
// been presented, and revoked when it lapses or is withdrawn.
type TokenAuthority struct {
	mu           sync.Mutex
	grantedUntil time.Time
}

// GrantUntil records a permission grant lasting until t.
func (a *TokenAuthority) GrantUntil(t time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t.After(a.grantedUntil) {
		a.grantedUntil = t
	}
}

// Revoke withdraws the grant immediately.
func (a *TokenAuthority) Revoke() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.grantedUntil = time.Time{}
}

// HasLocationPermission reports whether a grant is currently live.
func (a *TokenAuthority) HasLocationPermission() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return time.Now().Before(a.grantedUntil)
}
