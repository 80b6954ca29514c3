package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stwalsh4118/grooveray/internal/config"
	"github.com/stwalsh4118/grooveray/internal/logger"
)

// ContextUserID is the gin context key holding the authenticated user id
const ContextUserID = "user_id"

type userIDKey struct{}

// Authentication errors
var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingUser  = errors.New("token carries no user id")
)

// Authenticator verifies HMAC-signed JWTs issued by the account service and
// extracts the user id. The id comes from the configured claim, falling back
// to the standard "sub" claim.
type Authenticator struct {
	secret []byte
	claim  string
}

// NewAuthenticator creates an authenticator from the auth configuration
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	claim := cfg.UserClaim
	if claim == "" {
		claim = "userId"
	}
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		claim:  claim,
	}
}

// RequireAuth rejects requests without a valid token
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := a.authenticateRequest(c)
		if err != nil {
			logger.Log.Debug().
				Err(err).
				Str("path", c.Request.URL.Path).
				Msg("Rejected unauthenticated request")
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		setUserID(c, userID)
		c.Next()
	}
}

// OptionalAuth records the user id when a valid token is present and lets
// every request through
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, err := a.authenticateRequest(c); err == nil {
			setUserID(c, userID)
		}
		c.Next()
	}
}

// Authenticate validates a raw token and returns its user id
func (a *Authenticator) Authenticate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	if userID := claimString(claims[a.claim]); userID != "" {
		return userID, nil
	}
	if userID := claimString(claims["sub"]); userID != "" {
		return userID, nil
	}
	return "", ErrMissingUser
}

// authenticateRequest reads the token from the Authorization header or,
// for EventSource and websocket clients that cannot set headers, the
// "token" query parameter
func (a *Authenticator) authenticateRequest(c *gin.Context) (string, error) {
	var tokenString string

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if tokenString == "" {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		return "", ErrMissingToken
	}

	return a.Authenticate(tokenString)
}

func claimString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

func setUserID(c *gin.Context, userID string) {
	c.Set(ContextUserID, userID)
	c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), userID))
}

// UserID returns the authenticated user id of the request
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return "", false
	}
	userID, ok := v.(string)
	return userID, ok && userID != ""
}

// WithUserID stores a user id in ctx
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the user id stored by WithUserID
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok && userID != ""
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     code,
		"message":   message,
		"retryable": false,
	})
}
