package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/stwalsh4118/grooveray/internal/logger"
)

// RateLimit allows requests per window for each client. Authenticated
// clients are keyed by user id, anonymous ones by IP.
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	limiter := httprate.Limit(requests, window,
		httprate.WithKeyFuncs(keyByUserOrIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Log.Warn().
				Str("path", r.URL.Path).
				Str("client", clientKey(r)).
				Msg("Rate limit exceeded")

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limited","message":"Too many requests","retryable":true}`))
		}),
	)

	return func(c *gin.Context) {
		allowed := false
		limiter(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			allowed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !allowed {
			c.Abort()
			return
		}
		c.Next()
	}
}

func keyByUserOrIP(r *http.Request) (string, error) {
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + userID, nil
	}
	ip, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip, nil
}

func clientKey(r *http.Request) string {
	key, err := keyByUserOrIP(r)
	if err != nil {
		return "unknown"
	}
	return key
}
