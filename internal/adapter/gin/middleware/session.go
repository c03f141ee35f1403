package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"user-table/pkg/logger"
)

const sessionIDKey = "session_id"

// SessionConfig describes the browser session cookie.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session gives every browser a session id kept in an HttpOnly cookie. Ids that are
// not UUIDs are replaced. The cookie is refreshed on every request.
func Session(cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if cookie, err := c.Request.Cookie(cfg.CookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		setSessionCookie(c, cfg, id, int(cfg.TTL.Seconds()))
		c.Set(sessionIDKey, id)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), id))
		c.Next()
	}
}

// SessionID returns the id assigned by the Session middleware.
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// ClearSession expires the session cookie so the next request starts a new session.
func ClearSession(c *gin.Context, cfg SessionConfig) {
	setSessionCookie(c, cfg, "", -1)
}

func setSessionCookie(c *gin.Context, cfg SessionConfig, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
