package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	GuestSessionHeader = "X-Guest-Session"
	guestSessionKey    = "guest_session"
	maxGuestSessionLen = 64
)

// GuestSession gives every request an anonymous cart session. The id comes
// from the X-Guest-Session header, or the guest query parameter for
// websocket clients; a fresh one is issued when neither is usable. The
// resulting id is echoed back in the response header.
func GuestSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := c.GetHeader(GuestSessionHeader)
		if session == "" {
			session = c.Query("guest")
		}
		if !validGuestSession(session) {
			session = uuid.NewString()
			GetLoggerFromContext(c).Debug("Issued guest session", map[string]interface{}{
				"guest_session": session,
			})
		}

		c.Set(guestSessionKey, session)
		c.Header(GuestSessionHeader, session)
		c.Next()
	}
}

func validGuestSession(s string) bool {
	if s == "" || len(s) > maxGuestSessionLen {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// GetGuestSession returns the anonymous session id set by GuestSession.
func GetGuestSession(c *gin.Context) string {
	return c.GetString(guestSessionKey)
}
