package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetTokenCookie stores the access token as an HttpOnly cookie.
// Release mode serves a cross-origin frontend and needs SameSite=None with Secure.
func SetTokenCookie(c *gin.Context, token string, ttl time.Duration) {
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearTokenCookie removes the access_token cookie
func ClearTokenCookie(c *gin.Context) {
	sameSite, secure := cookieMode()
	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}

func cookieMode() (http.SameSite, bool) {
	if gin.Mode() == gin.ReleaseMode {
		return http.SameSiteNoneMode, true
	}
	return http.SameSiteLaxMode, false
}
