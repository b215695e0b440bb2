package httpserver

import (
	"net/http"

	"inkblot-storefront/internal/service/profile"

	"github.com/gin-gonic/gin"
)

const profileCtxKey = "profileID"

// profileMiddleware resolves the browser profile from its cookie, issuing a
// new one when the cookie is missing or was not minted here.
func profileMiddleware(svc profileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(profile.CookieName)
		id, ok := svc.Recognise(raw)
		if !ok {
			id = svc.Issue()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(profile.CookieName, id, svc.TTLSeconds(), "/", "", c.Request.TLS != nil, true)
		}
		c.Set(profileCtxKey, id)
		c.Next()
	}
}

func profileID(c *gin.Context) string {
	return c.GetString(profileCtxKey)
}
