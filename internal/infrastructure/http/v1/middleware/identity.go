package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "mercator/internal/core/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRoles = "X-User-Roles"
)

// Identity middleware reads user identity from gateway-provided headers
// and places it in the request context. Authentication itself happens
// upstream; this service only attributes actions to the caller.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			c.Next()
			return
		}

		var roles []string
		if raw := c.GetHeader(HeaderUserRoles); raw != "" {
			for _, r := range strings.Split(raw, ",") {
				if r = strings.TrimSpace(r); r != "" {
					roles = append(roles, r)
				}
			}
		}

		user := &appctx.UserContext{
			UserID: userID,
			Email:  c.GetHeader(HeaderUserEmail),
			Roles:  roles,
		}
		for _, r := range roles {
			if r == "admin" {
				user.IsAdmin = true
			}
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
