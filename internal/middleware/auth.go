package middleware

import (
	"net/http"
	"strings"

	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CurrentUserKey is where the auth middleware stores the resolved
// *models.User in the gin context.
const CurrentUserKey = "current_user"

// AuthMiddleware is the gate in front of every protected route: it
// extracts the bearer token, verifies it, and resolves the subject to a
// user row. A missing header, a malformed or expired token and a valid
// token for a since-deleted user all produce the same 401 response so no
// detail leaks about which step failed.
func AuthMiddleware(db *gorm.DB, tokens *services.TokenService, users services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(c)
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		subject, err := tokens.Verify(tokenStr)
		if err != nil {
			unauthorized(c)
			return
		}

		user, err := users.FindByUsername(db, subject)
		if err != nil || user == nil {
			unauthorized(c)
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": "Could not validate credentials",
	})
}
