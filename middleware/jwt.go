package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/models"
	"github.com/Saurus21/agua-rural-api/scope"
	"github.com/Saurus21/agua-rural-api/services"
)

var jwtService services.InterfaceJWTService

// InitAuthMiddleware wires the JWT service used by the auth middleware.
func InitAuthMiddleware(cfg *config.Config) {
	jwtService = services.NewJWTService(cfg)
}

// extractToken strips the "Bearer " prefix from an Authorization header.
func extractToken(authHeader string) string {
	if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
		return authHeader[7:]
	}
	return authHeader
}

// Authentication validates the bearer token and stores the actor identity
// in the request context.
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		claims, err := jwtService.ExtractClaims(extractToken(authHeader))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("actor", scope.Actor{UserID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// It must run after Authentication.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated actor from the request context.
func GetActor(c *gin.Context) (scope.Actor, bool) {
	value, exists := c.Get("actor")
	if !exists {
		return scope.Actor{}, false
	}
	actor, ok := value.(scope.Actor)
	return actor, ok
}
