package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/voxhub/backend/internal/application/services"
	"github.com/voxhub/backend/pkg/auth"
	"github.com/voxhub/backend/pkg/constants"
)

// RequireAuth is a middleware that validates JWT tokens
func RequireAuth(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from Authorization header
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				constants.ResponseError: "Unauthorized",
				constants.FieldMessage:  "No authorization token provided",
				"code":                  "UNAUTHORIZED",
				"data":                  nil,
			})
			c.Abort()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				constants.ResponseError: "Unauthorized",
				constants.FieldMessage:  "Invalid authorization header format",
				"code":                  "UNAUTHORIZED",
				"data":                  nil,
			})
			c.Abort()
			return
		}

		tokenString := parts[1]

		// Validate token and session via AuthService
		claims, err := authSvc.ValidateSession(c.Request.Context(), tokenString)
		if err != nil {
			// 401 is safe for all session failures
			c.JSON(http.StatusUnauthorized, gin.H{
				constants.ResponseError: "Unauthorized",
				constants.FieldMessage:  err.Error(),
				"code":                  "UNAUTHORIZED",
				"data":                  nil,
			})
			c.Abort()
			return
		}

		// Update last activity (fire and forget)
		authSvc.TouchSession(claims.RegisteredClaims.ID)

		// Set user session in context
		c.Set(constants.ContextKeyUser, claims.User)
		c.Set(constants.ContextKeyToken, tokenString)

		c.Next()
	}
}

func forbid(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{
		constants.ResponseError: "Forbidden",
		constants.FieldMessage:  message,
		"code":                  "FORBIDDEN",
		"data":                  nil,
	})
	c.Abort()
}

func sessionFromContext(c *gin.Context) (auth.UserSession, bool) {
	userInterface, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			constants.ResponseError: "Unauthorized",
			constants.FieldMessage:  "User not authenticated",
			"code":                  "UNAUTHORIZED",
			"data":                  nil,
		})
		c.Abort()
		return auth.UserSession{}, false
	}
	return userInterface.(auth.UserSession), true
}

// RequireTenantAdmin allows tenant admins and platform admins through
func RequireTenantAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessionFromContext(c)
		if !ok {
			return
		}
		if !user.IsTenantAdmin() {
			forbid(c, "Only tenant administrators can access this resource")
			return
		}
		c.Next()
	}
}

// RequirePlatformAdmin restricts a route to cross-tenant operators
func RequirePlatformAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessionFromContext(c)
		if !ok {
			return
		}
		if !user.IsPlatformAdmin() {
			forbid(c, "Only platform administrators can access this resource")
			return
		}
		c.Next()
	}
}
