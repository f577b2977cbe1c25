// File: internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/firebase"
)

// AuthMiddleware creates a Gin middleware that authenticates requests with
// a Firebase ID token. Token cryptography is entirely the provider's
// concern; this only forwards the bearer token for verification.
func AuthMiddleware(fbService *firebase.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(common.AuthorizationHeader)
		if authHeader == "" {
			logger.Debug("Authorization header missing")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header is required."))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], common.AuthorizationTypeBearer) {
			logger.Debug("Authorization header format invalid")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		token, err := fbService.VerifyIDToken(c.Request.Context(), parts[1])
		if err != nil {
			logger.Warn("ID token verification failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired ID token."))
			return
		}

		email, _ := token.Claims["email"].(string)
		c.Set(common.FirebaseUIDKey, token.UID)
		c.Set(common.UserEmailKey, email)

		c.Next()
	}
}

// RoleResolver is the role surface the role middleware needs.
type RoleResolver interface {
	Resolve(ctx context.Context, email string) string
}

// RoleAuthMiddleware checks that the authenticated identity resolves to one
// of the allowed roles. Must run after AuthMiddleware.
func RoleAuthMiddleware(resolver RoleResolver, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := common.GetUserEmailFromContext(c)
		if email == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Authenticated email not found in context."))
			return
		}

		userRole := resolver.Resolve(c.Request.Context(), email)
		c.Set(common.UserRoleKey, userRole)

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}

		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
