package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partsdesk/backend/internal/infrastructure/auth"
	"github.com/partsdesk/backend/internal/infrastructure/logger"
	"github.com/partsdesk/backend/internal/interfaces/http/dto"
)

// IdentityKey is the gin context key holding the verified caller identity
const IdentityKey = "identity"

const bearerPrefix = "Bearer "

// Authenticate verifies the bearer token and stores the caller's identity
// in the context. Requests without a valid token are rejected.
func Authenticate(jwtService *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := identityFromHeader(c, jwtService)
		if err != nil {
			if log != nil {
				log.Warn("Authentication failed",
					zap.Error(err),
					zap.String("path", c.Request.URL.Path))
			}
			code := dto.ErrCodeTokenInvalid
			message := "Invalid token"
			switch err {
			case auth.ErrExpiredToken:
				code = dto.ErrCodeTokenExpired
				message = "Token has expired"
			case errMissingToken:
				code = dto.ErrCodeUnauthorized
				message = "Authentication required"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
			return
		}

		c.Set(IdentityKey, identity)

		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), identity.UserID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// OptionalAuthenticate extracts the caller's identity when a valid token
// is present and continues anonymously otherwise. Used on capture
// endpoints that serve both guests and signed-in users.
func OptionalAuthenticate(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, err := identityFromHeader(c, jwtService); err == nil {
			c.Set(IdentityKey, identity)
		}
		c.Next()
	}
}

var errMissingToken = authError("missing bearer token")

type authError string

func (e authError) Error() string { return string(e) }

func identityFromHeader(c *gin.Context, jwtService *auth.JWTService) (*auth.Identity, error) {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, bearerPrefix) {
		return nil, errMissingToken
	}
	tokenString := strings.TrimPrefix(header, bearerPrefix)
	if tokenString == "" {
		return nil, errMissingToken
	}
	return jwtService.VerifyToken(tokenString)
}

// RequireRoles rejects callers whose role is not in the allowed set. It
// must run after Authenticate.
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if _, ok := allowed[identity.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Insufficient role", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// GetIdentity returns the verified caller identity, or nil for anonymous
// requests
func GetIdentity(c *gin.Context) *auth.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		if identity, ok := v.(*auth.Identity); ok {
			return identity
		}
	}
	return nil
}
