package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsdesk/backend/internal/infrastructure/auth"
	"github.com/partsdesk/backend/internal/infrastructure/config"
)

func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:          "0123456789abcdef0123456789abcdef",
		TokenExpiration: time.Hour,
		Issuer:          "partsdesk-test",
	})
}

func authRouter(jwtService *auth.JWTService, roles ...auth.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", Authenticate(jwtService, nil))
	if len(roles) > 0 {
		group.Use(RequireRoles(roles...))
	}
	group.GET("/whoami", func(c *gin.Context) {
		identity := GetIdentity(c)
		c.JSON(http.StatusOK, gin.H{"email": identity.Email, "role": string(identity.Role)})
	})
	return r
}

func TestAuthenticate(t *testing.T) {
	jwtService := testJWTService()

	t.Run("valid token passes identity through", func(t *testing.T) {
		token, _, err := jwtService.GenerateToken(uuid.New(), "dana@acme-hw.example", auth.RoleBuyer)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		authRouter(jwtService).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "dana@acme-hw.example")
		assert.Contains(t, w.Body.String(), "BUYER")
	})

	t.Run("missing header is 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		authRouter(jwtService).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("garbage token is 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		authRouter(jwtService).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("token from another secret is 401", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{
			Secret:          "ffffffffffffffffffffffffffffffff",
			TokenExpiration: time.Hour,
			Issuer:          "partsdesk-test",
		})
		token, _, err := other.GenerateToken(uuid.New(), "x@y.example", auth.RoleBuyer)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		authRouter(jwtService).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRoles(t *testing.T) {
	jwtService := testJWTService()
	router := authRouter(jwtService, auth.RoleSuperAdmin, auth.RoleSalesperson)

	t.Run("allowed role passes", func(t *testing.T) {
		token, _, err := jwtService.GenerateToken(uuid.New(), "rep@partsdesk.example", auth.RoleSalesperson)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("excluded role is 403", func(t *testing.T) {
		token, _, err := jwtService.GenerateToken(uuid.New(), "buyer@acme-hw.example", auth.RoleBuyer)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_FORBIDDEN")
	})
}

func TestOptionalAuthenticate(t *testing.T) {
	jwtService := testJWTService()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/maybe", OptionalAuthenticate(jwtService), func(c *gin.Context) {
		if identity := GetIdentity(c); identity != nil {
			c.String(http.StatusOK, identity.Email)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})

	t.Run("anonymous continues", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/maybe", nil))
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("invalid token continues anonymously", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer junk")
		r.ServeHTTP(w, req)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("valid token yields identity", func(t *testing.T) {
		token, _, err := jwtService.GenerateToken(uuid.New(), "dana@acme-hw.example", auth.RoleBuyer)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, "dana@acme-hw.example", w.Body.String())
	})
}
