package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saurus21/agua-rural-api/config"
	"github.com/Saurus21/agua-rural-api/services"
)

func setupAuthTest(t *testing.T) *config.Config {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWTSecretKey: "test-secret",
		JWTIssuer:    "agua-rural-api",
		JWTAudience:  "agua-rural-app",
	}
	InitAuthMiddleware(cfg)
	return cfg
}

func authRouter() *gin.Engine {
	r := gin.New()
	r.GET("/protected", Authentication(), func(c *gin.Context) {
		actor, _ := GetActor(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role})
	})
	r.GET("/admin-only", Authentication(), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthenticationMissingHeader(t *testing.T) {
	setupAuthTest(t)
	r := authRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authorization header is required")
}

func TestAuthenticationInvalidToken(t *testing.T) {
	setupAuthTest(t)
	r := authRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticationValidToken(t *testing.T) {
	cfg := setupAuthTest(t)
	r := authRouter()

	token, err := services.NewJWTService(cfg).GenerateToken(7, "lector@aguarural.cl", "lector")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Contains(t, w.Body.String(), `"role":"lector"`)
}

func TestRequireAdminRejectsLector(t *testing.T) {
	cfg := setupAuthTest(t)
	r := authRouter()

	token, err := services.NewJWTService(cfg).GenerateToken(7, "lector@aguarural.cl", "lector")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdminAllowsAdmin(t *testing.T) {
	cfg := setupAuthTest(t)
	r := authRouter()

	token, err := services.NewJWTService(cfg).GenerateToken(1, "admin@aguarural.cl", "admin")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin-only", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
