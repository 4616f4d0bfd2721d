package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Saurus21/agua-rural-api/apperrors"
	"github.com/Saurus21/agua-rural-api/config"
)

func respondErrorStatus(t *testing.T, cfg *config.Config, err error) (int, string) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/api/test", nil)

	respondError(ctx, cfg, err)
	return w.Code, w.Body.String()
}

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperrors.Validation("value is required"), http.StatusBadRequest},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", apperrors.Forbidden("not your meter"), http.StatusForbidden},
		{"not found", apperrors.NotFound("meter not found"), http.StatusNotFound},
		// Duplicate unique fields are input errors, not 409s.
		{"conflict", apperrors.Conflict("serial already registered"), http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, _ := respondErrorStatus(t, &config.Config{EnvType: "production"}, tc.err)
			assert.Equal(t, tc.status, status)
		})
	}
}

func TestRespondErrorHidesInternalCauseInProduction(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	status, body := respondErrorStatus(t, &config.Config{EnvType: "production"}, cause)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "connection refused")

	status, body = respondErrorStatus(t, &config.Config{EnvType: "development"}, cause)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "connection refused")
}
