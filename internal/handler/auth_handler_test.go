package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type authServiceStub struct {
	req models.LoginRequest
	res *models.LoginResponse
	err error
}

func (s *authServiceStub) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	s.req = req
	return s.res, s.err
}

func TestAuthHandlerLogin(t *testing.T) {
	stub := &authServiceStub{res: &models.LoginResponse{AccessToken: "token"}}
	h := NewAuthHandler(stub)

	c, w := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "admin@school.id", "password": "secret123"}, nil)
	c.Request.Header.Set("User-Agent", "handler-test")
	h.Login(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@school.id", stub.req.Email)
	assert.Equal(t, "handler-test", stub.req.UserAgent)
}

func TestAuthHandlerLoginInvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{err: appErrors.ErrInvalidCredentials})

	c, w := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "admin@school.id", "password": "nope"}, nil)
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, errorCode(t, w))
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{})

	c, w := newTestContext(http.MethodGet, "/auth/me", nil, teacherClaims("T1"))
	h.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "T1", data["teacher_id"])
}
