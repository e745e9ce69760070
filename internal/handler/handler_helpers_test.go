package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/middleware"
	"github.com/noah-isme/sma-substitution-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	payload := decodeEnvelope(t, w)
	errBody, ok := payload["error"].(map[string]interface{})
	require.True(t, ok, "expected error envelope, got %s", w.Body.String())
	return errBody["code"].(string)
}

func managerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-admin", TenantID: "tenant-1", Role: models.RoleAdmin}
}

func teacherClaims(teacherID string) *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-" + teacherID, TenantID: "tenant-1", Role: models.RoleTeacher, TeacherID: teacherID}
}
