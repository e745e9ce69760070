package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type leaveServiceStub struct {
	req    dto.SubmitLeaveRequest
	actor  *models.JWTClaims
	result *dto.SubmitLeaveResponse
	err    error
}

func (s *leaveServiceStub) SubmitLeave(ctx context.Context, req dto.SubmitLeaveRequest, actor *models.JWTClaims) (*dto.SubmitLeaveResponse, error) {
	s.req = req
	s.actor = actor
	return s.result, s.err
}

func TestLeaveHandlerSubmitCreated(t *testing.T) {
	stub := &leaveServiceStub{result: &dto.SubmitLeaveResponse{AbsenceID: "abs-1", PeriodsRequested: 2, PeriodsAssigned: 2, Message: "processed, 2 of 2 periods covered"}}
	h := NewLeaveHandler(stub)

	c, w := newTestContext(http.MethodPost, "/leaves", map[string]string{"teacherId": "T1", "date": "2024-06-10", "leaveType": "FULL_DAY"}, managerClaims())
	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "T1", stub.req.TeacherID)
	assert.Equal(t, "tenant-1", stub.actor.TenantID)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "abs-1", data["absenceId"])
	assert.Equal(t, float64(2), data["periodsAssigned"])
}

func TestLeaveHandlerSubmitDefaultsTeacherToCaller(t *testing.T) {
	stub := &leaveServiceStub{result: &dto.SubmitLeaveResponse{}}
	h := NewLeaveHandler(stub)

	c, w := newTestContext(http.MethodPost, "/leaves", map[string]string{"date": "2024-06-10", "leaveType": "ON_DUTY"}, teacherClaims("T9"))
	h.Submit(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "T9", stub.req.TeacherID)
}

func TestLeaveHandlerSubmitInvalidJSON(t *testing.T) {
	h := NewLeaveHandler(&leaveServiceStub{})
	c, w := newTestContext(http.MethodPost, "/leaves", "not-an-object", managerClaims())
	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(t, w))
}

func TestLeaveHandlerSubmitWindowClosed(t *testing.T) {
	h := NewLeaveHandler(&leaveServiceStub{err: appErrors.ErrSubmissionWindowClosed})
	c, w := newTestContext(http.MethodPost, "/leaves", map[string]string{"teacherId": "T1", "date": "2024-06-10", "leaveType": "FULL_DAY"}, teacherClaims("T1"))
	h.Submit(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, appErrors.ErrSubmissionWindowClosed.Code, errorCode(t, w))
}

func TestLeaveHandlerSubmitUnauthenticated(t *testing.T) {
	h := NewLeaveHandler(&leaveServiceStub{})
	c, w := newTestContext(http.MethodPost, "/leaves", map[string]string{}, nil)
	h.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
