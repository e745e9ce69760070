package service

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/dto"
	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

type substitutionFixture struct {
	svc      *SubstitutionService
	store    *memoryStore
	mock     sqlmock.Sqlmock
	notifier *notifierRecorder
	audit    *auditRecorder
}

func newSubstitutionFixture(t *testing.T, cfg models.AssignmentConfig) *substitutionFixture {
	t.Helper()
	store := newMemoryStore()
	store.addTeacher("T", "A")
	store.addTeacher("C1", "A")
	store.addTeacher("C2", "B")
	store.absences = []models.AbsenceRequest{{ID: "absence-0", TenantID: "tenant-1", TeacherID: "T", Date: monday, Periods: []int64{1, 2, 3, 4, 5, 6, 7, 8, 9}}}

	tx, mock := newTxProviderMock(t)
	notifier := &notifierRecorder{}
	audit := &auditRecorder{}
	svc := NewSubstitutionService(tx, store.stores(), staticConfigs{cfg: cfg}, nil,
		WithSubstitutionNotifier(notifier),
		WithSubstitutionAudit(audit),
		WithSubstitutionMetrics(NewMetricsService()),
		WithSubstitutionClock(func() time.Time { return time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC) }),
	)
	return &substitutionFixture{svc: svc, store: store, mock: mock, notifier: notifier, audit: audit}
}

// seed stores a record for period 2 of the absent teacher and reserves its substitute's workload.
func (f *substitutionFixture) seed(status models.SubstitutionStatus, substitute string) *models.SubstitutionRecord {
	record := models.SubstitutionRecord{
		ID:              "sub-seed",
		TenantID:        "tenant-1",
		AbsenceID:       strPtr("absence-0"),
		AbsentTeacherID: "T",
		ClassID:         "class-1",
		SubjectID:       "A",
		Date:            monday,
		PeriodNumber:    2,
		Status:          status,
	}
	if substitute != "" {
		record.SubstituteTeacherID = strPtr(substitute)
		record.Score = intPtr(85)
		f.store.setWorkload(substitute, monday, 1, 1)
	}
	return f.store.addRecord(record)
}

func TestConfirmBySubstitute(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")
	expectCommits(f.mock, 1)

	record, err := f.svc.Confirm(context.Background(), "sub-seed", teacherClaims("C1"))
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusConfirmed, record.Status)
	require.NotNil(t, record.ConfirmedAt)
	assert.Equal(t, []string{"SUBSTITUTION_CONFIRMED:T"}, f.notifier.events)
	assert.Equal(t, []string{models.AuditActionSubstitutionConfirm}, f.audit.actions())
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestConfirmRejectsOtherTeacher(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")

	_, err := f.svc.Confirm(context.Background(), "sub-seed", teacherClaims("C2"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestConfirmRejectsUnassigned(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusUnassigned, "")

	_, err := f.svc.Confirm(context.Background(), "sub-seed", managerClaims())
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestConfirmUnknownRecord(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())

	_, err := f.svc.Confirm(context.Background(), "missing", managerClaims())
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCancelReleasesWorkload(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusConfirmed, "C1")
	expectCommits(f.mock, 1)

	resp, err := f.svc.Cancel(context.Background(), "sub-seed", dto.CancelSubstitutionRequest{Reason: "assembly"}, managerClaims())
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusCancelled, resp.Cancelled.Status)
	assert.Equal(t, "assembly", *resp.Cancelled.CancelReason)
	assert.Nil(t, resp.Replacement)
	assert.Equal(t, 0, f.store.workloadOf("C1", monday).CurrentSubstitutions)
	assert.Equal(t, 0, f.store.workloadOf("C1", monday).PeriodsToday)
	assert.Equal(t, []string{"SUBSTITUTION_CANCELLED:C1"}, f.notifier.events)
}

func TestCancelWithRematchExcludesPreviousSubstitute(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")
	expectCommits(f.mock, 1)

	resp, err := f.svc.Cancel(context.Background(), "sub-seed", dto.CancelSubstitutionRequest{Reason: "clash", Rematch: true}, managerClaims())
	require.NoError(t, err)
	require.NotNil(t, resp.Replacement)
	assert.Equal(t, "C2", resp.Replacement.Substitute())
	assert.Equal(t, models.SubstitutionStatusPending, resp.Replacement.Status)
	assert.Equal(t, "sub-seed", *resp.Replacement.ReplacesID)
	assert.Equal(t, 1, f.store.workloadOf("C2", monday).CurrentSubstitutions)

	original := f.store.record("sub-seed")
	assert.Equal(t, models.Lineage{Kind: models.LineageSuperseded, SupersededBy: resp.Replacement.ID}, original.Lineage())
	assert.Equal(t, []string{"SUBSTITUTION_CANCELLED:C1", "SUBSTITUTION_ASSIGNED:C2"}, f.notifier.events)
}

func TestCancelRequiresManager(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")

	_, err := f.svc.Cancel(context.Background(), "sub-seed", dto.CancelSubstitutionRequest{Reason: "x"}, teacherClaims("C1"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestRequestReplacementAssignsNextBestSubstitute(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")
	expectCommits(f.mock, 1)

	resp, err := f.svc.RequestReplacement(context.Background(), "sub-seed", dto.RequestReplacementRequest{Reason: "clash"}, teacherClaims("C1"))
	require.NoError(t, err)
	assert.True(t, resp.Assigned)
	assert.Equal(t, models.SubstitutionStatusSubstituted, resp.Original.Status)
	require.NotNil(t, resp.Replacement)
	assert.Equal(t, models.SubstitutionStatusPending, resp.Replacement.Status)
	assert.Equal(t, "C2", resp.Replacement.Substitute())
	assert.Equal(t, "sub-seed", *resp.Replacement.ReplacesID)
	require.NotNil(t, resp.Original.SupersededByID)
	assert.Equal(t, resp.Replacement.ID, *resp.Original.SupersededByID)

	released := f.store.workloadOf("C1", monday)
	assert.Equal(t, 0, released.CurrentSubstitutions)
	assert.Equal(t, 0, released.PeriodsToday)
	reserved := f.store.workloadOf("C2", monday)
	assert.Equal(t, 1, reserved.CurrentSubstitutions)
	assert.Equal(t, 1, reserved.PeriodsToday)
	assert.Equal(t, []string{"SUBSTITUTION_REPLACED:C1", "SUBSTITUTION_ASSIGNED:C2"}, f.notifier.events)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRequestReplacementLeavesSuccessorUnassignedWhenNobodyQualifies(t *testing.T) {
	cfg := defaultAssignmentConfig()
	cfg.ExcludedTeacherIDs = []string{"C2"}
	f := newSubstitutionFixture(t, cfg)
	f.seed(models.SubstitutionStatusConfirmed, "C1")
	expectCommits(f.mock, 1)

	resp, err := f.svc.RequestReplacement(context.Background(), "sub-seed", dto.RequestReplacementRequest{Reason: "sick"}, teacherClaims("C1"))
	require.NoError(t, err)
	assert.False(t, resp.Assigned)
	assert.Equal(t, models.SubstitutionStatusSubstituted, resp.Original.Status)
	require.NotNil(t, resp.Replacement)
	assert.Equal(t, models.SubstitutionStatusUnassigned, resp.Replacement.Status)
	assert.Nil(t, resp.Replacement.SubstituteTeacherID)
	assert.Equal(t, resp.Replacement.ID, *resp.Original.SupersededByID)
	assert.Equal(t, 0, f.store.workloadOf("C1", monday).CurrentSubstitutions)
	assert.Equal(t, []string{"SUBSTITUTION_REPLACED:C1"}, f.notifier.events)
}

func TestRequestReplacementRejectsCompleted(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusCompleted, "C1")

	_, err := f.svc.RequestReplacement(context.Background(), "sub-seed", dto.RequestReplacementRequest{Reason: "late"}, managerClaims())
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestAssignManually(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusUnassigned, "")
	expectCommits(f.mock, 1)

	record, err := f.svc.AssignManually(context.Background(), "sub-seed", dto.ManualAssignRequest{SubstituteTeacherID: "C2"}, managerClaims())
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusPending, record.Status)
	assert.Equal(t, "C2", record.Substitute())
	assert.Equal(t, 35, *record.Score)
	assert.Equal(t, 1, f.store.workloadOf("C2", monday).CurrentSubstitutions)
}

func TestAssignManuallyRunsHardFilters(t *testing.T) {
	cases := map[string]RejectionReason{
		"T":     RejectionAbsentTeacher,
		"ghost": RejectionNotOnRoster,
	}
	for teacher, reason := range cases {
		t.Run(teacher, func(t *testing.T) {
			f := newSubstitutionFixture(t, defaultAssignmentConfig())
			f.seed(models.SubstitutionStatusUnassigned, "")
			f.mock.ExpectBegin()
			f.mock.ExpectRollback()

			_, err := f.svc.AssignManually(context.Background(), "sub-seed", dto.ManualAssignRequest{SubstituteTeacherID: teacher}, managerClaims())
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrNoEligibleCandidate)
			assert.Equal(t, string(reason), appErrors.FromError(err).Details["reason"])
			assert.Equal(t, models.SubstitutionStatusUnassigned, f.store.record("sub-seed").Status)
		})
	}
}

func TestRetryAssignment(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusUnassigned, "")
	expectCommits(f.mock, 1)

	resp, err := f.svc.RetryAssignment(context.Background(), "sub-seed", managerClaims())
	require.NoError(t, err)
	assert.True(t, resp.Assigned)
	assert.Equal(t, "C1", resp.Original.Substitute())
	assert.Equal(t, 85, *resp.Original.Score)
}

func TestRetryAssignmentWithoutCandidates(t *testing.T) {
	cfg := defaultAssignmentConfig()
	cfg.ExcludedTeacherIDs = []string{"C1", "C2"}
	f := newSubstitutionFixture(t, cfg)
	f.seed(models.SubstitutionStatusUnassigned, "")
	expectCommits(f.mock, 1)

	resp, err := f.svc.RetryAssignment(context.Background(), "sub-seed", managerClaims())
	require.NoError(t, err)
	assert.False(t, resp.Assigned)
	assert.Equal(t, models.SubstitutionStatusUnassigned, f.store.record("sub-seed").Status)
}

func TestCompleteKeepsWorkloadByDefault(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusConfirmed, "C1")
	expectCommits(f.mock, 1)

	record, err := f.svc.Complete(context.Background(), "sub-seed", dto.CompleteSubstitutionRequest{AttendanceTaken: true, LessonsCompleted: true, Notes: "chapter 4"}, teacherClaims("C1"))
	require.NoError(t, err)
	assert.Equal(t, models.SubstitutionStatusCompleted, record.Status)
	assert.True(t, record.AttendanceTaken)
	assert.Equal(t, "chapter 4", *record.CompletionNotes)
	assert.Equal(t, 1, f.store.workloadOf("C1", monday).CurrentSubstitutions)
	assert.Equal(t, 1, f.store.workloadOf("C1", monday).PeriodsToday)
}

func TestCompleteReleasesWhenConfigured(t *testing.T) {
	cfg := defaultAssignmentConfig()
	cfg.ReleaseOnComplete = true
	f := newSubstitutionFixture(t, cfg)
	f.seed(models.SubstitutionStatusConfirmed, "C1")
	expectCommits(f.mock, 1)

	_, err := f.svc.Complete(context.Background(), "sub-seed", dto.CompleteSubstitutionRequest{}, managerClaims())
	require.NoError(t, err)
	workload := f.store.workloadOf("C1", monday)
	assert.Equal(t, 0, workload.CurrentSubstitutions)
	assert.Equal(t, 1, workload.PeriodsToday, "the covered period was still taught")
}

func TestCancelReportsAllowedSources(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusCompleted, "C1")

	_, err := f.svc.Cancel(context.Background(), "sub-seed", dto.CancelSubstitutionRequest{Reason: "late"}, managerClaims())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	assert.Equal(t, []models.SubstitutionStatus{models.SubstitutionStatusPending, models.SubstitutionStatusConfirmed},
		appErrors.FromError(err).Details["allowed_from"])
	assert.Equal(t, 1, f.store.workloadOf("C1", monday).CurrentSubstitutions)
}

func TestCompleteRequiresConfirmation(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")

	_, err := f.svc.Complete(context.Background(), "sub-seed", dto.CompleteSubstitutionRequest{}, managerClaims())
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
}

func TestGetScopesTeachers(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")

	detail, err := f.svc.Get(context.Background(), "sub-seed", teacherClaims("T"))
	require.NoError(t, err)
	assert.Equal(t, models.LineageActive, detail.Lineage.Kind)

	_, err = f.svc.Get(context.Background(), "sub-seed", teacherClaims("C2"))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestListScopesTeachers(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.seed(models.SubstitutionStatusPending, "C1")
	f.store.addRecord(models.SubstitutionRecord{ID: "other", TenantID: "tenant-1", AbsentTeacherID: "C2", Date: monday, PeriodNumber: 5, Status: models.SubstitutionStatusUnassigned})

	all, page, err := f.svc.List(context.Background(), dto.SubstitutionQuery{Date: "2024-06-10"}, managerClaims())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, page.TotalCount)

	mine, _, err := f.svc.List(context.Background(), dto.SubstitutionQuery{}, teacherClaims("C1"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "sub-seed", mine[0].ID)
}

func TestCandidatesExplainsEveryTeacher(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.store.setWorkload("C2", monday, 2, 0)

	evaluations, err := f.svc.Candidates(context.Background(), dto.CandidateQuery{
		Date: "2024-06-10", PeriodNumber: 4, SubjectID: "B", AbsentTeacherID: "T",
	}, managerClaims())
	require.NoError(t, err)
	require.Len(t, evaluations, 3)

	assert.Equal(t, "C2", evaluations[0].TeacherID)
	assert.True(t, evaluations[0].Selected)
	assert.Equal(t, 55, evaluations[0].Score)
	assert.Equal(t, "C1", evaluations[1].TeacherID)
	assert.False(t, evaluations[1].Selected)
	assert.Equal(t, "T", evaluations[2].TeacherID)
	assert.Equal(t, string(RejectionAbsentTeacher), evaluations[2].Rejection)
}

func TestCandidatesProjectsTimetableForUntrackedTeachers(t *testing.T) {
	f := newSubstitutionFixture(t, defaultAssignmentConfig())
	f.store.setWorkload("C2", monday, 2, 0)
	f.store.slots = []models.TimetableSlot{
		{ID: "c1-1", TeacherID: "C1", DayOfWeek: 1, PeriodNumber: 1, ClassID: "class-4", SubjectID: "A"},
		{ID: "c1-3", TeacherID: "C1", DayOfWeek: 1, PeriodNumber: 3, ClassID: "class-4", SubjectID: "A"},
		{ID: "c1-5", TeacherID: "C1", DayOfWeek: 1, PeriodNumber: 5, ClassID: "class-4", SubjectID: "A"},
		{ID: "c1-tue", TeacherID: "C1", DayOfWeek: 2, PeriodNumber: 4, ClassID: "class-4", SubjectID: "A"},
	}

	evaluations, err := f.svc.Candidates(context.Background(), dto.CandidateQuery{
		Date: "2024-06-10", PeriodNumber: 4, SubjectID: "B", AbsentTeacherID: "T",
	}, managerClaims())
	require.NoError(t, err)
	require.Len(t, evaluations, 3)

	assert.Equal(t, "C2", evaluations[0].TeacherID)
	assert.Equal(t, "C1", evaluations[1].TeacherID)
	assert.Equal(t, 3, evaluations[1].PeriodsToday)
	assert.Equal(t, 20, evaluations[1].Score)

	f.store.mu.Lock()
	_, tracked := f.store.workload[workloadKey("C1", monday)]
	f.store.mu.Unlock()
	assert.False(t, tracked)
}
