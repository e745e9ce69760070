package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
)

func TestTeacherRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "full_name", "email", "subject_id", "active", "created_at", "updated_at"}).
		AddRow("teacher-c1", "tenant-1", "Citra", "citra@school.id", "subject-a", true, now, now).
		AddRow("teacher-c2", "tenant-1", "Dewi", "dewi@school.id", nil, true, now, now)
	mock.ExpectQuery("FROM teachers WHERE tenant_id = \\$1 AND active = TRUE").
		WithArgs("tenant-1").
		WillReturnRows(rows)

	teachers, err := repo.ListActive(context.Background(), nil, "tenant-1")
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "subject-a", teachers[0].PrimarySubject())
	assert.Equal(t, "", teachers[1].PrimarySubject())
}

func TestClassRepositoryGetClassTeacher(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT class_teacher_id FROM classes").
		WithArgs("tenant-1", "class-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_teacher_id"}).AddRow("teacher-c1"))
	teacherID, err := repo.GetClassTeacher(context.Background(), nil, "tenant-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, "teacher-c1", teacherID)

	mock.ExpectQuery("SELECT class_teacher_id FROM classes").
		WithArgs("tenant-1", "class-404").
		WillReturnRows(sqlmock.NewRows([]string{"class_teacher_id"}))
	teacherID, err = repo.GetClassTeacher(context.Background(), nil, "tenant-1", "class-404")
	require.NoError(t, err)
	assert.Empty(t, teacherID)
}

func TestTimetableRepositoryQueries(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectQuery("FROM timetable_slots WHERE tenant_id = \\$1 AND teacher_id = \\$2 AND day_of_week = \\$3").
		WithArgs("tenant-1", "teacher-absent", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "teacher_id", "day_of_week", "period_number", "class_id", "subject_id", "room"}).
			AddRow("slot-2", "tenant-1", "teacher-absent", 1, 2, "class-1", "subject-a", "R1").
			AddRow("slot-4", "tenant-1", "teacher-absent", 1, 4, "class-2", "subject-b", "R2"))
	slots, err := repo.ListByTeacherDay(context.Background(), "tenant-1", "teacher-absent", 1)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, 4, slots[1].PeriodNumber)

	mock.ExpectQuery("SELECT DISTINCT teacher_id FROM timetable_slots").
		WithArgs("tenant-1", 1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow("teacher-absent").AddRow("teacher-x"))
	busy, err := repo.ListBusyTeachers(context.Background(), nil, "tenant-1", 1, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"teacher-absent", "teacher-x"}, busy)

	mock.ExpectQuery("SELECT teacher_id, COUNT\\(\\*\\) AS periods FROM timetable_slots").
		WithArgs("tenant-1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id", "periods"}).AddRow("teacher-absent", 2).AddRow("teacher-x", 5))
	counts, err := repo.CountByDay(context.Background(), nil, "tenant-1", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"teacher-absent": 2, "teacher-x": 5}, counts)
}

func TestAbsenceRepositoryCreateAndListAbsent(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewAbsenceRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO absence_requests").WillReturnResult(sqlmock.NewResult(0, 1))
	absence := &models.AbsenceRequest{
		TenantID:    "tenant-1",
		TeacherID:   "teacher-absent",
		Date:        date,
		LeaveType:   models.LeaveTypeOnDuty,
		RequestedBy: "user-1",
		Periods:     []int64{1, 2, 3, 4, 5, 6, 7, 8, 9},
	}
	require.NoError(t, repo.Create(context.Background(), nil, absence))
	assert.NotEmpty(t, absence.ID)

	mock.ExpectQuery("SELECT DISTINCT teacher_id FROM absence_requests").
		WithArgs("tenant-1", date, 2).
		WillReturnRows(sqlmock.NewRows([]string{"teacher_id"}).AddRow("teacher-absent"))
	absent, err := repo.ListAbsentTeachers(context.Background(), nil, "tenant-1", date, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"teacher-absent"}, absent)
}

func TestAuditAndNotificationRepositoriesInsert(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO audit_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, NewAuditRepository(db).CreateAuditLog(context.Background(), &models.AuditLog{
		TenantID: "tenant-1",
		Action:   models.AuditActionSubstitutionConfirm,
		Resource: "substitution",
	}))

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	notification := &models.Notification{TenantID: "tenant-1", RecipientID: "teacher-c1", EventType: models.NotificationSubstitutionAssigned}
	require.NoError(t, NewNotificationRepository(db).Create(context.Background(), notification))
	assert.JSONEq(t, "{}", string(notification.Payload))
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewUserRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "email", "password_hash", "full_name", "role", "teacher_id", "active", "last_login", "created_at", "updated_at"}).
		AddRow("user-1", "tenant-1", "citra@school.id", "hash", "Citra", "TEACHER", "teacher-c1", true, nil, now, now)
	mock.ExpectQuery("FROM users WHERE email").WithArgs("citra@school.id").WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "citra@school.id")
	require.NoError(t, err)
	require.NotNil(t, user.TeacherID)
	assert.Equal(t, "teacher-c1", *user.TeacherID)
	assert.Equal(t, models.RoleTeacher, user.Role)
}
