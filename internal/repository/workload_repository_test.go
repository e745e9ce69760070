package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkloadRepositoryEnsureForDateSeedsWeekday(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewWorkloadRepository(db)
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO teacher_workload_state").
		WithArgs("tenant-1", monday, 1).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.EnsureForDate(context.Background(), nil, "tenant-1", monday))
}

func TestWorkloadRepositoryListForDateLocks(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewWorkloadRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"tenant_id", "teacher_id", "work_date", "current_substitutions", "periods_today", "updated_at"}).
		AddRow("tenant-1", "teacher-c1", date, 0, 3, date).
		AddRow("tenant-1", "teacher-c2", date, 2, 4, date)
	mock.ExpectQuery(`ORDER BY teacher_id ASC FOR UPDATE`).
		WithArgs("tenant-1", date).
		WillReturnRows(rows)

	workloads, err := repo.ListForDate(context.Background(), nil, "tenant-1", date, true)
	require.NoError(t, err)
	require.Len(t, workloads, 2)
	assert.Equal(t, 2, workloads[1].CurrentSubstitutions)
	assert.Equal(t, 4, workloads[1].PeriodsToday)
}

func TestWorkloadRepositoryAdjust(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewWorkloadRepository(db)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`GREATEST\(current_substitutions \+ \$4, 0\),\s+periods_today = GREATEST\(periods_today \+ \$5, 0\)`).
		WithArgs("tenant-1", "teacher-c1", date, -1, -1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Adjust(context.Background(), nil, "tenant-1", "teacher-c1", date, -1, -1))

	mock.ExpectExec("UPDATE teacher_workload_state").
		WithArgs("tenant-1", "teacher-c1", date, -1, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Adjust(context.Background(), nil, "tenant-1", "teacher-c1", date, -1, 0))

	mock.ExpectExec("UPDATE teacher_workload_state").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, repo.Adjust(context.Background(), nil, "tenant-1", "ghost", date, 1, 1), sql.ErrNoRows)
}
