package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/repository"
)

// memoryStore backs every substitution repository interface with maps so service tests can
// follow a whole workflow. Transactions come from sqlmock and are ignored here.
type memoryStore struct {
	mu            sync.Mutex
	teachers      []models.Teacher
	slots         []models.TimetableSlot
	classTeachers map[string]string
	absences      []models.AbsenceRequest
	records       []*models.SubstitutionRecord
	workload      map[string]*models.TeacherWorkload
	seq           int

	failRecordCreateAt int
	recordCreates      int
	listErr            error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{classTeachers: map[string]string{}, workload: map[string]*models.TeacherWorkload{}}
}

func (m *memoryStore) stores() SubstitutionStores {
	return SubstitutionStores{Teachers: m, Timetable: m, Absences: m, Classes: m, Records: recordStore{m}, Workload: m}
}

func (m *memoryStore) addTeacher(id, subject string) {
	m.teachers = append(m.teachers, models.Teacher{ID: id, TenantID: "tenant-1", FullName: id, SubjectID: strPtr(subject), Active: true})
}

func (m *memoryStore) setWorkload(teacherID string, date time.Time, subs, periods int) {
	m.workload[workloadKey(teacherID, date)] = &models.TeacherWorkload{
		TenantID: "tenant-1", TeacherID: teacherID, Date: date, CurrentSubstitutions: subs, PeriodsToday: periods,
	}
}

func (m *memoryStore) workloadOf(teacherID string, date time.Time) models.TeacherWorkload {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.workload[workloadKey(teacherID, date)]; ok {
		return *row
	}
	return models.TeacherWorkload{}
}

func (m *memoryStore) record(id string) *models.SubstitutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			found := *r
			return &found
		}
	}
	return nil
}

func (m *memoryStore) addRecord(r models.SubstitutionRecord) *models.SubstitutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := r
	m.records = append(m.records, &stored)
	return &stored
}

func workloadKey(teacherID string, date time.Time) string {
	return teacherID + "|" + date.Format("2006-01-02")
}

func (m *memoryStore) ListActive(ctx context.Context, exec sqlx.ExtContext, tenantID string) ([]models.Teacher, error) {
	return append([]models.Teacher(nil), m.teachers...), nil
}

func (m *memoryStore) FindByID(ctx context.Context, tenantID, id string) (*models.Teacher, error) {
	for _, t := range m.teachers {
		if t.ID == id {
			teacher := t
			return &teacher, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) ListByTeacherDay(ctx context.Context, tenantID, teacherID string, day int) ([]models.TimetableSlot, error) {
	var out []models.TimetableSlot
	for _, s := range m.slots {
		if s.TeacherID == teacherID && s.DayOfWeek == day {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodNumber < out[j].PeriodNumber })
	return out, nil
}

func (m *memoryStore) CountByDay(ctx context.Context, exec sqlx.ExtContext, tenantID string, day int) (map[string]int, error) {
	counts := map[string]int{}
	for _, s := range m.slots {
		if s.DayOfWeek == day {
			counts[s.TeacherID]++
		}
	}
	return counts, nil
}

func (m *memoryStore) ListBusyTeachers(ctx context.Context, exec sqlx.ExtContext, tenantID string, day, period int) ([]string, error) {
	var out []string
	for _, s := range m.slots {
		if s.DayOfWeek == day && s.PeriodNumber == period {
			out = append(out, s.TeacherID)
		}
	}
	return out, nil
}

func (m *memoryStore) Create(ctx context.Context, exec sqlx.ExtContext, absence *models.AbsenceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	absence.ID = fmt.Sprintf("absence-%d", m.seq)
	m.absences = append(m.absences, *absence)
	return nil
}

func (m *memoryStore) ListAbsentTeachers(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, period int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.absences {
		if !a.Date.Equal(date) {
			continue
		}
		for _, p := range a.Periods {
			if int(p) == period {
				out = append(out, a.TeacherID)
				break
			}
		}
	}
	return out, nil
}

func (m *memoryStore) GetClassTeacher(ctx context.Context, exec sqlx.ExtContext, tenantID, classID string) (string, error) {
	return m.classTeachers[classID], nil
}

// recordStore adapts memoryStore to the substitution record interface, whose Create
// signature differs from the absence store's.
type recordStore struct{ *memoryStore }

func (r recordStore) Create(ctx context.Context, exec sqlx.ExtContext, record *models.SubstitutionRecord) error {
	m := r.memoryStore
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordCreates++
	if m.failRecordCreateAt > 0 && m.recordCreates == m.failRecordCreateAt {
		return errors.New("connection lost")
	}
	for _, existing := range m.records {
		if existing.AbsentTeacherID == record.AbsentTeacherID && existing.Date.Equal(record.Date) &&
			existing.PeriodNumber == record.PeriodNumber && existing.Status.IsActive() {
			return repository.ErrDuplicateActive
		}
	}
	m.seq++
	record.ID = fmt.Sprintf("sub-%d", m.seq)
	record.CreatedAt = time.Now().UTC()
	stored := *record
	m.records = append(m.records, &stored)
	return nil
}

func (m *memoryStore) GetByID(ctx context.Context, exec sqlx.ExtContext, tenantID, id string) (*models.SubstitutionRecord, error) {
	if r := m.record(id); r != nil {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRecord, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SubstitutionRecord
	for _, r := range m.records {
		if filter.InvolvesTeacher != "" && r.AbsentTeacherID != filter.InvolvesTeacher && r.Substitute() != filter.InvolvesTeacher {
			continue
		}
		if filter.Date != nil && !r.Date.Equal(*filter.Date) {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (m *memoryStore) ListActiveForAbsentTeacher(ctx context.Context, exec sqlx.ExtContext, tenantID, teacherID string, date time.Time, periods []int) ([]models.SubstitutionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[int]bool, len(periods))
	for _, p := range periods {
		wanted[p] = true
	}
	var out []models.SubstitutionRecord
	for _, r := range m.records {
		if r.AbsentTeacherID == teacherID && r.Date.Equal(date) && wanted[r.PeriodNumber] && r.Status.IsActive() {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memoryStore) ListBusySubstitutes(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, period int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.records {
		if r.Date.Equal(date) && r.PeriodNumber == period && r.Substitute() != "" && r.Status.IsActive() {
			out = append(out, r.Substitute())
		}
	}
	return out, nil
}

func (m *memoryStore) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, update repository.StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID != update.ID {
			continue
		}
		allowed := false
		for _, from := range update.From {
			allowed = allowed || r.Status == from
		}
		if !allowed {
			return sql.ErrNoRows
		}
		at := update.At
		r.Status = update.To
		switch update.To {
		case models.SubstitutionStatusPending:
			r.AssignedAt = &at
		case models.SubstitutionStatusConfirmed:
			r.ConfirmedAt = &at
			r.ConfirmedBy = update.ConfirmedBy
		case models.SubstitutionStatusCancelled:
			r.CancelledAt = &at
			r.CancelReason = update.CancelReason
		case models.SubstitutionStatusSubstituted:
			r.SubstitutedAt = &at
			r.CancelReason = update.CancelReason
		case models.SubstitutionStatusCompleted:
			r.CompletedAt = &at
		}
		if update.SubstituteTeacherID != nil {
			r.SubstituteTeacherID = update.SubstituteTeacherID
		}
		if update.Score != nil {
			r.Score = update.Score
		}
		if update.AttendanceTaken != nil {
			r.AttendanceTaken = *update.AttendanceTaken
		}
		if update.LessonsCompleted != nil {
			r.LessonsCompleted = *update.LessonsCompleted
		}
		if update.CompletionNotes != nil {
			r.CompletionNotes = update.CompletionNotes
		}
		return nil
	}
	return sql.ErrNoRows
}

func (m *memoryStore) SetSupersededBy(ctx context.Context, exec sqlx.ExtContext, tenantID, id, successorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id && r.SupersededByID == nil {
			r.SupersededByID = strPtr(successorID)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryStore) EnsureForDate(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := models.ISOWeekday(date)
	for _, t := range m.teachers {
		key := workloadKey(t.ID, date)
		if _, ok := m.workload[key]; ok {
			continue
		}
		periods := 0
		for _, s := range m.slots {
			if s.TeacherID == t.ID && s.DayOfWeek == day {
				periods++
			}
		}
		m.workload[key] = &models.TeacherWorkload{TenantID: tenantID, TeacherID: t.ID, Date: date, PeriodsToday: periods}
	}
	return nil
}

func (m *memoryStore) ListForDate(ctx context.Context, exec sqlx.ExtContext, tenantID string, date time.Time, lock bool) ([]models.TeacherWorkload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TeacherWorkload
	for _, row := range m.workload {
		if row.Date.Equal(date) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeacherID < out[j].TeacherID })
	return out, nil
}

func (m *memoryStore) Adjust(ctx context.Context, exec sqlx.ExtContext, tenantID, teacherID string, date time.Time, substitutions, periods int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.workload[workloadKey(teacherID, date)]
	if !ok {
		return sql.ErrNoRows
	}
	row.CurrentSubstitutions = max(row.CurrentSubstitutions+substitutions, 0)
	row.PeriodsToday = max(row.PeriodsToday+periods, 0)
	return nil
}

type staticConfigs struct {
	cfg models.AssignmentConfig
	err error
}

func (s staticConfigs) Get(ctx context.Context, tenantID string) (models.AssignmentConfig, error) {
	return s.cfg, s.err
}

type notifierRecorder struct {
	mu     sync.Mutex
	events []string
}

func (n *notifierRecorder) Notify(ctx context.Context, tenantID, recipientID string, event models.NotificationEvent, payload map[string]interface{}) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, string(event)+":"+recipientID)
	return true
}
