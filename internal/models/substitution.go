package models

import "time"

// SubstitutionStatus captures the lifecycle of a substitution record.
type SubstitutionStatus string

const (
	SubstitutionStatusUnassigned  SubstitutionStatus = "UNASSIGNED"
	SubstitutionStatusPending     SubstitutionStatus = "PENDING"
	SubstitutionStatusConfirmed   SubstitutionStatus = "CONFIRMED"
	SubstitutionStatusSubstituted SubstitutionStatus = "SUBSTITUTED"
	SubstitutionStatusCancelled   SubstitutionStatus = "CANCELLED"
	SubstitutionStatusCompleted   SubstitutionStatus = "COMPLETED"
)

var substitutionTransitions = map[SubstitutionStatus][]SubstitutionStatus{
	SubstitutionStatusUnassigned: {SubstitutionStatusPending},
	SubstitutionStatusPending:    {SubstitutionStatusConfirmed, SubstitutionStatusCancelled, SubstitutionStatusSubstituted},
	SubstitutionStatusConfirmed:  {SubstitutionStatusCompleted, SubstitutionStatusCancelled, SubstitutionStatusSubstituted},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to SubstitutionStatus) bool {
	for _, next := range substitutionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SourcesFor lists the statuses from which the target status is reachable.
func SourcesFor(to SubstitutionStatus) []SubstitutionStatus {
	var sources []SubstitutionStatus
	for _, from := range []SubstitutionStatus{
		SubstitutionStatusUnassigned,
		SubstitutionStatusPending,
		SubstitutionStatusConfirmed,
	} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

// IsActive reports whether a record in this status still owns its period.
func (s SubstitutionStatus) IsActive() bool {
	return s != SubstitutionStatusCancelled && s != SubstitutionStatusSubstituted
}

// HoldsWorkload reports whether the substitute's counters include this record.
func (s SubstitutionStatus) HoldsWorkload() bool {
	return s == SubstitutionStatusPending || s == SubstitutionStatusConfirmed
}

// SubstitutionRecord tracks coverage for one (absent teacher, date, period).
type SubstitutionRecord struct {
	ID                  string             `db:"id" json:"id"`
	TenantID            string             `db:"tenant_id" json:"tenant_id"`
	AbsenceID           *string            `db:"absence_id" json:"absence_id,omitempty"`
	AbsentTeacherID     string             `db:"absent_teacher_id" json:"absent_teacher_id"`
	SubstituteTeacherID *string            `db:"substitute_teacher_id" json:"substitute_teacher_id,omitempty"`
	ClassID             string             `db:"class_id" json:"class_id"`
	SubjectID           string             `db:"subject_id" json:"subject_id"`
	Room                string             `db:"room" json:"room"`
	Date                time.Time          `db:"absence_date" json:"date"`
	PeriodNumber        int                `db:"period_number" json:"period_number"`
	Reason              string             `db:"reason" json:"reason"`
	Status              SubstitutionStatus `db:"status" json:"status"`
	Score               *int               `db:"score" json:"score,omitempty"`
	RequestedBy         string             `db:"requested_by" json:"requested_by"`
	ReplacesID          *string            `db:"replaces_id" json:"replaces_id,omitempty"`
	SupersededByID      *string            `db:"superseded_by_id" json:"superseded_by_id,omitempty"`
	AssignedAt          *time.Time         `db:"assigned_at" json:"assigned_at,omitempty"`
	ConfirmedBy         *string            `db:"confirmed_by" json:"confirmed_by,omitempty"`
	ConfirmedAt         *time.Time         `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CancelReason        *string            `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt         *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
	SubstitutedAt       *time.Time         `db:"substituted_at" json:"substituted_at,omitempty"`
	CompletedAt         *time.Time         `db:"completed_at" json:"completed_at,omitempty"`
	AttendanceTaken     bool               `db:"attendance_taken" json:"attendance_taken"`
	LessonsCompleted    bool               `db:"lessons_completed" json:"lessons_completed"`
	CompletionNotes     *string            `db:"completion_notes" json:"completion_notes,omitempty"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
}

// Substitute returns the assigned substitute id or an empty string.
func (r *SubstitutionRecord) Substitute() string {
	if r == nil || r.SubstituteTeacherID == nil {
		return ""
	}
	return *r.SubstituteTeacherID
}

// LineageKind tags whether a record is current or has been replaced by a successor.
type LineageKind string

const (
	LineageActive     LineageKind = "ACTIVE"
	LineageSuperseded LineageKind = "SUPERSEDED"
	LineageClosed     LineageKind = "CLOSED"
)

// Lineage is the history view of a record: Active, SupersededBy(id) or Closed.
type Lineage struct {
	Kind         LineageKind `json:"kind"`
	SupersededBy string      `json:"superseded_by,omitempty"`
}

// Lineage derives the tagged lineage from status and successor reference.
func (r *SubstitutionRecord) Lineage() Lineage {
	if r.SupersededByID != nil && *r.SupersededByID != "" {
		return Lineage{Kind: LineageSuperseded, SupersededBy: *r.SupersededByID}
	}
	if r.Status.IsActive() {
		return Lineage{Kind: LineageActive}
	}
	return Lineage{Kind: LineageClosed}
}

// SubstitutionFilter constrains listing queries.
type SubstitutionFilter struct {
	TenantID        string
	Date            *time.Time
	AbsentTeacherID string
	SubstituteID    string
	InvolvesTeacher string
	Status          []SubstitutionStatus
	Limit           int
	Offset          int
}
