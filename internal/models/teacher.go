package models

import "time"

// Teacher represents an instructor record. SubjectID is the teacher's primary subject.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	SubjectID *string   `db:"subject_id" json:"subject_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PrimarySubject returns the teacher's subject or an empty string.
func (t Teacher) PrimarySubject() string {
	if t.SubjectID == nil {
		return ""
	}
	return *t.SubjectID
}
