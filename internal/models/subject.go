package models

import "time"

// Subject represents a lecture subject owned by a user. Schedule slots
// and attendance entries reference it by id only; a deleted subject may
// leave dangling references behind, which readers tolerate by omission.
type Subject struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"-"`
	Name      string    `db:"name" json:"name"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SubjectCatalog indexes subjects by id for occurrence resolution.
type SubjectCatalog map[string]Subject

// NewSubjectCatalog builds the id index.
func NewSubjectCatalog(subjects []Subject) SubjectCatalog {
	catalog := make(SubjectCatalog, len(subjects))
	for _, s := range subjects {
		catalog[s.ID] = s
	}
	return catalog
}
