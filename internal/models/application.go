package models

import "time"

// ApplicationStatus represents the review lifecycle of a bonafide application.
type ApplicationStatus string

// Possible application statuses. The set is closed; anything else is rejected.
const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusApproved ApplicationStatus = "Approved"
	ApplicationStatusRejected ApplicationStatus = "Rejected"
)

// Valid reports whether the status belongs to the closed status set.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusApproved, ApplicationStatusRejected:
		return true
	}
	return false
}

// Application is a persisted bonafide certificate request. The requester
// fields are snapshots of the student record at submission time and never
// change afterwards; only status and its processing metadata mutate.
// Applications are never deleted (audit trail).
type Application struct {
	ID          string            `db:"id" json:"id"`
	PRN         string            `db:"prn" json:"prn"`
	Name        string            `db:"name" json:"name"`
	Phone       string            `db:"phone" json:"phone"`
	Batch       string            `db:"batch" json:"batch"`
	Year        *string           `db:"year" json:"year,omitempty"`
	Branch      *string           `db:"branch" json:"branch,omitempty"`
	Purpose     *string           `db:"purpose" json:"purpose,omitempty"`
	Status      ApplicationStatus `db:"status" json:"status"`
	SubmittedAt time.Time         `db:"submitted_at" json:"submitted_at"`
	ProcessedAt *time.Time        `db:"processed_at" json:"processed_at,omitempty"`
	ProcessedBy *string           `db:"processed_by" json:"processed_by,omitempty"`
}

// Printable reports whether a certificate may be issued for the application.
func (a *Application) Printable() bool {
	return a.Status == ApplicationStatusApproved
}

// ApplicationFilter provides filters for listing applications.
type ApplicationFilter struct {
	Status    ApplicationStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CertificateData is the fixed field set handed to the certificate renderer.
type CertificateData struct {
	Name      string    `json:"name"`
	PRN       string    `json:"prn"`
	Batch     string    `json:"batch"`
	Year      string    `json:"year"`
	Branch    string    `json:"branch"`
	Purpose   string    `json:"purpose"`
	IssueDate time.Time `json:"issue_date"`
}
