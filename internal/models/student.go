package models

import "time"

// StudentRecord is a canonical directory entry used as the verification
// oracle. The directory is owned by the registrar; this service only reads it.
type StudentRecord struct {
	PRN       string    `db:"prn" json:"prn"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     string    `db:"phone" json:"phone"`
	Batch     string    `db:"batch" json:"batch"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
