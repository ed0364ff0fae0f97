package domain

import "time"

// Patient is a read-only directory entry. Patient records themselves are
// managed by another service; schedule events only hold a reference.
type Patient struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	MedicalRecNo string    `json:"medicalRecordNumber"`
	CreatedAt    time.Time `json:"createdAt"`
}
