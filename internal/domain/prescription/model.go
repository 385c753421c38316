package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription maps to the prescriptions table.
type Prescription struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PatientID uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID  *uuid.UUID `db:"doctor_id" json:"doctor_id,omitempty"`
	Complaint *string    `db:"complaint" json:"complaint,omitempty"`
	Diagnosis *string    `db:"diagnosis" json:"diagnosis,omitempty"`
	Advice    *string    `db:"advice" json:"advice,omitempty"`
	Items     []*Item    `db:"-" json:"items,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Item is one prescribed medicine line. Sequence preserves the order
// the doctor wrote the lines in.
type Item struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Sequence       int       `db:"sequence" json:"sequence"`
	MedicineName   string    `db:"medicine_name" json:"medicine_name"`
	Dosage         *string   `db:"dosage" json:"dosage,omitempty"`
	Duration       *string   `db:"duration" json:"duration,omitempty"`
	Note           *string   `db:"note" json:"note,omitempty"`
}
