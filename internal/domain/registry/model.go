package registry

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. PatientNo is the human-readable
// registration number issued at create time and never changes.
type Patient struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientNo string    `db:"patient_no" json:"patient_no"`
	Name      string    `db:"name" json:"name"`
	Age       *int      `db:"age" json:"age,omitempty"`
	Gender    *string   `db:"gender" json:"gender,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Doctor maps to the doctors table.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Specialization  *string   `db:"specialization" json:"specialization,omitempty"`
	RegistrationNo  *string   `db:"registration_no" json:"registration_no,omitempty"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	Phone           *string   `db:"phone" json:"phone,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Summary is the denormalized patient view embedded in bill responses.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	PatientNo string    `json:"patient_no"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
}

func (p *Patient) Summary() Summary {
	return Summary{ID: p.ID, PatientNo: p.PatientNo, Name: p.Name, Phone: p.Phone}
}

// DoctorSummary is the denormalized doctor view embedded in bill
// responses.
type DoctorSummary struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Specialization *string   `json:"specialization,omitempty"`
}

func (d *Doctor) Summary() DoctorSummary {
	return DoctorSummary{ID: d.ID, Name: d.Name, Specialization: d.Specialization}
}
