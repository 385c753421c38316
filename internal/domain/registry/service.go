package registry

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/sequence"
)

// SeqPatients is the sequence name for patient registration numbers.
const SeqPatients = "patients"

type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
	seq      *sequence.Allocator
}

func NewService(patients PatientRepository, doctors DoctorRepository, seq *sequence.Allocator) *Service {
	return &Service{patients: patients, doctors: doctors, seq: seq}
}

// -- Patients --

func (s *Service) CreatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return apperr.Validation("patient name is required")
	}
	no, err := s.seq.Next(ctx, SeqPatients)
	if err != nil {
		return err
	}
	p.PatientNo = no
	return s.patients.Create(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// ResolvePatient accepts either the patient's UUID or the
// human-readable patient number. The UUID form is tried first; any
// non-UUID reference is treated as a patient number.
func (s *Service) ResolvePatient(ctx context.Context, ref string) (*Patient, error) {
	if ref == "" {
		return nil, apperr.Validation("patient reference is required")
	}
	if id, err := uuid.Parse(ref); err == nil {
		return s.patients.GetByID(ctx, id)
	}
	return s.patients.GetByPatientNo(ctx, ref)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return apperr.Validation("patient name is required")
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// -- Doctors --

func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return apperr.Validation("doctor name is required")
	}
	if d.ConsultationFee < 0 {
		return apperr.Validation("consultation fee cannot be negative")
	}
	return s.doctors.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.doctors.GetByID(ctx, id)
}

func (s *Service) UpdateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return apperr.Validation("doctor name is required")
	}
	if d.ConsultationFee < 0 {
		return apperr.Validation("consultation fee cannot be negative")
	}
	return s.doctors.Update(ctx, d)
}

func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return s.doctors.Delete(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.doctors.List(ctx, limit, offset)
}
