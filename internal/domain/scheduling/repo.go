package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Appointment, int, error)
}

// ListFilter narrows an appointment listing. Zero values mean "any".
type ListFilter struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time
	Status    string
}
