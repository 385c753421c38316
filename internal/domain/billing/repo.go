package billing

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows bill listings. Zero values mean "any".
type ListFilter struct {
	Category  string
	PatientID *uuid.UUID
}

type Repository interface {
	// Create inserts the bill header and all its items.
	Create(ctx context.Context, bill *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Bill, int, error)
}
