package pharmacy

import (
	"context"

	"github.com/google/uuid"
)

type MedicineRepository interface {
	Create(ctx context.Context, m *Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error)
	Update(ctx context.Context, m *Medicine) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Medicine, int, error)
}

type BatchRepository interface {
	Create(ctx context.Context, b *StockBatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)
	ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*StockBatch, error)
	ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*StockBatch, int, error)

	// ApplySale decrements a batch by qty in a single guarded
	// statement and recomputes its status from the post-sale
	// quantity. It reports false, without error, when the guard
	// fails because the batch no longer holds qty units.
	ApplySale(ctx context.Context, batchID uuid.UUID, qty int) (bool, error)
}
