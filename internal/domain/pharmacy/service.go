package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

type Service struct {
	medicines MedicineRepository
	batches   BatchRepository
}

func NewService(medicines MedicineRepository, batches BatchRepository) *Service {
	return &Service{medicines: medicines, batches: batches}
}

// -- Catalog --

func (s *Service) CreateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return apperr.Validation("medicine name is required")
	}
	if m.ReorderLevel < 0 {
		return apperr.Validation("reorder level cannot be negative")
	}
	if m.TaxRate < 0 {
		return apperr.Validation("tax rate cannot be negative")
	}
	return s.medicines.Create(ctx, m)
}

func (s *Service) GetMedicine(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return s.medicines.GetByID(ctx, id)
}

func (s *Service) UpdateMedicine(ctx context.Context, m *Medicine) error {
	if m.Name == "" {
		return apperr.Validation("medicine name is required")
	}
	return s.medicines.Update(ctx, m)
}

func (s *Service) DeleteMedicine(ctx context.Context, id uuid.UUID) error {
	return s.medicines.Delete(ctx, id)
}

func (s *Service) ListMedicines(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	return s.medicines.List(ctx, limit, offset)
}

// -- Stock --

// ReceiveBatch records a purchased batch. The batch starts full and
// its status is derived from the received quantity.
func (s *Service) ReceiveBatch(ctx context.Context, b *StockBatch) error {
	if b.MedicineID == uuid.Nil {
		return apperr.Validation("medicine_id is required")
	}
	if b.BatchNo == "" {
		return apperr.Validation("batch number is required")
	}
	if b.InitialQty <= 0 {
		return apperr.Validation("initial quantity must be positive")
	}
	if b.Expiry.IsZero() {
		return apperr.Validation("expiry date is required")
	}
	if b.MRP <= 0 {
		return apperr.Validation("MRP must be positive")
	}

	med, err := s.medicines.GetByID(ctx, b.MedicineID)
	if err != nil {
		return err
	}

	b.CurrentQty = b.InitialQty
	b.Status = DeriveStatus(b.CurrentQty, med.ReorderLevel, b.Expiry, time.Now())
	return s.batches.Create(ctx, b)
}

// GetBatch returns the batch with its status re-derived, so a batch
// that expired since its last write reads as expired.
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*StockBatch, error) {
	b, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	med, err := s.medicines.GetByID(ctx, b.MedicineID)
	if err != nil {
		return nil, err
	}
	b.Status = DeriveStatus(b.CurrentQty, med.ReorderLevel, b.Expiry, time.Now())
	return b, nil
}

func (s *Service) ListBatchesByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*StockBatch, error) {
	med, err := s.medicines.GetByID(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	batches, err := s.batches.ListByMedicine(ctx, medicineID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, b := range batches {
		b.Status = DeriveStatus(b.CurrentQty, med.ReorderLevel, b.Expiry, now)
	}
	return batches, nil
}

// ListLowStock returns batches flagged low or exhausted.
func (s *Service) ListLowStock(ctx context.Context, limit, offset int) ([]*StockBatch, int, error) {
	return s.batches.ListByStatus(ctx, []string{StatusLow, StatusExhausted}, limit, offset)
}

// ListExpired returns batches flagged expired.
func (s *Service) ListExpired(ctx context.Context, limit, offset int) ([]*StockBatch, int, error) {
	return s.batches.ListByStatus(ctx, []string{StatusExpired}, limit, offset)
}
