package pharmacy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

// SaleLine is one requested unit-group of a pharmacy sale.
type SaleLine struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	BatchID    uuid.UUID `json:"batch_id"`
	Quantity   int       `json:"quantity"`
}

// PlannedLine is a checked sale line with the prices and post-sale
// quantities the commit will apply. Planning never writes.
type PlannedLine struct {
	Medicine  *Medicine
	Batch     *StockBatch
	Quantity  int
	UnitPrice float64
	Amount    float64
	NewQty    int
	NewStatus string
}

// Ledger validates sale requests against the catalog and current
// stock. All mutation is deferred to the billing commit.
type Ledger struct {
	medicines MedicineRepository
	batches   BatchRepository
	now       func() time.Time
}

func NewLedger(medicines MedicineRepository, batches BatchRepository) *Ledger {
	return &Ledger{medicines: medicines, batches: batches, now: time.Now}
}

// CheckAndPlan resolves and checks every line, returning the full
// plan or the first line's error. Any failure aborts the whole
// request; a partial plan is never returned.
func (l *Ledger) CheckAndPlan(ctx context.Context, lines []SaleLine) ([]*PlannedLine, error) {
	now := l.now()
	planned := make([]*PlannedLine, 0, len(lines))

	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, apperr.Validation("line %d: quantity must be positive", i+1)
		}

		med, err := l.medicines.GetByID(ctx, line.MedicineID)
		if err != nil {
			return nil, err
		}
		batch, err := l.batches.GetByID(ctx, line.BatchID)
		if err != nil {
			return nil, err
		}
		if batch.MedicineID != med.ID {
			return nil, apperr.Validation("line %d: batch %s does not belong to medicine %s", i+1, batch.BatchNo, med.Name)
		}

		// Expiry is a hard gate at sale time, even if the stored
		// status has not been recomputed yet.
		if !batch.Expiry.After(now) {
			return nil, apperr.Validation("batch %s of %s expired on %s", batch.BatchNo, med.Name, batch.Expiry.Format("2006-01-02")).
				WithDetail("medicine", med.Name).
				WithDetail("batch_no", batch.BatchNo)
		}

		if batch.CurrentQty < line.Quantity {
			return nil, apperr.InsufficientStock(med.Name, line.Quantity, batch.CurrentQty).
				WithDetail("batch_no", batch.BatchNo)
		}

		unitPrice := batch.UnitPrice()
		newQty := batch.CurrentQty - line.Quantity
		planned = append(planned, &PlannedLine{
			Medicine:  med,
			Batch:     batch,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			Amount:    unitPrice * float64(line.Quantity),
			NewQty:    newQty,
			NewStatus: DeriveStatus(newQty, med.ReorderLevel, batch.Expiry, now),
		})
	}

	return planned, nil
}
