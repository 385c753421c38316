package pharmacy

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive    = "active"
	StatusLow       = "low"
	StatusExpired   = "expired"
	StatusExhausted = "exhausted"
)

// Medicine maps to the medicines table. TaxRate is informational for
// pharmacy sales: retail prices are MRP-based and tax-inclusive.
type Medicine struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Unit         *string   `db:"unit" json:"unit,omitempty"`
	ReorderLevel int       `db:"reorder_level" json:"reorder_level"`
	TaxRate      float64   `db:"tax_rate" json:"tax_rate"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StockBatch maps to the stock_batches table. CurrentQty and Status
// are mutated only through the billing commit's guarded decrement.
type StockBatch struct {
	ID            uuid.UUID `db:"id" json:"id"`
	MedicineID    uuid.UUID `db:"medicine_id" json:"medicine_id"`
	BatchNo       string    `db:"batch_no" json:"batch_no"`
	Expiry        time.Time `db:"expiry" json:"expiry"`
	InitialQty    int       `db:"initial_qty" json:"initial_qty"`
	CurrentQty    int       `db:"current_qty" json:"current_qty"`
	PurchasePrice float64   `db:"purchase_price" json:"purchase_price"`
	MRP           float64   `db:"mrp" json:"mrp"`
	SellingPrice  float64   `db:"selling_price" json:"selling_price"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// DeriveStatus computes a batch's status from its quantity, the
// medicine's reorder level and the expiry date. An empty batch is
// exhausted even when expired; expiry outranks the quantity
// thresholds otherwise.
func DeriveStatus(currentQty, reorderLevel int, expiry, now time.Time) string {
	switch {
	case currentQty <= 0:
		return StatusExhausted
	case !expiry.IsZero() && !expiry.After(now):
		return StatusExpired
	case currentQty <= reorderLevel:
		return StatusLow
	default:
		return StatusActive
	}
}

// UnitPrice returns the price one unit sells at: the selling price
// when one is set, the MRP otherwise.
func (b *StockBatch) UnitPrice() float64 {
	if b.SellingPrice > 0 {
		return b.SellingPrice
	}
	return b.MRP
}
