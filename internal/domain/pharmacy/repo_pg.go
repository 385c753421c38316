package pharmacy

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Medicine Repository ===========

type medicineRepoPG struct{ pool *pgxpool.Pool }

func NewMedicineRepoPG(pool *pgxpool.Pool) MedicineRepository { return &medicineRepoPG{pool: pool} }

func (r *medicineRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const medicineCols = `id, name, unit, reorder_level, tax_rate, created_at, updated_at`

func (r *medicineRepoPG) scanMedicine(row pgx.Row) (*Medicine, error) {
	var m Medicine
	err := row.Scan(&m.ID, &m.Name, &m.Unit, &m.ReorderLevel, &m.TaxRate, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("medicine", "")
	}
	return &m, err
}

func (r *medicineRepoPG) Create(ctx context.Context, m *Medicine) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO medicines (id, name, unit, reorder_level, tax_rate)
		VALUES ($1,$2,$3,$4,$5)`,
		m.ID, m.Name, m.Unit, m.ReorderLevel, m.TaxRate)
	return err
}

func (r *medicineRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	return r.scanMedicine(r.conn(ctx).QueryRow(ctx, `SELECT `+medicineCols+` FROM medicines WHERE id = $1`, id))
}

func (r *medicineRepoPG) Update(ctx context.Context, m *Medicine) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE medicines SET name=$2, unit=$3, reorder_level=$4, tax_rate=$5, updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.Name, m.Unit, m.ReorderLevel, m.TaxRate)
	return err
}

func (r *medicineRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	return err
}

func (r *medicineRepoPG) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medicines`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+medicineCols+` FROM medicines ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Medicine
	for rows.Next() {
		m, err := r.scanMedicine(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, nil
}

// =========== Batch Repository ===========

type batchRepoPG struct{ pool *pgxpool.Pool }

func NewBatchRepoPG(pool *pgxpool.Pool) BatchRepository { return &batchRepoPG{pool: pool} }

func (r *batchRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const batchCols = `id, medicine_id, batch_no, expiry, initial_qty, current_qty,
	purchase_price, mrp, selling_price, status, created_at, updated_at`

func (r *batchRepoPG) scanBatch(row pgx.Row) (*StockBatch, error) {
	var b StockBatch
	err := row.Scan(&b.ID, &b.MedicineID, &b.BatchNo, &b.Expiry, &b.InitialQty, &b.CurrentQty,
		&b.PurchasePrice, &b.MRP, &b.SellingPrice, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("stock batch", "")
	}
	return &b, err
}

func (r *batchRepoPG) Create(ctx context.Context, b *StockBatch) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO stock_batches (id, medicine_id, batch_no, expiry, initial_qty, current_qty,
			purchase_price, mrp, selling_price, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		b.ID, b.MedicineID, b.BatchNo, b.Expiry, b.InitialQty, b.CurrentQty,
		b.PurchasePrice, b.MRP, b.SellingPrice, b.Status)
	return err
}

func (r *batchRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*StockBatch, error) {
	return r.scanBatch(r.conn(ctx).QueryRow(ctx, `SELECT `+batchCols+` FROM stock_batches WHERE id = $1`, id))
}

func (r *batchRepoPG) ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*StockBatch, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+batchCols+` FROM stock_batches WHERE medicine_id = $1 ORDER BY expiry`, medicineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*StockBatch
	for rows.Next() {
		b, err := r.scanBatch(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (r *batchRepoPG) ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*StockBatch, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM stock_batches WHERE status = ANY($1)`, statuses).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+batchCols+` FROM stock_batches WHERE status = ANY($1) ORDER BY updated_at DESC LIMIT $2 OFFSET $3`, statuses, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*StockBatch
	for rows.Next() {
		b, err := r.scanBatch(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}

// applySaleSQL decrements and recomputes status in one statement. The
// `current_qty >= $2` guard makes concurrent oversell impossible: the
// losing transaction matches zero rows instead of driving the
// quantity negative.
const applySaleSQL = `
UPDATE stock_batches b
SET current_qty = b.current_qty - $2,
    status = CASE
        WHEN b.current_qty - $2 <= 0 THEN 'exhausted'
        WHEN b.expiry <= NOW() THEN 'expired'
        WHEN b.current_qty - $2 <= m.reorder_level THEN 'low'
        ELSE 'active'
    END,
    updated_at = NOW()
FROM medicines m
WHERE b.id = $1 AND m.id = b.medicine_id AND b.current_qty >= $2`

func (r *batchRepoPG) ApplySale(ctx context.Context, batchID uuid.UUID, qty int) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, applySaleSQL, batchID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
