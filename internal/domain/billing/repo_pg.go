package billing

import (
	"context"
	"errors"
	"fmt"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const billCols = `id, bill_no, category, patient_id, patient_name, patient_phone,
	doctor_id, prescription_id, bill_date, subtotal, discount_type, discount_value,
	discount_amount, taxable_amount, cgst, sgst, round_off, grand_total,
	payment_mode, cash_amount, card_amount, upi_amount, upi_ref,
	paid_amount, due_amount, payment_status, remarks, created_by, created_at`

func (r *repoPG) scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.BillNo, &b.Category, &b.PatientID, &b.PatientName, &b.PatientPhone,
		&b.DoctorID, &b.PrescriptionID, &b.BillDate, &b.Subtotal, &b.DiscountType, &b.DiscountValue,
		&b.DiscountAmount, &b.TaxableAmount, &b.CGST, &b.SGST, &b.RoundOff, &b.GrandTotal,
		&b.PaymentMode, &b.CashAmount, &b.CardAmount, &b.UPIAmount, &b.UPIRef,
		&b.PaidAmount, &b.DueAmount, &b.PaymentStatus, &b.Remarks, &b.CreatedBy, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("bill", "")
	}
	return &b, err
}

func (r *repoPG) Create(ctx context.Context, bill *Bill) error {
	conn := r.conn(ctx)
	bill.ID = uuid.New()
	_, err := conn.Exec(ctx, `
		INSERT INTO bills (id, bill_no, category, patient_id, patient_name, patient_phone,
			doctor_id, prescription_id, bill_date, subtotal, discount_type, discount_value,
			discount_amount, taxable_amount, cgst, sgst, round_off, grand_total,
			payment_mode, cash_amount, card_amount, upi_amount, upi_ref,
			paid_amount, due_amount, payment_status, remarks, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,$28)`,
		bill.ID, bill.BillNo, bill.Category, bill.PatientID, bill.PatientName, bill.PatientPhone,
		bill.DoctorID, bill.PrescriptionID, bill.BillDate, bill.Subtotal, bill.DiscountType, bill.DiscountValue,
		bill.DiscountAmount, bill.TaxableAmount, bill.CGST, bill.SGST, bill.RoundOff, bill.GrandTotal,
		bill.PaymentMode, bill.CashAmount, bill.CardAmount, bill.UPIAmount, bill.UPIRef,
		bill.PaidAmount, bill.DueAmount, bill.PaymentStatus, bill.Remarks, bill.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}

	for i, item := range bill.Items {
		item.ID = uuid.New()
		item.BillID = bill.ID
		item.Sequence = i + 1
		_, err := conn.Exec(ctx, `
			INSERT INTO bill_items (id, bill_id, sequence, description, medicine_id,
				batch_id, batch_no, expiry, quantity, mrp, unit_price, amount)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			item.ID, item.BillID, item.Sequence, item.Description, item.MedicineID,
			item.BatchID, item.BatchNo, item.Expiry, item.Quantity, item.MRP, item.UnitPrice, item.Amount)
		if err != nil {
			return fmt.Errorf("insert bill item %d: %w", i+1, err)
		}
	}
	return nil
}

const itemCols = `id, bill_id, sequence, description, medicine_id, batch_id,
	batch_no, expiry, quantity, mrp, unit_price, amount`

func (r *repoPG) loadItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM bill_items WHERE bill_id = $1 ORDER BY sequence`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.Sequence, &it.Description, &it.MedicineID, &it.BatchID,
			&it.BatchNo, &it.Expiry, &it.Quantity, &it.MRP, &it.UnitPrice, &it.Amount); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	bill, err := r.scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bills WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	bill.Items, err = r.loadItems(ctx, id)
	return bill, err
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Bill, int, error) {
	where := ""
	args := []interface{}{}
	add := func(clause string, arg interface{}) {
		args = append(args, arg)
		clause = fmt.Sprintf(clause, len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.PatientID != nil {
		add("patient_id = $%d", *filter.PatientID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bills`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+billCols+` FROM bills%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var bills []*Bill
	for rows.Next() {
		b, err := r.scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}
