package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/domain/pharmacy"
	"github.com/clinicore/clinicore/internal/domain/prescription"
	"github.com/clinicore/clinicore/internal/domain/registry"
	"github.com/clinicore/clinicore/internal/platform/apperr"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/internal/platform/sequence"
)

// Sequence names for the three bill number series.
const (
	SeqConsultationBills = "consultation_bills"
	SeqServiceBills      = "service_bills"
	SeqPharmacyBills     = "pharmacy_bills"
)

// Directory resolves patient and doctor references for bill headers.
// Satisfied by registry.Service.
type Directory interface {
	ResolvePatient(ctx context.Context, ref string) (*registry.Patient, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*registry.Doctor, error)
}

// PrescriptionSource checks prescription references. Satisfied by
// prescription.Repository.
type PrescriptionSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*prescription.Prescription, error)
}

// Coordinator drives bill creation: validate the request, plan it
// against the registries and stock, compute totals, then commit
// everything in one transaction. Nothing before the commit writes, and
// a failed commit writes nothing.
type Coordinator struct {
	bills         Repository
	seq           *sequence.Allocator
	directory     Directory
	prescriptions PrescriptionSource
	ledger        *pharmacy.Ledger
	batches       pharmacy.BatchRepository
	commitTimeout time.Duration

	runTx func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewCoordinator(pool *pgxpool.Pool, bills Repository, seq *sequence.Allocator,
	directory Directory, prescriptions PrescriptionSource,
	ledger *pharmacy.Ledger, batches pharmacy.BatchRepository,
	commitTimeout time.Duration) *Coordinator {
	return &Coordinator{
		bills:         bills,
		seq:           seq,
		directory:     directory,
		prescriptions: prescriptions,
		ledger:        ledger,
		batches:       batches,
		commitTimeout: commitTimeout,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		},
	}
}

// parties holds the resolved optional references for a bill, with
// their summaries for the response.
type parties struct {
	patient *registry.Patient
	doctor  *registry.Doctor
}

// resolveParties looks up the optional patient and doctor references.
// A supplied-but-missing reference is an error; an absent one is not.
func (c *Coordinator) resolveParties(ctx context.Context, patientRef string, doctorID *uuid.UUID) (parties, error) {
	var p parties
	if patientRef != "" {
		patient, err := c.directory.ResolvePatient(ctx, patientRef)
		if err != nil {
			return p, err
		}
		p.patient = patient
	}
	if doctorID != nil {
		doctor, err := c.directory.GetDoctor(ctx, *doctorID)
		if err != nil {
			return p, err
		}
		p.doctor = doctor
	}
	return p, nil
}

func (p parties) apply(bill *Bill) {
	if p.patient != nil {
		id := p.patient.ID
		bill.PatientID = &id
		if bill.PatientName == "" {
			bill.PatientName = p.patient.Name
		}
		if bill.PatientPhone == nil {
			bill.PatientPhone = p.patient.Phone
		}
	}
	if p.doctor != nil {
		id := p.doctor.ID
		bill.DoctorID = &id
	}
}

func (p parties) respond(bill *Bill) *BillResponse {
	resp := &BillResponse{Bill: bill}
	if p.patient != nil {
		s := p.patient.Summary()
		resp.Patient = &s
	}
	if p.doctor != nil {
		s := p.doctor.Summary()
		resp.Doctor = &s
	}
	return resp
}

func applyTotals(bill *Bill, t Totals) {
	bill.Subtotal = t.Subtotal
	bill.DiscountAmount = t.DiscountAmount
	bill.TaxableAmount = t.TaxableAmount
	bill.CGST = t.CGST
	bill.SGST = t.SGST
	bill.RoundOff = t.RoundOff
	bill.GrandTotal = t.GrandTotal
	bill.PaidAmount = t.PaidAmount
	bill.DueAmount = t.DueAmount
	bill.PaymentStatus = t.PaymentStatus
}

func applyPayment(bill *Bill, mode string, d PaymentDetails) {
	bill.PaymentMode = mode
	if mode == PaymentMixed {
		bill.CashAmount = d.Cash
		bill.CardAmount = d.Card
		bill.UPIAmount = d.UPI
	}
	bill.UPIRef = d.UPIRef
}

func discountOf(dtype string, value float64) (Discount, *string) {
	if dtype == "" {
		return Discount{}, nil
	}
	t := dtype
	return Discount{Type: dtype, Value: value}, &t
}

// CreatePharmacyBill runs the full pharmacy sale: check the request,
// plan stock allocation, price it, then commit bill number, bill,
// items and every batch decrement atomically.
func (c *Coordinator) CreatePharmacyBill(ctx context.Context, req *PharmacyBillRequest) (*BillResponse, error) {
	// Validating
	if req.PatientName == "" {
		return nil, apperr.Validation("payer name is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("a bill needs at least one item")
	}
	if req.PaymentMode == "" {
		return nil, apperr.Validation("payment mode is required")
	}
	for i, line := range req.Items {
		if line.MedicineID == uuid.Nil || line.BatchID == uuid.Nil {
			return nil, apperr.Validation("line %d: medicine and batch references are required", i+1)
		}
		if line.Quantity <= 0 {
			return nil, apperr.Validation("line %d: quantity must be positive", i+1)
		}
	}

	// Planning
	p, err := c.resolveParties(ctx, req.PatientRef, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if req.PrescriptionID != nil {
		if _, err := c.prescriptions.GetByID(ctx, *req.PrescriptionID); err != nil {
			return nil, err
		}
	}
	plan, err := c.ledger.CheckAndPlan(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	// Allocating
	amounts := make([]float64, len(plan))
	items := make([]*BillItem, len(plan))
	for i, line := range plan {
		amounts[i] = line.Amount
		medID, batchID := line.Medicine.ID, line.Batch.ID
		batchNo, expiry := line.Batch.BatchNo, line.Batch.Expiry
		items[i] = &BillItem{
			Description: line.Medicine.Name,
			MedicineID:  &medID,
			BatchID:     &batchID,
			BatchNo:     &batchNo,
			Expiry:      &expiry,
			Quantity:    line.Quantity,
			MRP:         line.Batch.MRP,
			UnitPrice:   line.UnitPrice,
			Amount:      line.Amount,
		}
	}
	discount, dtype := discountOf(req.DiscountType, req.DiscountValue)
	totals, err := ComputeTotals(amounts, discount, 0, req.PaymentMode, req.PaymentDetails)
	if err != nil {
		return nil, err
	}

	bill := &Bill{
		Category:       CategoryPharmacy,
		PatientName:    req.PatientName,
		PatientPhone:   req.PatientPhone,
		PrescriptionID: req.PrescriptionID,
		BillDate:       time.Now(),
		Items:          items,
		DiscountType:   dtype,
		DiscountValue:  req.DiscountValue,
		Remarks:        req.Remarks,
		CreatedBy:      auth.UserIDFromContext(ctx),
	}
	p.apply(bill)
	applyPayment(bill, req.PaymentMode, req.PaymentDetails)
	applyTotals(bill, totals)

	// Committing
	if err := c.commit(ctx, SeqPharmacyBills, bill, plan); err != nil {
		return nil, err
	}
	return p.respond(bill), nil
}

// CreateConsultationBill bills a doctor visit. The single line
// defaults to the doctor's consultation fee.
func (c *Coordinator) CreateConsultationBill(ctx context.Context, req *ConsultationBillRequest) (*BillResponse, error) {
	if req.PatientName == "" {
		return nil, apperr.Validation("payer name is required")
	}
	if req.DoctorID == uuid.Nil {
		return nil, apperr.Validation("doctor is required")
	}
	if req.PaymentMode == "" {
		return nil, apperr.Validation("payment mode is required")
	}

	p, err := c.resolveParties(ctx, req.PatientRef, &req.DoctorID)
	if err != nil {
		return nil, err
	}

	fee := p.doctor.ConsultationFee
	if req.Fee != nil {
		fee = *req.Fee
	}
	if fee <= 0 {
		return nil, apperr.Validation("consultation fee must be positive")
	}

	items := []*BillItem{{
		Description: "Consultation - " + p.doctor.Name,
		Quantity:    1,
		UnitPrice:   fee,
		Amount:      fee,
	}}
	discount, dtype := discountOf(req.DiscountType, req.DiscountValue)
	totals, err := ComputeTotals([]float64{fee}, discount, req.TaxRate, req.PaymentMode, req.PaymentDetails)
	if err != nil {
		return nil, err
	}

	bill := &Bill{
		Category:      CategoryConsultation,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		BillDate:      time.Now(),
		Items:         items,
		DiscountType:  dtype,
		DiscountValue: req.DiscountValue,
		Remarks:       req.Remarks,
		CreatedBy:     auth.UserIDFromContext(ctx),
	}
	p.apply(bill)
	applyPayment(bill, req.PaymentMode, req.PaymentDetails)
	applyTotals(bill, totals)

	if err := c.commit(ctx, SeqConsultationBills, bill, nil); err != nil {
		return nil, err
	}
	return p.respond(bill), nil
}

// CreateServiceBill bills named ancillary services with an explicit
// tax rate.
func (c *Coordinator) CreateServiceBill(ctx context.Context, req *ServiceBillRequest) (*BillResponse, error) {
	if req.PatientName == "" {
		return nil, apperr.Validation("payer name is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("a bill needs at least one item")
	}
	if req.PaymentMode == "" {
		return nil, apperr.Validation("payment mode is required")
	}
	for i, line := range req.Items {
		if line.Name == "" {
			return nil, apperr.Validation("line %d: service name is required", i+1)
		}
		if line.Quantity <= 0 {
			return nil, apperr.Validation("line %d: quantity must be positive", i+1)
		}
		if line.UnitPrice < 0 {
			return nil, apperr.Validation("line %d: unit price cannot be negative", i+1)
		}
	}

	p, err := c.resolveParties(ctx, req.PatientRef, req.DoctorID)
	if err != nil {
		return nil, err
	}

	amounts := make([]float64, len(req.Items))
	items := make([]*BillItem, len(req.Items))
	for i, line := range req.Items {
		amount := line.UnitPrice * float64(line.Quantity)
		amounts[i] = amount
		items[i] = &BillItem{
			Description: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      amount,
		}
	}
	discount, dtype := discountOf(req.DiscountType, req.DiscountValue)
	totals, err := ComputeTotals(amounts, discount, req.TaxRate, req.PaymentMode, req.PaymentDetails)
	if err != nil {
		return nil, err
	}

	bill := &Bill{
		Category:      CategoryService,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		BillDate:      time.Now(),
		Items:         items,
		DiscountType:  dtype,
		DiscountValue: req.DiscountValue,
		Remarks:       req.Remarks,
		CreatedBy:     auth.UserIDFromContext(ctx),
	}
	p.apply(bill)
	applyPayment(bill, req.PaymentMode, req.PaymentDetails)
	applyTotals(bill, totals)

	if err := c.commit(ctx, SeqServiceBills, bill, nil); err != nil {
		return nil, err
	}
	return p.respond(bill), nil
}

// commit is the single write phase. Everything runs in one
// transaction with a bounded deadline: the bill number allocation, the
// bill and item inserts, and every guarded batch decrement. Any
// failure rolls the whole unit back, including the allocated number.
func (c *Coordinator) commit(ctx context.Context, seqName string, bill *Bill, plan []*pharmacy.PlannedLine) error {
	ctx, cancel := context.WithTimeout(ctx, c.commitTimeout)
	defer cancel()

	err := c.runTx(ctx, func(ctx context.Context) error {
		no, err := c.seq.Next(ctx, seqName)
		if err != nil {
			return err
		}
		bill.BillNo = no

		if err := c.bills.Create(ctx, bill); err != nil {
			return err
		}

		for _, line := range plan {
			ok, err := c.batches.ApplySale(ctx, line.Batch.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// A concurrent sale took the stock between planning
				// and commit. The guard matched zero rows, so nothing
				// was decremented. Re-read the batch so the shortfall
				// reports the real remaining quantity; a failed re-read
				// is a storage error, not a shortfall.
				b, err := c.batches.GetByID(ctx, line.Batch.ID)
				if err != nil {
					return err
				}
				return apperr.InsufficientStock(line.Medicine.Name, line.Quantity, b.CurrentQty).
					WithDetail("batch_no", line.Batch.BatchNo)
			}
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInsufficientStock {
			return err
		}
		return apperr.TxFailure(err)
	}
	return nil
}

// -- Read surface --

func (c *Coordinator) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return c.bills.GetByID(ctx, id)
}

func (c *Coordinator) ListBills(ctx context.Context, filter ListFilter, limit, offset int) ([]*Bill, int, error) {
	return c.bills.List(ctx, filter, limit, offset)
}
