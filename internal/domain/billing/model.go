package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/pharmacy"
	"github.com/clinicore/clinicore/internal/domain/registry"
)

const (
	CategoryConsultation = "consultation"
	CategoryService      = "service"
	CategoryPharmacy     = "pharmacy"
)

const (
	DiscountFixed      = "fixed"
	DiscountPercentage = "percentage"
)

const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentUPI   = "upi"
	PaymentMixed = "mixed"
)

const (
	PaymentStatusPaid    = "paid"
	PaymentStatusPartial = "partial"
	PaymentStatusPending = "pending"
)

// PaymentDetails is the per-channel breakdown for mixed payments.
// Channels not used are simply zero.
type PaymentDetails struct {
	Cash   float64 `json:"cash"`
	Card   float64 `json:"card"`
	UPI    float64 `json:"upi"`
	UPIRef *string `json:"upi_ref,omitempty"`
}

// Bill maps to the bills table. A bill is written exactly once by the
// commit and never mutated afterwards; corrections are separate
// counter-documents.
type Bill struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	BillNo         string      `db:"bill_no" json:"bill_no"`
	Category       string      `db:"category" json:"category"`
	PatientID      *uuid.UUID  `db:"patient_id" json:"patient_id,omitempty"`
	PatientName    string      `db:"patient_name" json:"patient_name"`
	PatientPhone   *string     `db:"patient_phone" json:"patient_phone,omitempty"`
	DoctorID       *uuid.UUID  `db:"doctor_id" json:"doctor_id,omitempty"`
	PrescriptionID *uuid.UUID  `db:"prescription_id" json:"prescription_id,omitempty"`
	BillDate       time.Time   `db:"bill_date" json:"bill_date"`
	Items          []*BillItem `db:"-" json:"items"`

	Subtotal       float64 `db:"subtotal" json:"subtotal"`
	DiscountType   *string `db:"discount_type" json:"discount_type,omitempty"`
	DiscountValue  float64 `db:"discount_value" json:"discount_value"`
	DiscountAmount float64 `db:"discount_amount" json:"discount_amount"`
	TaxableAmount  float64 `db:"taxable_amount" json:"taxable_amount"`
	CGST           float64 `db:"cgst" json:"cgst"`
	SGST           float64 `db:"sgst" json:"sgst"`
	RoundOff       float64 `db:"round_off" json:"round_off"`
	GrandTotal     float64 `db:"grand_total" json:"grand_total"`

	PaymentMode   string  `db:"payment_mode" json:"payment_mode"`
	CashAmount    float64 `db:"cash_amount" json:"cash_amount"`
	CardAmount    float64 `db:"card_amount" json:"card_amount"`
	UPIAmount     float64 `db:"upi_amount" json:"upi_amount"`
	UPIRef        *string `db:"upi_ref" json:"upi_ref,omitempty"`
	PaidAmount    float64 `db:"paid_amount" json:"paid_amount"`
	DueAmount     float64 `db:"due_amount" json:"due_amount"`
	PaymentStatus string  `db:"payment_status" json:"payment_status"`

	Remarks   *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BillItem is one line of a bill. Pharmacy lines snapshot the medicine
// and batch at sale time (name, batch no, expiry, prices) so the bill
// stays readable even after the catalog changes.
type BillItem struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	BillID      uuid.UUID  `db:"bill_id" json:"bill_id"`
	Sequence    int        `db:"sequence" json:"sequence"`
	Description string     `db:"description" json:"description"`
	MedicineID  *uuid.UUID `db:"medicine_id" json:"medicine_id,omitempty"`
	BatchID     *uuid.UUID `db:"batch_id" json:"batch_id,omitempty"`
	BatchNo     *string    `db:"batch_no" json:"batch_no,omitempty"`
	Expiry      *time.Time `db:"expiry" json:"expiry,omitempty"`
	Quantity    int        `db:"quantity" json:"quantity"`
	MRP         float64    `db:"mrp" json:"mrp"`
	UnitPrice   float64    `db:"unit_price" json:"unit_price"`
	Amount      float64    `db:"amount" json:"amount"`
}

// BillResponse decorates a bill with denormalized registry summaries
// for display.
type BillResponse struct {
	*Bill
	Patient *registry.Summary       `json:"patient,omitempty"`
	Doctor  *registry.DoctorSummary `json:"doctor,omitempty"`
}

// PharmacyBillRequest is the payload for a pharmacy sale. PatientRef
// accepts either the patient UUID or the human patient number; the
// payer name stands alone for walk-in sales.
type PharmacyBillRequest struct {
	PatientRef     string              `json:"patient_id"`
	PatientName    string              `json:"patient_name"`
	PatientPhone   *string             `json:"patient_phone,omitempty"`
	DoctorID       *uuid.UUID          `json:"doctor_id,omitempty"`
	PrescriptionID *uuid.UUID          `json:"prescription_id,omitempty"`
	Items          []pharmacy.SaleLine `json:"items"`
	DiscountType   string              `json:"discount_type,omitempty"`
	DiscountValue  float64             `json:"discount_value,omitempty"`
	PaymentMode    string              `json:"payment_mode"`
	PaymentDetails PaymentDetails      `json:"payment_details"`
	Remarks        *string             `json:"remarks,omitempty"`
}

// ServiceLine is one named ancillary service on a service bill.
type ServiceLine struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type ServiceBillRequest struct {
	PatientRef     string         `json:"patient_id"`
	PatientName    string         `json:"patient_name"`
	PatientPhone   *string        `json:"patient_phone,omitempty"`
	DoctorID       *uuid.UUID     `json:"doctor_id,omitempty"`
	Items          []ServiceLine  `json:"items"`
	TaxRate        float64        `json:"tax_rate"`
	DiscountType   string         `json:"discount_type,omitempty"`
	DiscountValue  float64        `json:"discount_value,omitempty"`
	PaymentMode    string         `json:"payment_mode"`
	PaymentDetails PaymentDetails `json:"payment_details"`
	Remarks        *string        `json:"remarks,omitempty"`
}

// ConsultationBillRequest bills a doctor visit. When Fee is nil the
// doctor's configured consultation fee is charged.
type ConsultationBillRequest struct {
	PatientRef     string         `json:"patient_id"`
	PatientName    string         `json:"patient_name"`
	PatientPhone   *string        `json:"patient_phone,omitempty"`
	DoctorID       uuid.UUID      `json:"doctor_id"`
	Fee            *float64       `json:"fee,omitempty"`
	TaxRate        float64        `json:"tax_rate"`
	DiscountType   string         `json:"discount_type,omitempty"`
	DiscountValue  float64        `json:"discount_value,omitempty"`
	PaymentMode    string         `json:"payment_mode"`
	PaymentDetails PaymentDetails `json:"payment_details"`
	Remarks        *string        `json:"remarks,omitempty"`
}
