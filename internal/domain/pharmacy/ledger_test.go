package pharmacy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

type mockMedicineRepo struct {
	medicines map[uuid.UUID]*Medicine
}

func newMockMedicineRepo() *mockMedicineRepo {
	return &mockMedicineRepo{medicines: make(map[uuid.UUID]*Medicine)}
}

func (m *mockMedicineRepo) Create(ctx context.Context, med *Medicine) error {
	med.ID = uuid.New()
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.medicines[id]
	if !ok {
		return nil, apperr.NotFound("medicine", id.String())
	}
	return med, nil
}

func (m *mockMedicineRepo) Update(ctx context.Context, med *Medicine) error {
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.medicines, id)
	return nil
}

func (m *mockMedicineRepo) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	var items []*Medicine
	for _, med := range m.medicines {
		items = append(items, med)
	}
	return items, len(items), nil
}

type mockBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*StockBatch
	reorder map[uuid.UUID]int // medicine id -> reorder level, for status recompute
}

func newMockBatchRepo() *mockBatchRepo {
	return &mockBatchRepo{
		batches: make(map[uuid.UUID]*StockBatch),
		reorder: make(map[uuid.UUID]int),
	}
}

func (m *mockBatchRepo) Create(ctx context.Context, b *StockBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uuid.New()
	m.batches[b.ID] = b
	return nil
}

func (m *mockBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*StockBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, apperr.NotFound("stock batch", id.String())
	}
	copy := *b
	return &copy, nil
}

func (m *mockBatchRepo) ListByMedicine(ctx context.Context, medicineID uuid.UUID) ([]*StockBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*StockBatch
	for _, b := range m.batches {
		if b.MedicineID == medicineID {
			items = append(items, b)
		}
	}
	return items, nil
}

func (m *mockBatchRepo) ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*StockBatch, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[string]bool)
	for _, s := range statuses {
		want[s] = true
	}
	var items []*StockBatch
	for _, b := range m.batches {
		if want[b.Status] {
			items = append(items, b)
		}
	}
	return items, len(items), nil
}

// ApplySale mirrors the guarded single-statement decrement: the check
// and the write happen under one lock, and a failed guard changes
// nothing.
func (m *mockBatchRepo) ApplySale(ctx context.Context, batchID uuid.UUID, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[batchID]
	if !ok || b.CurrentQty < qty {
		return false, nil
	}
	b.CurrentQty -= qty
	b.Status = DeriveStatus(b.CurrentQty, m.reorder[b.MedicineID], b.Expiry, time.Now())
	return true, nil
}

func futureExpiry() time.Time {
	return time.Now().AddDate(1, 0, 0)
}

func seedStock(t *testing.T, meds *mockMedicineRepo, batches *mockBatchRepo, reorderLevel, qty int) (*Medicine, *StockBatch) {
	t.Helper()
	med := &Medicine{Name: "Paracetamol 500mg", ReorderLevel: reorderLevel}
	if err := meds.Create(context.Background(), med); err != nil {
		t.Fatalf("seed medicine: %v", err)
	}
	batch := &StockBatch{
		MedicineID:   med.ID,
		BatchNo:      "PCM-2403",
		Expiry:       futureExpiry(),
		InitialQty:   qty,
		CurrentQty:   qty,
		MRP:          2.50,
		SellingPrice: 2.00,
		Status:       StatusActive,
	}
	if err := batches.Create(context.Background(), batch); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	batches.reorder[med.ID] = reorderLevel
	return med, batch
}

func TestCheckAndPlan_HappyPath(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	_, batch := seedStock(t, meds, batches, 5, 10)
	ledger := NewLedger(meds, batches)

	plan, err := ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: batch.MedicineID, BatchID: batch.ID, Quantity: 6},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 1 {
		t.Fatalf("expected 1 planned line, got %d", len(plan))
	}

	line := plan[0]
	if line.UnitPrice != 2.00 {
		t.Errorf("expected selling price 2.00, got %f", line.UnitPrice)
	}
	if line.Amount != 12.00 {
		t.Errorf("expected amount 12.00, got %f", line.Amount)
	}
	if line.NewQty != 4 {
		t.Errorf("expected post-sale qty 4, got %d", line.NewQty)
	}
	if line.NewStatus != StatusLow {
		t.Errorf("expected status low at qty 4 with reorder level 5, got %s", line.NewStatus)
	}
}

func TestCheckAndPlan_ExhaustedAtZero(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	_, batch := seedStock(t, meds, batches, 5, 4)
	ledger := NewLedger(meds, batches)

	plan, err := ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: batch.MedicineID, BatchID: batch.ID, Quantity: 4},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan[0].NewQty != 0 {
		t.Errorf("expected qty 0, got %d", plan[0].NewQty)
	}
	if plan[0].NewStatus != StatusExhausted {
		t.Errorf("expected exhausted, got %s", plan[0].NewStatus)
	}
}

func TestCheckAndPlan_InsufficientStock(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	_, batch := seedStock(t, meds, batches, 5, 3)
	ledger := NewLedger(meds, batches)

	_, err := ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: batch.MedicineID, BatchID: batch.ID, Quantity: 10},
	})
	if apperr.KindOf(err) != apperr.KindInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	// Planning must not have touched the stored quantity.
	stored, _ := batches.GetByID(context.Background(), batch.ID)
	if stored.CurrentQty != 3 {
		t.Errorf("planning wrote to stock: qty %d", stored.CurrentQty)
	}
}

func TestCheckAndPlan_ExpiredBatchRejected(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	med, _ := seedStock(t, meds, batches, 5, 10)

	expired := &StockBatch{
		MedicineID: med.ID,
		BatchNo:    "PCM-2201",
		Expiry:     time.Now().AddDate(0, -1, 0),
		InitialQty: 10,
		CurrentQty: 10,
		MRP:        2.50,
		Status:     StatusActive, // stale, not yet recomputed
	}
	if err := batches.Create(context.Background(), expired); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ledger := NewLedger(meds, batches)
	_, err := ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: med.ID, BatchID: expired.ID, Quantity: 1},
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for expired batch, got %v", err)
	}
}

func TestCheckAndPlan_WrongMedicineForBatch(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	_, batch := seedStock(t, meds, batches, 5, 10)

	other := &Medicine{Name: "Ibuprofen 400mg", ReorderLevel: 5}
	if err := meds.Create(context.Background(), other); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ledger := NewLedger(meds, batches)
	_, err := ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: other.ID, BatchID: batch.ID, Quantity: 1},
	})
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error for mismatched batch, got %v", err)
	}
}

func TestCheckAndPlan_UnknownRefs(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	_, batch := seedStock(t, meds, batches, 5, 10)
	ledger := NewLedger(meds, batches)

	_, err := ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: uuid.New(), BatchID: batch.ID, Quantity: 1},
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found for unknown medicine, got %v", err)
	}

	_, err = ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: batch.MedicineID, BatchID: uuid.New(), Quantity: 1},
	})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found for unknown batch, got %v", err)
	}
}

func TestCheckAndPlan_ZeroQuantity(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	_, batch := seedStock(t, meds, batches, 5, 10)
	ledger := NewLedger(meds, batches)

	_, err := ledger.CheckAndPlan(context.Background(), []SaleLine{
		{MedicineID: batch.MedicineID, BatchID: batch.ID, Quantity: 0},
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestApplySale_ConcurrentOversellPrevented(t *testing.T) {
	meds := newMockMedicineRepo()
	batches := newMockBatchRepo()
	const n = 10
	_, batch := seedStock(t, meds, batches, 2, n-1)

	var wg sync.WaitGroup
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := batches.ApplySale(context.Background(), batch.ID, 1)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	if succeeded != n-1 {
		t.Errorf("expected exactly %d successful sales, got %d", n-1, succeeded)
	}

	stored, _ := batches.GetByID(context.Background(), batch.ID)
	if stored.CurrentQty != 0 {
		t.Errorf("expected final qty 0, got %d", stored.CurrentQty)
	}
	if stored.Status != StatusExhausted {
		t.Errorf("expected exhausted, got %s", stored.Status)
	}
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	future := now.AddDate(1, 0, 0)
	past := now.AddDate(0, -1, 0)

	cases := []struct {
		name    string
		qty     int
		reorder int
		expiry  time.Time
		want    string
	}{
		{"active", 10, 5, future, StatusActive},
		{"at reorder level", 5, 5, future, StatusLow},
		{"below reorder level", 4, 5, future, StatusLow},
		{"empty", 0, 5, future, StatusExhausted},
		{"expired", 10, 5, past, StatusExpired},
		{"empty and expired", 0, 5, past, StatusExhausted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(tc.qty, tc.reorder, tc.expiry, now); got != tc.want {
				t.Errorf("DeriveStatus(%d, %d) = %s, want %s", tc.qty, tc.reorder, got, tc.want)
			}
		})
	}
}

func TestUnitPrice(t *testing.T) {
	b := &StockBatch{MRP: 10, SellingPrice: 8}
	if b.UnitPrice() != 8 {
		t.Errorf("expected selling price 8, got %f", b.UnitPrice())
	}

	b.SellingPrice = 0
	if b.UnitPrice() != 10 {
		t.Errorf("expected MRP fallback 10, got %f", b.UnitPrice())
	}
}
