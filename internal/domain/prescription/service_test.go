package prescription

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/apperr"
)

type mockRepo struct {
	prescriptions map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	for i, item := range p.Items {
		item.ID = uuid.New()
		item.PrescriptionID = p.ID
		item.Sequence = i + 1
	}
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, apperr.NotFound("prescription", id.String())
	}
	return p, nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var items []*Prescription
	for _, p := range m.prescriptions {
		if p.PatientID == patientID {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.prescriptions, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreate_AssignsLineSequence(t *testing.T) {
	svc := NewService(newMockRepo())

	p := &Prescription{
		PatientID: uuid.New(),
		Complaint: strPtr("fever, body ache"),
		Items: []*Item{
			{MedicineName: "Paracetamol 500mg", Dosage: strPtr("1-0-1"), Duration: strPtr("5 days")},
			{MedicineName: "Cetirizine 10mg", Dosage: strPtr("0-0-1"), Duration: strPtr("3 days")},
		},
	}

	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, item := range p.Items {
		if item.Sequence != i+1 {
			t.Errorf("line %d: expected sequence %d, got %d", i, i+1, item.Sequence)
		}
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())

	err := svc.Create(context.Background(), &Prescription{
		Items: []*Item{{MedicineName: "Paracetamol 500mg"}},
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for missing patient, got %v", err)
	}

	err = svc.Create(context.Background(), &Prescription{PatientID: uuid.New()})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty lines, got %v", err)
	}

	err = svc.Create(context.Background(), &Prescription{
		PatientID: uuid.New(),
		Items:     []*Item{{MedicineName: "Paracetamol 500mg"}, {}},
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unnamed medicine line, got %v", err)
	}
}

func TestListByPatient_FiltersOtherPatients(t *testing.T) {
	svc := NewService(newMockRepo())
	patientA := uuid.New()
	patientB := uuid.New()

	for _, pid := range []uuid.UUID{patientA, patientA, patientB} {
		p := &Prescription{PatientID: pid, Items: []*Item{{MedicineName: "Azithromycin 250mg"}}}
		if err := svc.Create(context.Background(), p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, total, err := svc.ListByPatient(context.Background(), patientA, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Errorf("expected 2 prescriptions for patient A, got %d", total)
	}
}
