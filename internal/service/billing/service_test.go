package billing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"
	"github.com/orientmedical/diagnostics-api/pkg/logger"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/service/audit"
)

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	events   []*model.OutboxEvent
	seq      int64
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*model.Invoice)}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, invoice *model.Invoice, evt *model.OutboxEvent) error {
	cp := *invoice
	r.invoices[invoice.ID] = &cp
	r.events = append(r.events, evt)
	return nil
}

func (r *fakeInvoiceRepo) Get(_ context.Context, id, branchID uuid.UUID) (*model.Invoice, error) {
	invoice, ok := r.invoices[id]
	if !ok || invoice.BranchID != branchID {
		return nil, apperrors.NotFound("invoice", nil)
	}
	cp := *invoice
	return &cp, nil
}

func (r *fakeInvoiceRepo) List(_ context.Context, branchID uuid.UUID, filter *model.InvoiceFilter) ([]*model.Invoice, error) {
	var out []*model.Invoice
	for _, invoice := range r.invoices {
		if invoice.BranchID != branchID {
			continue
		}
		if filter.Status != "" && invoice.PaymentStatus != filter.Status {
			continue
		}
		cp := *invoice
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeInvoiceRepo) MarkPaid(_ context.Context, id, branchID uuid.UUID, method model.PaymentMethod, details []byte, operatorID uuid.UUID, paidAt time.Time, evt *model.OutboxEvent) (bool, error) {
	invoice, ok := r.invoices[id]
	if !ok || invoice.BranchID != branchID || invoice.PaymentStatus != model.PaymentStatusUnpaid {
		return false, nil
	}
	invoice.PaymentStatus = model.PaymentStatusPaid
	invoice.PaymentMethod = &method
	invoice.PaymentDetails = details
	invoice.PaidAt = &paidAt
	invoice.PaidBy = &operatorID
	r.events = append(r.events, evt)
	return true, nil
}

func (r *fakeInvoiceRepo) MarkVoided(_ context.Context, id, branchID uuid.UUID, reason string, _ uuid.UUID, voidedAt time.Time, evt *model.OutboxEvent) (bool, error) {
	invoice, ok := r.invoices[id]
	if !ok || invoice.BranchID != branchID || invoice.PaymentStatus != model.PaymentStatusUnpaid {
		return false, nil
	}
	invoice.PaymentStatus = model.PaymentStatusVoided
	invoice.VoidedAt = &voidedAt
	invoice.VoidReason = &reason
	r.events = append(r.events, evt)
	return true, nil
}

func (r *fakeInvoiceRepo) NextInvoiceSeq(_ context.Context) (int64, error) {
	r.seq++
	return r.seq, nil
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *fakePatientRepo) Create(_ context.Context, patient *model.Patient, _ *model.OutboxEvent) error {
	r.patients[patient.ID] = patient
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id, branchID uuid.UUID) (*model.Patient, error) {
	patient, ok := r.patients[id]
	if !ok || patient.BranchID != branchID {
		return nil, apperrors.NotFound("patient", nil)
	}
	return patient, nil
}

func (r *fakePatientRepo) GetByNumber(_ context.Context, _ string, _ uuid.UUID) (*model.Patient, error) {
	return nil, apperrors.NotFound("patient", nil)
}

func (r *fakePatientRepo) List(_ context.Context, _ uuid.UUID, _ *model.PatientFilter) ([]*model.Patient, error) {
	return nil, nil
}

func (r *fakePatientRepo) NextPatientSeq(_ context.Context) (int64, error) { return 1, nil }

type fakeCatalogRepo struct {
	tests map[uuid.UUID]*model.Test
}

func (r *fakeCatalogRepo) Create(_ context.Context, test *model.Test) error {
	r.tests[test.ID] = test
	return nil
}

func (r *fakeCatalogRepo) Get(_ context.Context, id, branchID uuid.UUID) (*model.Test, error) {
	test, ok := r.tests[id]
	if !ok || test.BranchID != branchID {
		return nil, apperrors.NotFound("test", nil)
	}
	return test, nil
}

func (r *fakeCatalogRepo) Update(_ context.Context, _ *model.Test) error { return nil }

func (r *fakeCatalogRepo) SetActive(_ context.Context, _, _ uuid.UUID, _ bool) error { return nil }

func (r *fakeCatalogRepo) List(_ context.Context, _ uuid.UUID, _ *model.TestFilter) ([]*model.Test, error) {
	return nil, nil
}

type fakeAuditRepo struct{ entries []*model.AuditLog }

func (r *fakeAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ uuid.UUID, _ *model.AuditFilter) ([]*model.AuditLog, error) {
	return r.entries, nil
}

type fixture struct {
	svc       *Service
	invoices  *fakeInvoiceRepo
	auditRepo *fakeAuditRepo
	principal *model.Principal
	patient   *model.Patient
	bloodTest *model.Test
	xray      *model.Test
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	branchID := uuid.New()
	tenantID := uuid.New()
	tenancy := model.Tenancy{TenantID: tenantID, BranchID: branchID}

	patient := &model.Patient{
		Base:          model.Base{ID: uuid.New()},
		Tenancy:       tenancy,
		PatientNumber: "OMC-2026-000001",
		FirstName:     "Ada",
		LastName:      "Obi",
	}

	bloodTest := &model.Test{
		Base:     model.Base{ID: uuid.New()},
		Tenancy:  tenancy,
		Code:     "FBC",
		Name:     "Full Blood Count",
		Category: model.TestCategoryLaboratory,
		Price:    decimal.NewFromInt(1000),
		Active:   true,
	}
	xray := &model.Test{
		Base:     model.Base{ID: uuid.New()},
		Tenancy:  tenancy,
		Code:     "CXR",
		Name:     "Chest X-Ray",
		Category: model.TestCategoryRadiology,
		Price:    decimal.NewFromInt(2000),
		Active:   true,
	}

	invoices := newFakeInvoiceRepo()
	patients := &fakePatientRepo{patients: map[uuid.UUID]*model.Patient{patient.ID: patient}}
	catalog := &fakeCatalogRepo{tests: map[uuid.UUID]*model.Test{bloodTest.ID: bloodTest, xray.ID: xray}}
	auditRepo := &fakeAuditRepo{}
	auditor := audit.NewService(auditRepo, logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}))

	svc := NewService(invoices, patients, catalog, auditor, Config{InvoiceNumberPrefix: "OMC-INV", Currency: "NGN"})

	return &fixture{
		svc:       svc,
		invoices:  invoices,
		auditRepo: auditRepo,
		principal: &model.Principal{
			UserID:   uuid.New(),
			TenantID: tenantID,
			BranchID: branchID,
			Role:     "receptionist",
		},
		patient:   patient,
		bloodTest: bloodTest,
		xray:      xray,
	}
}

func (f *fixture) createInvoice(t *testing.T, discount float64) *model.Invoice {
	t.Helper()
	invoice, err := f.svc.CreateInvoice(context.Background(), f.principal, &model.CreateInvoiceRequest{
		PatientID: f.patient.ID.String(),
		Items: []model.CreateInvoiceItem{
			{TestID: f.bloodTest.ID.String()},
			{TestID: f.xray.ID.String()},
		},
		DiscountPercentage: discount,
	})
	require.NoError(t, err)
	return invoice
}

func TestCreateInvoiceTotals(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, 10)

	assert.True(t, decimal.NewFromInt(3000).Equal(invoice.Subtotal), "subtotal = %s", invoice.Subtotal)
	assert.True(t, decimal.NewFromInt(300).Equal(invoice.DiscountAmount), "discount = %s", invoice.DiscountAmount)
	assert.True(t, decimal.NewFromInt(2700).Equal(invoice.TotalAmount), "total = %s", invoice.TotalAmount)
	assert.True(t, invoice.TotalAmount.Equal(invoice.NetAmount))
	assert.True(t, invoice.Subtotal.Sub(invoice.DiscountAmount).Equal(invoice.TotalAmount))

	assert.Equal(t, model.PaymentStatusUnpaid, invoice.PaymentStatus)
	assert.Nil(t, invoice.PaidAt)
	assert.Nil(t, invoice.PaymentMethod)
	assert.Equal(t, "NGN", invoice.Currency)
	assert.Regexp(t, `^OMC-INV-\d{4}-\d{6}$`, invoice.InvoiceNumber)
	assert.Len(t, invoice.Items, 2)
	assert.True(t, decimal.NewFromInt(1000).Equal(invoice.Items[0].Price))
}

func TestCreateInvoiceLineItemsAreSnapshots(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, 0)

	// A later price change must not leak into the stored invoice.
	f.bloodTest.Price = decimal.NewFromInt(9999)

	stored, err := f.svc.GetInvoice(context.Background(), f.principal, invoice.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3000).Equal(stored.Subtotal))
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateInvoice(ctx, f.principal, &model.CreateInvoiceRequest{
		PatientID: f.patient.ID.String(),
		Items:     nil,
	})
	assert.Error(t, err)
	assert.Empty(t, f.invoices.invoices, "no invoice should be persisted on validation failure")

	_, err = f.svc.CreateInvoice(ctx, f.principal, &model.CreateInvoiceRequest{
		PatientID: uuid.New().String(),
		Items:     []model.CreateInvoiceItem{{TestID: f.bloodTest.ID.String()}},
	})
	assert.Error(t, err, "unknown patient must be rejected")

	_, err = f.svc.CreateInvoice(ctx, f.principal, &model.CreateInvoiceRequest{
		PatientID:          f.patient.ID.String(),
		Items:              []model.CreateInvoiceItem{{TestID: f.bloodTest.ID.String()}},
		DiscountPercentage: 120,
	})
	assert.Error(t, err, "discount above 100 must be rejected")

	f.bloodTest.Active = false
	_, err = f.svc.CreateInvoice(ctx, f.principal, &model.CreateInvoiceRequest{
		PatientID: f.patient.ID.String(),
		Items:     []model.CreateInvoiceItem{{TestID: f.bloodTest.ID.String()}},
	})
	assert.Error(t, err, "inactive test must be rejected")
}

func TestPayInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, 0)

	paid, err := f.svc.PayInvoice(ctx, f.principal, invoice.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPaid, paid.PaymentStatus)
	require.NotNil(t, paid.PaymentMethod)
	assert.Equal(t, model.PaymentMethodCash, *paid.PaymentMethod)
	assert.NotNil(t, paid.PaidAt)
	require.NotNil(t, paid.PaidBy)
	assert.Equal(t, f.principal.UserID, *paid.PaidBy)
}

func TestPayInvoiceTwiceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, 0)

	_, err := f.svc.PayInvoice(ctx, f.principal, invoice.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = f.svc.PayInvoice(ctx, f.principal, invoice.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err), "second payment must be a conflict, got %v", err)

	stored, err := f.svc.GetInvoice(ctx, f.principal, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, stored.PaymentStatus, "state must be unchanged after rejected retry")
}

func TestPayInvoiceMethodDetails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv1 := f.createInvoice(t, 0)
	_, err := f.svc.PayInvoice(ctx, f.principal, inv1.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCard,
	})
	assert.Error(t, err, "card payment without details must be rejected")

	_, err = f.svc.PayInvoice(ctx, f.principal, inv1.ID, &model.PayInvoiceRequest{
		PaymentMethod:  model.PaymentMethodCard,
		CardLastFour:   "4242",
		TransactionRef: "TXN-1001",
	})
	assert.NoError(t, err)

	inv2 := f.createInvoice(t, 0)
	_, err = f.svc.PayInvoice(ctx, f.principal, inv2.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodTransfer,
	})
	assert.Error(t, err, "transfer payment without details must be rejected")

	_, err = f.svc.PayInvoice(ctx, f.principal, inv2.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodTransfer,
		TransferRef:   "TRF-88",
		BankName:      "First Bank",
	})
	assert.NoError(t, err)

	inv3 := f.createInvoice(t, 0)
	_, err = f.svc.PayInvoice(ctx, f.principal, inv3.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethod("cheque"),
	})
	assert.Error(t, err, "unknown method must be rejected")
}

func TestPayUnknownInvoiceIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PayInvoice(context.Background(), f.principal, uuid.New(), &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestVoidInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, 0)

	voided, err := f.svc.VoidInvoice(ctx, f.principal, invoice.ID, &model.VoidInvoiceRequest{Reason: "duplicate order"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusVoided, voided.PaymentStatus)
	assert.NotNil(t, voided.VoidedAt)

	// Voided invoices are terminal: they can be neither paid nor re-voided.
	_, err = f.svc.PayInvoice(ctx, f.principal, invoice.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	assert.True(t, apperrors.IsConflict(err))

	_, err = f.svc.VoidInvoice(ctx, f.principal, invoice.ID, &model.VoidInvoiceRequest{Reason: "again"})
	assert.True(t, apperrors.IsConflict(err))
}

func TestVoidPaidInvoiceIsConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, 0)

	_, err := f.svc.PayInvoice(ctx, f.principal, invoice.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)

	_, err = f.svc.VoidInvoice(ctx, f.principal, invoice.ID, &model.VoidInvoiceRequest{Reason: "mistake"})
	assert.True(t, apperrors.IsConflict(err))
}

func TestBillingEmitsOutboxEventsAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invoice := f.createInvoice(t, 0)

	_, err := f.svc.PayInvoice(ctx, f.principal, invoice.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)

	require.Len(t, f.invoices.events, 2)
	assert.Equal(t, model.EventInvoiceCreated, f.invoices.events[0].EventType)
	assert.Equal(t, model.EventInvoicePaid, f.invoices.events[1].EventType)

	require.Len(t, f.auditRepo.entries, 2)
	assert.Equal(t, "create", f.auditRepo.entries[0].Action)
	assert.Equal(t, "pay", f.auditRepo.entries[1].Action)
}

func TestListInvoicesByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createInvoice(t, 0)
	second := f.createInvoice(t, 0)

	_, err := f.svc.PayInvoice(ctx, f.principal, first.ID, &model.PayInvoiceRequest{
		PaymentMethod: model.PaymentMethodCash,
	})
	require.NoError(t, err)

	unpaid, err := f.svc.ListInvoices(ctx, f.principal, &model.InvoiceFilter{Status: model.PaymentStatusUnpaid})
	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, second.ID, unpaid[0].ID)

	paid, err := f.svc.ListInvoices(ctx, f.principal, &model.InvoiceFilter{Status: model.PaymentStatusPaid})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, first.ID, paid[0].ID)
}
