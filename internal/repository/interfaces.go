package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/orientmedical/diagnostics-api/internal/model"
)

// InvoiceRepository persists invoices. Create and the Mark* transitions
// write the domain row and the outbox event in one transaction.
type InvoiceRepository interface {
	// Create inserts the invoice, its line items and the outbox event.
	Create(ctx context.Context, invoice *model.Invoice, evt *model.OutboxEvent) error

	// Get loads an invoice with its items, scoped to a branch.
	Get(ctx context.Context, id, branchID uuid.UUID) (*model.Invoice, error)

	List(ctx context.Context, branchID uuid.UUID, filter *model.InvoiceFilter) ([]*model.Invoice, error)

	// MarkPaid performs the unpaid->paid transition as a conditional
	// update. It returns false without error when no unpaid row matched,
	// in which case the caller distinguishes not-found from conflict.
	MarkPaid(ctx context.Context, id, branchID uuid.UUID, method model.PaymentMethod, details []byte, operatorID uuid.UUID, paidAt time.Time, evt *model.OutboxEvent) (bool, error)

	// MarkVoided performs the unpaid->voided transition under the same
	// conditional-update contract as MarkPaid.
	MarkVoided(ctx context.Context, id, branchID uuid.UUID, reason string, operatorID uuid.UUID, voidedAt time.Time, evt *model.OutboxEvent) (bool, error)

	// NextInvoiceSeq draws the next value of the invoice number sequence.
	NextInvoiceSeq(ctx context.Context) (int64, error)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient, evt *model.OutboxEvent) error
	Get(ctx context.Context, id, branchID uuid.UUID) (*model.Patient, error)
	GetByNumber(ctx context.Context, number string, branchID uuid.UUID) (*model.Patient, error)
	List(ctx context.Context, branchID uuid.UUID, filter *model.PatientFilter) ([]*model.Patient, error)
	NextPatientSeq(ctx context.Context) (int64, error)
}

type CatalogRepository interface {
	Create(ctx context.Context, test *model.Test) error
	Get(ctx context.Context, id, branchID uuid.UUID) (*model.Test, error)
	Update(ctx context.Context, test *model.Test) error
	SetActive(ctx context.Context, id, branchID uuid.UUID, active bool) error
	List(ctx context.Context, branchID uuid.UUID, filter *model.TestFilter) ([]*model.Test, error)
}

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, branchID uuid.UUID, filter *model.AuditFilter) ([]*model.AuditLog, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

type DashboardRepository interface {
	Overview(ctx context.Context, branchID uuid.UUID, now time.Time) (*model.DashboardOverview, error)
	RevenueByMethod(ctx context.Context, branchID uuid.UUID, since time.Time) ([]*model.RevenueByMethod, error)
}
