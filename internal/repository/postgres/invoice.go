package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/model"
)

const uniqueViolation = "23505"

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice, evt *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invoices (
			id, tenant_id, branch_id, invoice_number, patient_id,
			subtotal, discount_percentage, discount_amount, total_amount, net_amount,
			currency, referral_provider_id, payment_status, created_by, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`
	_, err = tx.ExecContext(ctx, query,
		invoice.ID,
		invoice.TenantID,
		invoice.BranchID,
		invoice.InvoiceNumber,
		invoice.PatientID,
		invoice.Subtotal,
		invoice.DiscountPercentage,
		invoice.DiscountAmount,
		invoice.TotalAmount,
		invoice.NetAmount,
		invoice.Currency,
		invoice.ReferralProviderID,
		invoice.PaymentStatus,
		invoice.CreatedBy,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflict("invoice number already exists", err)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	itemQuery := `
		INSERT INTO invoice_items (id, invoice_id, test_id, name, price)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if _, err := tx.ExecContext(ctx, itemQuery,
			item.ID, item.InvoiceID, item.TestID, item.Name, item.Price,
		); err != nil {
			return fmt.Errorf("failed to create invoice item: %w", err)
		}
	}

	if err := insertOutboxEventTx(ctx, tx, evt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id, branchID uuid.UUID) (*model.Invoice, error) {
	query := `
		SELECT id, tenant_id, branch_id, invoice_number, patient_id,
			subtotal, discount_percentage, discount_amount, total_amount, net_amount,
			currency, referral_provider_id, payment_status, payment_method, payment_details,
			paid_at, paid_by, voided_at, voided_by, void_reason, created_by,
			created_at, updated_at, deleted_at
		FROM invoices
		WHERE id = $1 AND branch_id = $2 AND deleted_at IS NULL
	`
	var invoice model.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, id, branchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("invoice", err)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	itemQuery := `
		SELECT id, invoice_id, test_id, name, price
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY name ASC
	`
	var items []model.InvoiceItem
	if err := r.db.SelectContext(ctx, &items, itemQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get invoice items: %w", err)
	}
	invoice.Items = items

	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, branchID uuid.UUID, filter *model.InvoiceFilter) ([]*model.Invoice, error) {
	query := `
		SELECT id, tenant_id, branch_id, invoice_number, patient_id,
			subtotal, discount_percentage, discount_amount, total_amount, net_amount,
			currency, referral_provider_id, payment_status, payment_method,
			paid_at, paid_by, voided_at, voided_by, void_reason, created_by,
			created_at, updated_at, deleted_at
		FROM invoices
		WHERE branch_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{branchID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if filter.PatientID != nil {
		args = append(args, *filter.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}

	args = append(args, filter.PageSize, filter.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var invoices []*model.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// MarkPaid is the double-payment guard: the status predicate in the WHERE
// clause means at most one concurrent payment can flip the row, and a
// second attempt matches zero rows.
func (r *invoiceRepository) MarkPaid(ctx context.Context, id, branchID uuid.UUID, method model.PaymentMethod, details []byte, operatorID uuid.UUID, paidAt time.Time, evt *model.OutboxEvent) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE invoices
		SET payment_status = $1,
			payment_method = $2,
			payment_details = $3,
			paid_at = $4,
			paid_by = $5,
			updated_at = $4
		WHERE id = $6 AND branch_id = $7 AND payment_status = $8 AND deleted_at IS NULL
	`
	result, err := tx.ExecContext(ctx, query,
		model.PaymentStatusPaid,
		method,
		details,
		paidAt,
		operatorID,
		id,
		branchID,
		model.PaymentStatusUnpaid,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark invoice paid: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if err := insertOutboxEventTx(ctx, tx, evt); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit payment: %w", err)
	}
	return true, nil
}

func (r *invoiceRepository) MarkVoided(ctx context.Context, id, branchID uuid.UUID, reason string, operatorID uuid.UUID, voidedAt time.Time, evt *model.OutboxEvent) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE invoices
		SET payment_status = $1,
			voided_at = $2,
			voided_by = $3,
			void_reason = $4,
			updated_at = $2
		WHERE id = $5 AND branch_id = $6 AND payment_status = $7 AND deleted_at IS NULL
	`
	result, err := tx.ExecContext(ctx, query,
		model.PaymentStatusVoided,
		voidedAt,
		operatorID,
		reason,
		id,
		branchID,
		model.PaymentStatusUnpaid,
	)
	if err != nil {
		return false, fmt.Errorf("failed to void invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if err := insertOutboxEventTx(ctx, tx, evt); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit void: %w", err)
	}
	return true, nil
}

func (r *invoiceRepository) NextInvoiceSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('invoice_number_seq')`); err != nil {
		return 0, fmt.Errorf("failed to get next invoice sequence: %w", err)
	}
	return seq, nil
}

func insertOutboxEventTx(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error {
	if evt == nil {
		return nil
	}
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.ExecContext(ctx, query,
		evt.ID, evt.EventType, evt.Payload, evt.Status, evt.RetryCount, evt.CreatedAt, evt.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
