package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/orientmedical/diagnostics-api/internal/model"
)

func (r *dashboardRepository) Overview(ctx context.Context, branchID uuid.UUID, now time.Time) (*model.DashboardOverview, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	query := `
		SELECT
			(SELECT COUNT(*) FROM patients
				WHERE branch_id = $1 AND deleted_at IS NULL AND created_at >= $2) AS patients_today,
			(SELECT COUNT(*) FROM patients
				WHERE branch_id = $1 AND deleted_at IS NULL) AS patients_total,
			(SELECT COUNT(*) FROM invoices
				WHERE branch_id = $1 AND deleted_at IS NULL AND payment_status = 'unpaid') AS invoices_unpaid,
			(SELECT COALESCE(SUM(net_amount), 0) FROM invoices
				WHERE branch_id = $1 AND deleted_at IS NULL AND payment_status = 'unpaid') AS outstanding_amount,
			(SELECT COUNT(*) FROM invoices
				WHERE branch_id = $1 AND deleted_at IS NULL AND payment_status = 'paid' AND paid_at >= $2) AS invoices_paid_today,
			(SELECT COALESCE(SUM(net_amount), 0) FROM invoices
				WHERE branch_id = $1 AND deleted_at IS NULL AND payment_status = 'paid' AND paid_at >= $2) AS revenue_today,
			(SELECT COALESCE(SUM(net_amount), 0) FROM invoices
				WHERE branch_id = $1 AND deleted_at IS NULL AND payment_status = 'paid' AND paid_at >= $3) AS revenue_month_to_date
	`
	var overview model.DashboardOverview
	if err := r.db.GetContext(ctx, &overview, query, branchID, dayStart, monthStart); err != nil {
		return nil, fmt.Errorf("failed to get dashboard overview: %w", err)
	}
	return &overview, nil
}

func (r *dashboardRepository) RevenueByMethod(ctx context.Context, branchID uuid.UUID, since time.Time) ([]*model.RevenueByMethod, error) {
	query := `
		SELECT payment_method, COUNT(*) AS invoice_count, COALESCE(SUM(net_amount), 0) AS amount
		FROM invoices
		WHERE branch_id = $1 AND deleted_at IS NULL
			AND payment_status = 'paid' AND paid_at >= $2
		GROUP BY payment_method
		ORDER BY amount DESC
	`
	var rows []*model.RevenueByMethod
	if err := r.db.SelectContext(ctx, &rows, query, branchID, since); err != nil {
		return nil, fmt.Errorf("failed to get revenue by method: %w", err)
	}
	return rows, nil
}
