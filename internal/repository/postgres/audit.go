package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/orientmedical/diagnostics-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, entry *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, user_id, tenant_id, branch_id, action, entity_type, entity_id,
			changes, metadata, ip_address, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.TenantID,
		entry.BranchID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Changes,
		entry.Metadata,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, branchID uuid.UUID, filter *model.AuditFilter) ([]*model.AuditLog, error) {
	query := `
		SELECT id, user_id, tenant_id, branch_id, action, entity_type, entity_id,
			changes, metadata, ip_address, created_at
		FROM audit_logs
		WHERE branch_id = $1
	`
	args := []interface{}{branchID}

	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}

	args = append(args, filter.PageSize, filter.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var entries []*model.AuditLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}
