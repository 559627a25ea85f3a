package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/model"
)

func (r *catalogRepository) Create(ctx context.Context, test *model.Test) error {
	query := `
		INSERT INTO tests (
			id, tenant_id, branch_id, code, name, category, price, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		test.ID,
		test.TenantID,
		test.BranchID,
		test.Code,
		test.Name,
		test.Category,
		test.Price,
		test.Active,
		test.CreatedAt,
		test.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.Conflict("test code already exists", err)
		}
		return fmt.Errorf("failed to create test: %w", err)
	}
	return nil
}

func (r *catalogRepository) Get(ctx context.Context, id, branchID uuid.UUID) (*model.Test, error) {
	query := `
		SELECT id, tenant_id, branch_id, code, name, category, price, active,
			created_at, updated_at, deleted_at
		FROM tests
		WHERE id = $1 AND branch_id = $2 AND deleted_at IS NULL
	`
	var test model.Test
	if err := r.db.GetContext(ctx, &test, query, id, branchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("test", err)
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	return &test, nil
}

func (r *catalogRepository) Update(ctx context.Context, test *model.Test) error {
	query := `
		UPDATE tests
		SET name = $1, price = $2, updated_at = $3
		WHERE id = $4 AND branch_id = $5 AND deleted_at IS NULL
	`
	test.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		test.Name, test.Price, test.UpdatedAt, test.ID, test.BranchID,
	)
	if err != nil {
		return fmt.Errorf("failed to update test: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("test", nil)
	}
	return nil
}

func (r *catalogRepository) SetActive(ctx context.Context, id, branchID uuid.UUID, active bool) error {
	query := `
		UPDATE tests
		SET active = $1, updated_at = $2
		WHERE id = $3 AND branch_id = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, active, time.Now(), id, branchID)
	if err != nil {
		return fmt.Errorf("failed to update test status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("test", nil)
	}
	return nil
}

func (r *catalogRepository) List(ctx context.Context, branchID uuid.UUID, filter *model.TestFilter) ([]*model.Test, error) {
	query := `
		SELECT id, tenant_id, branch_id, code, name, category, price, active,
			created_at, updated_at, deleted_at
		FROM tests
		WHERE branch_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{branchID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}

	args = append(args, filter.PageSize, filter.Offset())
	query += fmt.Sprintf(" ORDER BY name ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var tests []*model.Test
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}
