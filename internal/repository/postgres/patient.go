package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/model"
)

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient, evt *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO patients (
			id, tenant_id, branch_id, patient_number, first_name, last_name,
			phone, email, date_of_birth, gender, address, referral_provider_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
	`
	_, err = tx.ExecContext(ctx, query,
		patient.ID,
		patient.TenantID,
		patient.BranchID,
		patient.PatientNumber,
		patient.FirstName,
		patient.LastName,
		patient.Phone,
		patient.Email,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
		patient.ReferralProviderID,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}

	if err := insertOutboxEventTx(ctx, tx, evt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id, branchID uuid.UUID) (*model.Patient, error) {
	query := patientSelect + ` WHERE id = $1 AND branch_id = $2 AND deleted_at IS NULL`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id, branchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByNumber(ctx context.Context, number string, branchID uuid.UUID) (*model.Patient, error) {
	query := patientSelect + ` WHERE patient_number = $1 AND branch_id = $2 AND deleted_at IS NULL`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, number, branchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, fmt.Errorf("failed to get patient by number: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, branchID uuid.UUID, filter *model.PatientFilter) ([]*model.Patient, error) {
	query := patientSelect + ` WHERE branch_id = $1 AND deleted_at IS NULL`
	args := []interface{}{branchID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf(
			" AND (patient_number ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d OR phone ILIKE $%d)",
			n, n, n, n,
		)
	}

	args = append(args, filter.PageSize, filter.Offset())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) NextPatientSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, `SELECT nextval('patient_number_seq')`); err != nil {
		return 0, fmt.Errorf("failed to get next patient sequence: %w", err)
	}
	return seq, nil
}

const patientSelect = `
	SELECT id, tenant_id, branch_id, patient_number, first_name, last_name,
		phone, email, date_of_birth, gender, address, referral_provider_id,
		created_at, updated_at, deleted_at
	FROM patients`
