package patient

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"
	"github.com/orientmedical/diagnostics-api/pkg/logger"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/service/audit"
)

type fakeRepo struct {
	patients map[uuid.UUID]*model.Patient
	events   []*model.OutboxEvent
	seq      int64
}

func (r *fakeRepo) Create(_ context.Context, patient *model.Patient, evt *model.OutboxEvent) error {
	r.patients[patient.ID] = patient
	r.events = append(r.events, evt)
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id, branchID uuid.UUID) (*model.Patient, error) {
	patient, ok := r.patients[id]
	if !ok || patient.BranchID != branchID {
		return nil, apperrors.NotFound("patient", nil)
	}
	return patient, nil
}

func (r *fakeRepo) GetByNumber(_ context.Context, number string, branchID uuid.UUID) (*model.Patient, error) {
	for _, patient := range r.patients {
		if patient.PatientNumber == number && patient.BranchID == branchID {
			return patient, nil
		}
	}
	return nil, apperrors.NotFound("patient", nil)
}

func (r *fakeRepo) List(_ context.Context, branchID uuid.UUID, _ *model.PatientFilter) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, patient := range r.patients {
		if patient.BranchID == branchID {
			out = append(out, patient)
		}
	}
	return out, nil
}

func (r *fakeRepo) NextPatientSeq(_ context.Context) (int64, error) {
	r.seq++
	return r.seq, nil
}

type fakeAuditRepo struct{}

func (r *fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }

func (r *fakeAuditRepo) List(_ context.Context, _ uuid.UUID, _ *model.AuditFilter) ([]*model.AuditLog, error) {
	return nil, nil
}

func newTestService() (*Service, *fakeRepo, *model.Principal) {
	repo := &fakeRepo{patients: make(map[uuid.UUID]*model.Patient)}
	auditor := audit.NewService(&fakeAuditRepo{}, logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}))
	principal := &model.Principal{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		BranchID: uuid.New(),
	}
	svc := NewService(repo, auditor, Config{NumberPrefix: "OMC"})
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }
	return svc, repo, principal
}

func TestRegisterAssignsSequentialNumbers(t *testing.T) {
	svc, repo, principal := newTestService()
	ctx := context.Background()

	first, err := svc.Register(ctx, principal, &model.RegisterPatientRequest{
		FirstName: "Ada", LastName: "Obi", Phone: "08030000001",
	})
	require.NoError(t, err)
	second, err := svc.Register(ctx, principal, &model.RegisterPatientRequest{
		FirstName: "Chidi", LastName: "Eze", Phone: "08030000002",
	})
	require.NoError(t, err)

	assert.Equal(t, "OMC-2026-000001", first.PatientNumber)
	assert.Equal(t, "OMC-2026-000002", second.PatientNumber)
	assert.Equal(t, principal.BranchID, first.BranchID)
	assert.Equal(t, principal.TenantID, first.TenantID)

	require.Len(t, repo.events, 2)
	assert.Equal(t, model.EventPatientRegistered, repo.events[0].EventType)
}

func TestRegisterParsesOptionalFields(t *testing.T) {
	svc, _, principal := newTestService()
	ctx := context.Background()

	patient, err := svc.Register(ctx, principal, &model.RegisterPatientRequest{
		FirstName:   "Ngozi",
		LastName:    "Ibe",
		Phone:       "08030000003",
		DateOfBirth: "1990-06-15",
		Gender:      "female",
	})
	require.NoError(t, err)
	require.NotNil(t, patient.DateOfBirth)
	assert.Equal(t, 1990, patient.DateOfBirth.Year())

	_, err = svc.Register(ctx, principal, &model.RegisterPatientRequest{
		FirstName: "Bad", LastName: "Date", Phone: "0803", DateOfBirth: "15/06/1990",
	})
	assert.Error(t, err)
}

func TestGetByNumber(t *testing.T) {
	svc, _, principal := newTestService()
	ctx := context.Background()

	created, err := svc.Register(ctx, principal, &model.RegisterPatientRequest{
		FirstName: "Ada", LastName: "Obi", Phone: "08030000001",
	})
	require.NoError(t, err)

	found, err := svc.GetByNumber(ctx, principal, created.PatientNumber)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Ada Obi", found.FullName())

	_, err = svc.GetByNumber(ctx, principal, "OMC-2026-999999")
	assert.True(t, apperrors.IsNotFound(err))
}
