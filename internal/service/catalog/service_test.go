package catalog

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"
	"github.com/orientmedical/diagnostics-api/pkg/logger"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/service/audit"
)

type fakeRepo struct {
	tests    map[uuid.UUID]*model.Test
	getCalls int
}

func (r *fakeRepo) Create(_ context.Context, test *model.Test) error {
	r.tests[test.ID] = test
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id, branchID uuid.UUID) (*model.Test, error) {
	r.getCalls++
	test, ok := r.tests[id]
	if !ok || test.BranchID != branchID {
		return nil, apperrors.NotFound("test", nil)
	}
	cp := *test
	return &cp, nil
}

func (r *fakeRepo) Update(_ context.Context, test *model.Test) error {
	r.tests[test.ID] = test
	return nil
}

func (r *fakeRepo) SetActive(_ context.Context, id, branchID uuid.UUID, active bool) error {
	test, ok := r.tests[id]
	if !ok || test.BranchID != branchID {
		return apperrors.NotFound("test", nil)
	}
	test.Active = active
	return nil
}

func (r *fakeRepo) List(_ context.Context, branchID uuid.UUID, filter *model.TestFilter) ([]*model.Test, error) {
	var out []*model.Test
	for _, test := range r.tests {
		if test.BranchID != branchID {
			continue
		}
		if filter.Category != "" && test.Category != filter.Category {
			continue
		}
		out = append(out, test)
	}
	return out, nil
}

type fakeAuditRepo struct{}

func (r *fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }

func (r *fakeAuditRepo) List(_ context.Context, _ uuid.UUID, _ *model.AuditFilter) ([]*model.AuditLog, error) {
	return nil, nil
}

func newTestService() (*Service, *fakeRepo, *model.Principal) {
	repo := &fakeRepo{tests: make(map[uuid.UUID]*model.Test)}
	auditor := audit.NewService(&fakeAuditRepo{}, logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}))
	principal := &model.Principal{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		BranchID: uuid.New(),
	}
	return NewService(repo, auditor), repo, principal
}

func TestCreateTest(t *testing.T) {
	svc, repo, principal := newTestService()

	test, err := svc.CreateTest(context.Background(), principal, &model.CreateTestRequest{
		Code:     "FBC",
		Name:     "Full Blood Count",
		Category: "laboratory",
		Price:    1500.50,
	})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromFloat(1500.50).Equal(test.Price))
	assert.True(t, test.Active, "new tests are orderable by default")
	assert.Equal(t, principal.BranchID, test.BranchID)
	assert.Contains(t, repo.tests, test.ID)

	_, err = svc.CreateTest(context.Background(), principal, &model.CreateTestRequest{
		Code: "X", Name: "X", Category: "general", Price: -5,
	})
	assert.Error(t, err)
}

func TestGetTestCachesReads(t *testing.T) {
	svc, repo, principal := newTestService()

	created, err := svc.CreateTest(context.Background(), principal, &model.CreateTestRequest{
		Code: "CXR", Name: "Chest X-Ray", Category: "radiology", Price: 2000,
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := svc.GetTest(context.Background(), principal, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
	}
	assert.Equal(t, 1, repo.getCalls, "repeated reads must be served from cache")
}

func TestUpdateTestInvalidatesCache(t *testing.T) {
	svc, repo, principal := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, principal, &model.CreateTestRequest{
		Code: "ECG", Name: "Electrocardiogram", Category: "cardiology", Price: 3000,
	})
	require.NoError(t, err)

	_, err = svc.GetTest(ctx, principal, created.ID)
	require.NoError(t, err)

	_, err = svc.UpdateTest(ctx, principal, created.ID, &model.UpdateTestRequest{
		Name: "Resting ECG", Price: 3500,
	})
	require.NoError(t, err)

	got, err := svc.GetTest(ctx, principal, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Resting ECG", got.Name)
	assert.True(t, decimal.NewFromInt(3500).Equal(got.Price), "stale price must not be served after update")

	assert.Contains(t, repo.tests, created.ID)
}

func TestSetTestActiveInvalidatesCache(t *testing.T) {
	svc, _, principal := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, principal, &model.CreateTestRequest{
		Code: "MPS", Name: "Malaria Parasite Smear", Category: "laboratory", Price: 800,
	})
	require.NoError(t, err)

	_, err = svc.GetTest(ctx, principal, created.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetTestActive(ctx, principal, created.ID, false))

	got, err := svc.GetTest(ctx, principal, created.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestBranchIsolation(t *testing.T) {
	svc, _, principal := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTest(ctx, principal, &model.CreateTestRequest{
		Code: "LFT", Name: "Liver Function Test", Category: "laboratory", Price: 4000,
	})
	require.NoError(t, err)

	other := &model.Principal{
		UserID:   uuid.New(),
		TenantID: principal.TenantID,
		BranchID: uuid.New(),
	}
	_, err = svc.GetTest(ctx, other, created.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err), "a test from another branch must be invisible")
}
