package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/repository"
	"github.com/orientmedical/diagnostics-api/internal/service/audit"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 10 * time.Minute
)

// Service manages the test catalog. Single-test reads go through a
// read-through cache; writes invalidate the affected entry.
type Service struct {
	repo    repository.CatalogRepository
	auditor *audit.Service
	cache   *cache.Cache
}

func NewService(repo repository.CatalogRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		cache:   cache.New(cacheTTL, cacheCleanup),
	}
}

func cacheKey(id, branchID uuid.UUID) string {
	return fmt.Sprintf("test:%s:%s", branchID, id)
}

func (s *Service) CreateTest(ctx context.Context, principal *model.Principal, req *model.CreateTestRequest) (*model.Test, error) {
	price := decimal.NewFromFloat(req.Price).Round(2)
	if price.IsNegative() || price.IsZero() {
		return nil, apperrors.BadRequest("price must be positive", nil)
	}

	now := time.Now()
	test := &model.Test{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Tenancy: model.Tenancy{
			TenantID: principal.TenantID,
			BranchID: principal.BranchID,
		},
		Code:     req.Code,
		Name:     req.Name,
		Category: model.TestCategory(req.Category),
		Price:    price,
		Active:   true,
	}

	if err := s.repo.Create(ctx, test); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, principal, "create", "test", test.ID, &audit.LogOptions{Changes: test})

	return test, nil
}

// GetTest returns a single catalog entry, serving from cache when warm.
func (s *Service) GetTest(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Test, error) {
	key := cacheKey(id, principal.BranchID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*model.Test), nil
	}

	test, err := s.repo.Get(ctx, id, principal.BranchID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, test, cache.DefaultExpiration)
	return test, nil
}

func (s *Service) UpdateTest(ctx context.Context, principal *model.Principal, id uuid.UUID, req *model.UpdateTestRequest) (*model.Test, error) {
	test, err := s.repo.Get(ctx, id, principal.BranchID)
	if err != nil {
		return nil, err
	}

	price := decimal.NewFromFloat(req.Price).Round(2)
	if price.IsNegative() || price.IsZero() {
		return nil, apperrors.BadRequest("price must be positive", nil)
	}

	test.Name = req.Name
	test.Price = price
	test.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, test); err != nil {
		return nil, err
	}

	s.cache.Delete(cacheKey(id, principal.BranchID))
	s.auditor.Log(ctx, principal, "update", "test", id, &audit.LogOptions{Changes: req})

	return test, nil
}

// SetTestActive toggles whether a test can appear on new invoices.
// Deactivation does not touch existing invoices; they carry snapshots.
func (s *Service) SetTestActive(ctx context.Context, principal *model.Principal, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, principal.BranchID, active); err != nil {
		return err
	}

	s.cache.Delete(cacheKey(id, principal.BranchID))

	action := "deactivate"
	if active {
		action = "activate"
	}
	s.auditor.Log(ctx, principal, action, "test", id, nil)

	return nil
}

func (s *Service) ListTests(ctx context.Context, principal *model.Principal, filter *model.TestFilter) ([]*model.Test, error) {
	filter.Normalize()
	return s.repo.List(ctx, principal.BranchID, filter)
}
