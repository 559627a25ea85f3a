package dashboard

import (
	"context"
	"time"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/repository"
)

// Service serves the operational read models for the branch dashboard.
type Service struct {
	repo repository.DashboardRepository
	now  func() time.Time
}

func NewService(repo repository.DashboardRepository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Overview(ctx context.Context, principal *model.Principal) (*model.DashboardOverview, error) {
	return s.repo.Overview(ctx, principal.BranchID, s.now())
}

// RevenueByMethod breaks paid revenue down by payment method since the
// given day count back from now (default 30 days).
func (s *Service) RevenueByMethod(ctx context.Context, principal *model.Principal, days int) ([]*model.RevenueByMethod, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)
	return s.repo.RevenueByMethod(ctx, principal.BranchID, since)
}
