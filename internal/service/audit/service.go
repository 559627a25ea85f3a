package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/repository"
	"github.com/orientmedical/diagnostics-api/pkg/logger"
)

type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger
}

func NewService(repo repository.AuditRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

type LogOptions struct {
	Changes   interface{}
	Metadata  interface{}
	IPAddress string
}

// Log writes one audit entry. Audit failures are logged and swallowed so
// a broken trail never blocks the domain operation it describes.
func (s *Service) Log(ctx context.Context, principal *model.Principal, action, entityType string, entityID uuid.UUID, opts *LogOptions) {
	entry := &model.AuditLog{
		ID:         uuid.New(),
		UserID:     principal.UserID,
		TenantID:   principal.TenantID,
		BranchID:   principal.BranchID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
	}

	if opts != nil {
		if opts.Changes != nil {
			if raw, err := json.Marshal(opts.Changes); err == nil {
				entry.Changes = raw
			}
		}
		if opts.Metadata != nil {
			if raw, err := json.Marshal(opts.Metadata); err == nil {
				entry.Metadata = raw
			}
		}
		entry.IPAddress = opts.IPAddress
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error(err, "failed to write audit log",
			"action", action, "entity_type", entityType, "entity_id", entityID.String())
	}
}

func (s *Service) List(ctx context.Context, branchID uuid.UUID, filter *model.AuditFilter) ([]*model.AuditLog, error) {
	filter.Normalize()
	return s.repo.List(ctx, branchID, filter)
}
