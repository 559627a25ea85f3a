package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/repository"
	"github.com/orientmedical/diagnostics-api/internal/service/audit"
)

// Config carries patient registration settings.
type Config struct {
	NumberPrefix string
}

type Service struct {
	repo    repository.PatientRepository
	auditor *audit.Service
	cfg     Config
	now     func() time.Time
}

func NewService(repo repository.PatientRepository, auditor *audit.Service, cfg Config) *Service {
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = "OMC"
	}
	return &Service{repo: repo, auditor: auditor, cfg: cfg, now: time.Now}
}

// Register creates a patient record and assigns the next registration
// number, e.g. OMC-2026-000153.
func (s *Service) Register(ctx context.Context, principal *model.Principal, req *model.RegisterPatientRequest) (*model.Patient, error) {
	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return nil, apperrors.BadRequest("invalid date of birth", err)
		}
		dob = &parsed
	}

	var referralID *uuid.UUID
	if req.ReferralProviderID != "" {
		id, err := uuid.Parse(req.ReferralProviderID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid referral provider id", err)
		}
		referralID = &id
	}

	seq, err := s.repo.NextPatientSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate patient number: %w", err)
	}

	now := s.now()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Tenancy: model.Tenancy{
			TenantID: principal.TenantID,
			BranchID: principal.BranchID,
		},
		PatientNumber:      fmt.Sprintf("%s-%d-%06d", s.cfg.NumberPrefix, now.Year(), seq),
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Phone:              req.Phone,
		Email:              req.Email,
		DateOfBirth:        dob,
		Gender:             req.Gender,
		Address:            req.Address,
		ReferralProviderID: referralID,
	}

	evt, err := model.NewOutboxEvent(model.EventPatientRegistered, patient)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, patient, evt); err != nil {
		return nil, fmt.Errorf("failed to register patient: %w", err)
	}

	s.auditor.Log(ctx, principal, "register", "patient", patient.ID, &audit.LogOptions{Changes: patient})

	return patient, nil
}

func (s *Service) Get(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Patient, error) {
	return s.repo.Get(ctx, id, principal.BranchID)
}

// GetByNumber looks a patient up by the front-desk registration number.
func (s *Service) GetByNumber(ctx context.Context, principal *model.Principal, number string) (*model.Patient, error) {
	return s.repo.GetByNumber(ctx, number, principal.BranchID)
}

func (s *Service) List(ctx context.Context, principal *model.Principal, filter *model.PatientFilter) ([]*model.Patient, error) {
	filter.Normalize()
	return s.repo.List(ctx, principal.BranchID, filter)
}
