package auth

import (
	"context"
	"fmt"

	pkgauth "github.com/orientmedical/diagnostics-api/pkg/auth"
	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"
	"github.com/orientmedical/diagnostics-api/pkg/logger"
	"github.com/orientmedical/diagnostics-api/pkg/security"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/repository"
	"github.com/orientmedical/diagnostics-api/internal/service/authz"
)

// Service handles login and token refresh. At login the user's role
// template is expanded into a permission snapshot and denormalized into
// the access token; request-time authorization never touches storage.
type Service struct {
	users  repository.UserRepository
	authz  *authz.Service
	tokens *pkgauth.JWTManager
	logger *logger.Logger
}

func NewService(users repository.UserRepository, authzSvc *authz.Service, tokens *pkgauth.JWTManager, log *logger.Logger) *Service {
	return &Service{users: users, authz: authzSvc, tokens: tokens, logger: log}
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(nil)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Active {
		return nil, apperrors.Unauthorized(nil)
	}
	if !security.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("failed login attempt", "email", req.Email)
		return nil, apperrors.Unauthorized(nil)
	}

	return s.issueTokens(user)
}

// Refresh exchanges a refresh token for a new pair. The permission
// snapshot is rebuilt from the current role template, so role changes
// take effect at the next refresh rather than requiring re-login.
func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenPair, error) {
	claims, err := s.tokens.Validate(req.RefreshToken, pkgauth.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized(nil)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.Active {
		return nil, apperrors.Unauthorized(nil)
	}

	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *model.User) (*model.TokenPair, error) {
	template, ok := s.authz.Registry().Template(user.Role)
	if !ok {
		// An account with an unknown role gets a valid session with no
		// permissions rather than a hard failure.
		s.logger.Warn("user has unknown role", "user_id", user.ID.String(), "role", user.Role)
	}

	permissions := make([]string, 0, len(template.Permissions))
	for _, p := range template.Permissions {
		permissions = append(permissions, p.String())
	}

	claims := pkgauth.Claims{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		BranchID:    user.BranchID,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: permissions,
	}

	access, err := s.tokens.Generate(claims, pkgauth.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, err := s.tokens.Generate(claims, pkgauth.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}

// PrincipalFromClaims reconstructs the request principal from validated
// access token claims. Malformed permission entries are dropped.
func PrincipalFromClaims(claims *pkgauth.Claims) *model.Principal {
	permissions := make([]model.Permission, 0, len(claims.Permissions))
	for _, raw := range claims.Permissions {
		p, err := model.ParsePermission(raw)
		if err != nil {
			continue
		}
		permissions = append(permissions, p)
	}
	return &model.Principal{
		UserID:      claims.UserID,
		TenantID:    claims.TenantID,
		BranchID:    claims.BranchID,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: permissions,
	}
}
