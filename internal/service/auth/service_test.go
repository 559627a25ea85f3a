package auth

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/orientmedical/diagnostics-api/pkg/auth"
	apperrors "github.com/orientmedical/diagnostics-api/pkg/errors"
	"github.com/orientmedical/diagnostics-api/pkg/logger"
	"github.com/orientmedical/diagnostics-api/pkg/security"

	"github.com/orientmedical/diagnostics-api/internal/model"
	"github.com/orientmedical/diagnostics-api/internal/service/authz"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := r.users[email]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return user, nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *pkgauth.JWTManager) {
	t.Helper()

	hash, err := security.HashPassword("correct-horse")
	require.NoError(t, err)

	repo := &fakeUserRepo{users: map[string]*model.User{
		"cashier@omc.ng": {
			Base:         model.Base{ID: uuid.New()},
			Tenancy:      model.Tenancy{TenantID: uuid.New(), BranchID: uuid.New()},
			Email:        "cashier@omc.ng",
			PasswordHash: hash,
			Role:         "cashier",
			Active:       true,
		},
	}}

	tokens := pkgauth.NewJWTManager(pkgauth.Config{Secret: "test-secret", Issuer: "test"})
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(repo, authz.NewService(authz.DefaultRegistry()), tokens, log)
	return svc, repo, tokens
}

func TestLoginIssuesPermissionSnapshot(t *testing.T) {
	svc, _, tokens := newTestService(t)

	pair, err := svc.Login(context.Background(), &model.LoginRequest{
		Email: "cashier@omc.ng", Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Positive(t, pair.ExpiresIn)

	claims, err := tokens.Validate(pair.AccessToken, pkgauth.AccessToken)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"billing:view", "billing:collect"}, claims.Permissions)
	assert.Equal(t, "cashier", claims.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, &model.LoginRequest{Email: "cashier@omc.ng", Password: "wrong"})
	assert.Error(t, err)

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "nobody@omc.ng", Password: "correct-horse"})
	assert.Error(t, err)

	repo.users["cashier@omc.ng"].Active = false
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "cashier@omc.ng", Password: "correct-horse"})
	assert.Error(t, err, "disabled accounts must not log in")
}

func TestRefreshRebuildsSnapshotFromCurrentRole(t *testing.T) {
	svc, repo, tokens := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, &model.LoginRequest{Email: "cashier@omc.ng", Password: "correct-horse"})
	require.NoError(t, err)

	// Role change takes effect on the next refresh.
	repo.users["cashier@omc.ng"].Role = "receptionist"

	refreshed, err := svc.Refresh(ctx, &model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	claims, err := tokens.Validate(refreshed.AccessToken, pkgauth.AccessToken)
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]string{"patients:view", "patients:create", "billing:create"},
		claims.Permissions)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	pair, err := svc.Login(ctx, &model.LoginRequest{Email: "cashier@omc.ng", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, &model.RefreshRequest{RefreshToken: pair.AccessToken})
	assert.Error(t, err, "an access token must not be usable for refresh")
}

func TestPrincipalFromClaims(t *testing.T) {
	claims := &pkgauth.Claims{
		UserID:      uuid.New(),
		TenantID:    uuid.New(),
		BranchID:    uuid.New(),
		Email:       "cashier@omc.ng",
		Role:        "cashier",
		Permissions: []string{"billing:view", "billing:collect", "garbage"},
	}

	principal := PrincipalFromClaims(claims)
	assert.Equal(t, claims.UserID, principal.UserID)
	require.Len(t, principal.Permissions, 2, "malformed entries are dropped")
	assert.Equal(t, model.Permission{Module: "billing", Action: "view"}, principal.Permissions[0])
}
