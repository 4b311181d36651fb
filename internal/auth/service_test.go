package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/svillagran/tienda-backend/pkg/auth"
	"github.com/svillagran/tienda-backend/pkg/auth/session"
	"github.com/svillagran/tienda-backend/pkg/config"
	"github.com/svillagran/tienda-backend/pkg/db/models"
	"github.com/svillagran/tienda-backend/pkg/enums"
	pkgerrors "github.com/svillagran/tienda-backend/pkg/errors"
	"github.com/svillagran/tienda-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "tienda-test",
	ExpirationMinutes: 15,
}

type stubUserRepo struct {
	byUsername map[string]*models.User
	lastLogin  map[uuid.UUID]time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byUsername: map[string]*models.User{},
		lastLogin:  map[uuid.UUID]time.Time{},
	}
}

func (s *stubUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin[id] = at
	return nil
}

type stubSessionManager struct {
	generated map[string]string
	revoked   []string
	rotateErr error
}

func newStubSessionManager() *stubSessionManager {
	return &stubSessionManager{generated: map[string]string{}}
}

func (s *stubSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.generated[accessID] = token
	return token, nil
}

func (s *stubSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	stored, ok := s.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.generated, oldAccessID)
	newID := session.NewAccessID()
	s.generated[newID] = "refresh-" + newID
	return newID, s.generated[newID], nil
}

func (s *stubSessionManager) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.generated, accessID)
	return nil
}

func seedUser(t *testing.T, repo *stubUserRepo, username, password string, active bool) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@tienda.cl",
		PasswordHash: hash,
		Role:         enums.UserRoleCustomer,
		IsActive:     active,
	}
	repo.byUsername[username] = user
	return user
}

func newAuthService(t *testing.T, repo *stubUserRepo, sessions *stubSessionManager) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
	})
	require.NoError(t, err)
	return svc
}

func TestLogin_success(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionManager()
	user := seedUser(t, repo, "svillagran", "hunter2hunter2", true)
	svc := newAuthService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "svillagran", Password: "hunter2hunter2"})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, user.ID, resp.User.ID)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Contains(t, repo.lastLogin, user.ID)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "svillagran", claims.Username)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)
	assert.Contains(t, sessions.generated, claims.ID)
}

func TestLogin_rejections(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionManager()
	seedUser(t, repo, "svillagran", "hunter2hunter2", true)
	seedUser(t, repo, "dormant", "hunter2hunter2", false)
	svc := newAuthService(t, repo, sessions)

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{name: "unknown user", req: LoginRequest{Username: "nobody", Password: "hunter2hunter2"}},
		{name: "wrong password", req: LoginRequest{Username: "svillagran", Password: "wrong-password"}},
		{name: "inactive user", req: LoginRequest{Username: "dormant", Password: "hunter2hunter2"}},
		{name: "blank username", req: LoginRequest{Password: "hunter2hunter2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.req)
			require.Error(t, err)
			domainErr := pkgerrors.As(err)
			require.NotNil(t, domainErr)
			assert.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
		})
	}
}

func TestRefresh_rotatesSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionManager()
	seedUser(t, repo, "svillagran", "hunter2hunter2", true)
	svc := newAuthService(t, repo, sessions)

	login, err := svc.Login(context.Background(), LoginRequest{Username: "svillagran", Password: "hunter2hunter2"})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	oldClaims, err := pkgauth.ParseAccessToken(testJWTConfig, login.AccessToken)
	require.NoError(t, err)
	newClaims, err := pkgauth.ParseAccessToken(testJWTConfig, refreshed.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.ID, newClaims.ID)
	assert.Equal(t, oldClaims.UserID, newClaims.UserID)

	// The old pair no longer rotates.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
}

func TestRefresh_badAccessToken(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionManager()
	svc := newAuthService(t, repo, sessions)

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, domainErr.Code())
}

func TestLogout_revokesSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessionManager()
	seedUser(t, repo, "svillagran", "hunter2hunter2", true)
	svc := newAuthService(t, repo, sessions)

	login, err := svc.Login(context.Background(), LoginRequest{Username: "svillagran", Password: "hunter2hunter2"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.AccessToken))

	claims, err := pkgauth.ParseAccessToken(testJWTConfig, login.AccessToken)
	require.NoError(t, err)
	assert.Contains(t, sessions.revoked, claims.ID)
	assert.NotContains(t, sessions.generated, claims.ID)
}
