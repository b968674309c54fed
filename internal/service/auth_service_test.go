package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

type mapRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMapRevoker() *mapRevoker {
	return &mapRevoker{revoked: make(map[string]bool)}
}

func (r *mapRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = true
	return nil
}

func (r *mapRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[jti], nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
		AdminEmail:            "admin@x.com",
		AdminPassword:         "admin-pass",
	}
}

func newTestAuthService() (*AuthService, *mapRevoker) {
	revoker := newMapRevoker()
	return NewAuthService(testAuthConfig(), memory.NewUserStore(), revoker), revoker
}

func TestAuthService_RegisterIssuesUsableToken(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	user, token, exp, err := svc.Register(ctx, "a@x.com", "Alice A", "pw1")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, "Alice A", user.FullName)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "pw1", user.PasswordHash)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestAuthService_RegisterDuplicateEmailFails(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "a@x.com", "Alice A", "pw1")
	require.NoError(t, err)

	_, _, _, err = svc.Register(ctx, "a@x.com", "Alice Again", "pw2")
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_IDENTITY", apperrors.ToDomainError(err).Code)
}

func TestAuthService_LoginMatchesRegistration(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	registered, _, _, err := svc.Register(ctx, "a@x.com", "Alice A", "pw1")
	require.NoError(t, err)

	user, token, _, err := svc.Login(ctx, "a@x.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestAuthService_LoginWrongPasswordFails(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, _, _, err := svc.Register(ctx, "a@x.com", "Alice A", "pw1")
	require.NoError(t, err)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{name: "wrong password", email: "a@x.com", password: "pw2"},
		{name: "unknown email", email: "b@x.com", password: "pw1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := svc.Login(ctx, tc.email, tc.password)
			require.Error(t, err)
			assert.Equal(t, "INVALID_CREDENTIALS", apperrors.ToDomainError(err).Code)
		})
	}
}

func TestAuthService_AdminLogin(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	token, _, err := svc.AdminLogin(ctx, "admin@x.com", "admin-pass")
	require.NoError(t, err)

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Empty(t, claims.UserID)

	for _, tc := range []struct{ email, password string }{
		{"admin@x.com", "wrong"},
		{"other@x.com", "admin-pass"},
		{"", ""},
	} {
		_, _, err := svc.AdminLogin(ctx, tc.email, tc.password)
		require.Error(t, err)
		assert.Equal(t, "INVALID_CREDENTIALS", apperrors.ToDomainError(err).Code)
	}
}

func TestAuthService_AdminLoginDisabledWithoutConfiguredPair(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AdminEmail = ""
	cfg.AdminPassword = ""
	svc := NewAuthService(cfg, memory.NewUserStore(), newMapRevoker())

	_, _, err := svc.AdminLogin(context.Background(), "", "")
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", apperrors.ToDomainError(err).Code)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	svc, revoker := newTestAuthService()
	ctx := context.Background()

	_, token, _, err := svc.Register(ctx, "a@x.com", "Alice A", "pw1")
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))

	revoked, err := revoker.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}
