package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// AuthService coordinates registration and login flows. The admin
// credential pair arrives through configuration only; admin login is
// refused outright while it is unset.
type AuthService struct {
	users         repository.UserRepository
	tokenMgr      *auth.TokenManager
	revoker       auth.TokenRevoker
	bcryptCost    int
	adminEmail    string
	adminPassword string
}

// NewAuthService builds the service. revoker may be nil when no
// revocation store is configured; logout then reports an error.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, revoker auth.TokenRevoker) *AuthService {
	return &AuthService{
		users:         users,
		tokenMgr:      auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL()),
		revoker:       revoker,
		bcryptCost:    cfg.BcryptCost,
		adminEmail:    cfg.AdminEmail,
		adminPassword: cfg.AdminPassword,
	}
}

// Register creates a new end-user account and issues a session token.
func (s *AuthService) Register(ctx context.Context, email, fullName, password string) (*domain.User, string, time.Time, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewDuplicateIdentity("User already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	user := &domain.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// lost a race with a concurrent registration
			return nil, "", time.Time{}, apperrors.NewDuplicateIdentity("User already exists")
		}
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateUserToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// Login authenticates an end-user. Unknown email and wrong password
// produce the same error, so login cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, apperrors.NewInvalidCredentials("Invalid credentials")
		}
		return nil, "", time.Time{}, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials("Invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateUserToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// AdminLogin authenticates the fixed admin identity against the
// configured credential pair and issues an admin token.
func (s *AuthService) AdminLogin(_ context.Context, email, password string) (string, time.Time, error) {
	if s.adminEmail == "" || s.adminPassword == "" {
		return "", time.Time{}, apperrors.NewInvalidCredentials("Invalid admin credentials")
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail))
	passwordMatch := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword))
	if emailMatch&passwordMatch != 1 {
		return "", time.Time{}, apperrors.NewInvalidCredentials("Invalid admin credentials")
	}

	return s.tokenMgr.GenerateAdminToken(email)
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil {
		return apperrors.NewInternalError(errors.New("revocation store not configured"))
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
