package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TokenManager issues and verifies the signed session tokens that are
// the sole source of caller identity. The signing key is process-wide
// configuration; nothing in a request can influence it.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Claims describes the JWT payload. User tokens carry userId and email;
// the admin token carries isAdmin and email only.
type Claims struct {
	UserID  string `json:"userId,omitempty"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the caller's principal.
func (c *Claims) Principal() domain.Principal {
	if c.IsAdmin {
		return domain.Principal{Role: domain.RoleAdmin, Email: c.Email}
	}
	return domain.Principal{Role: domain.RoleUser, UserID: c.UserID, Email: c.Email}
}

// GenerateUserToken signs a token for a registered user.
func (tm *TokenManager) GenerateUserToken(user *domain.User) (string, time.Time, error) {
	return tm.sign(&Claims{UserID: user.ID, Email: user.Email})
}

// GenerateAdminToken signs a token for the fixed admin identity. No
// user id is embedded; the admin has no stored record.
func (tm *TokenManager) GenerateAdminToken(email string) (string, time.Time, error) {
	return tm.sign(&Claims{Email: email, IsAdmin: true})
}

func (tm *TokenManager) sign(claims *Claims) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature and expiry, returning the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
