// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/timetrack/pkg/models"
)

// DefaultTokenTTL is the session lifetime when none is configured.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMissingToken = errors.New("missing session token")
	ErrInvalidToken = errors.New("invalid or expired session token")
)

// TokenConfig holds signing configuration.
type TokenConfig struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

// SessionClaims is the signed payload of a session token. The subject is the
// employee id.
type SessionClaims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
}

// TokenService is stateless; it is safe for concurrent use.
type TokenService struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero TTL selects DefaultTokenTTL.
func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return &TokenService{config: cfg, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.config.TTL
}

// Issue signs a token for the given employee.
func (s *TokenService) Issue(employeeID, companyID uuid.UUID, role models.Role) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, fmt.Errorf("issue token: unknown role %q", role)
	}

	now := s.now()
	expiresAt := now.Add(s.config.TTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   employeeID.String(),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		CompanyID: companyID.String(),
		Role:      string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and decodes the principal.
func (s *TokenService) Verify(tokenString string) (models.Principal, error) {
	if tokenString == "" {
		return models.Principal{}, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.config.Secret, nil
	}, opts...)
	if err != nil {
		return models.Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return models.Principal{}, ErrInvalidToken
	}

	employeeID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Principal{}, ErrInvalidToken
	}
	companyID, err := uuid.Parse(claims.CompanyID)
	if err != nil {
		return models.Principal{}, ErrInvalidToken
	}
	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return models.Principal{}, ErrInvalidToken
	}

	return models.Principal{EmployeeID: employeeID, CompanyID: companyID, Role: role}, nil
}
