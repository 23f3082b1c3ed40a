// Package magiclink issues and verifies the per-convention tokens embedded in
// email links. A token carries which convention it opens, the role acting
// through it, and the email it was sent to; the HTTP layer trusts those three
// claims instead of a user session.
package magiclink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/WissemBellili/immersion-facile-sub001/clock"
	"github.com/WissemBellili/immersion-facile-sub001/convention"
)

var (
	// ErrInvalidToken signals a token that is malformed, mis-signed or expired.
	ErrInvalidToken = errors.New("magiclink: invalid token")
)

// Payload is what a verified magic link grants.
type Payload struct {
	ConventionID string
	Role         convention.Role
	Email        string
}

// Service signs and verifies magic-link tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	clk    clock.Clock
}

// NewService creates a token service. ttl <= 0 falls back to 31 days, the
// lifetime of a convention review window.
func NewService(secret string, ttl time.Duration, clk clock.Clock) *Service {
	if ttl <= 0 {
		ttl = 31 * 24 * time.Hour
	}
	return &Service{secret: []byte(secret), ttl: ttl, clk: clk}
}

// GenerateToken creates a signed link token for one convention, role and
// recipient.
func (s *Service) GenerateToken(p Payload) (string, error) {
	if p.ConventionID == "" || p.Role == "" {
		return "", fmt.Errorf("magiclink: convention id and role are required")
	}
	now := s.clk.Now()
	claims := jwt.MapClaims{
		"applicationId": p.ConventionID,
		"role":          string(p.Role),
		"emailHash":     p.Email,
		"iat":           now.Unix(),
		"exp":           now.Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("magiclink: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks signature and expiry and returns the granted payload.
func (s *Service) VerifyToken(tokenString string) (Payload, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clk.Now))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Payload{}, ErrInvalidToken
	}
	conventionID, ok := claims["applicationId"].(string)
	if !ok {
		return Payload{}, fmt.Errorf("%w: missing applicationId claim", ErrInvalidToken)
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return Payload{}, fmt.Errorf("%w: missing role claim", ErrInvalidToken)
	}
	role := convention.Role(roleStr)
	if !isKnownRole(role) {
		return Payload{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, roleStr)
	}
	email, _ := claims["emailHash"].(string)

	return Payload{ConventionID: conventionID, Role: role, Email: email}, nil
}

func isKnownRole(role convention.Role) bool {
	for _, r := range convention.AllRoles {
		if r == role {
			return true
		}
	}
	return false
}
