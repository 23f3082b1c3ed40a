package magiclink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/WissemBellili/immersion-facile-sub001/clock"
	"github.com/WissemBellili/immersion-facile-sub001/convention"
)

// ErrInvalidCredentials signals a wrong back-office username or password.
var ErrInvalidCredentials = errors.New("magiclink: invalid credentials")

// AdminService authenticates back-office operators and issues them tokens
// with the back-office role.
type AdminService struct {
	username     string
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	clk          clock.Clock
}

// NewAdminService wires the single configured back-office account.
// passwordHash is a bcrypt hash, never the clear password.
func NewAdminService(username, passwordHash, secret string, ttl time.Duration, clk clock.Clock) *AdminService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AdminService{
		username:     username,
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		clk:          clk,
	}
}

// Login checks the credentials and returns a signed admin token.
func (s *AdminService) Login(username, password string) (string, error) {
	if username != s.username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.clk.Now()
	claims := jwt.MapClaims{
		"role": string(convention.RoleBackOffice),
		"sub":  username,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("magiclink: sign admin token: %w", err)
	}
	return signed, nil
}

// VerifyAdminToken validates an admin token and confirms it carries the
// back-office role.
func (s *AdminService) VerifyAdminToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clk.Now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != string(convention.RoleBackOffice) {
		return fmt.Errorf("%w: not an admin token", ErrInvalidToken)
	}
	return nil
}
