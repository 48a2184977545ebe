package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SAP-F-2025/clinic-service/internal/models"
)

var ErrBadToken = errors.New("invalid token")

type Claims struct {
	UserID string          `json:"id"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Identity is what a verified token says about the caller
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   models.UserRole
	// External identities are matched to local users by email
	External bool
}

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Identity, error)
}

type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// TokenService issues and verifies HS256 tokens carrying {id, role}
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	c := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *TokenService) Parse(raw string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.UserID == "" {
		return nil, ErrBadToken
	}
	return c, nil
}

func (s *TokenService) Verify(ctx context.Context, raw string) (*Identity, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: c.UserID, Role: c.Role}, nil
}
