package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/model"
)

var ErrTokenExpired = errors.New("token has expired")

type TokenConfig struct {
	Secret    []byte
	Algorithm string
	TTL       time.Duration
}

type claims struct {
	UserID *int64 `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring session tokens.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", cfg.TTL)
	}
	var method jwt.SigningMethod
	switch cfg.Algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	return &TokenService{
		secret: cfg.Secret,
		method: method,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// TTL is the lifetime given to tokens from Issue.
func (s *TokenService) TTL() time.Duration { return s.ttl }

func (s *TokenService) Issue(username string, userID int64, role model.Role) (string, error) {
	return s.IssueWithTTL(username, userID, role, s.ttl)
}

func (s *TokenService) IssueWithTTL(username string, userID int64, role model.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	now := s.now()
	c := claims{
		UserID: &userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, algorithm and expiry of token and returns the
// identity it carries. Every failure wraps apperr.ErrUnauthenticated.
func (s *TokenService) Verify(token string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, ErrTokenExpired)
		}
		return Identity{}, fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, err)
	}
	if c.Subject == "" || c.UserID == nil {
		return Identity{}, fmt.Errorf("%w: missing subject or id claim", apperr.ErrUnauthenticated)
	}

	// An unrecognised role carries no privilege.
	role, err := model.ParseRole(c.Role)
	if err != nil {
		role = ""
	}
	return Identity{UserID: *c.UserID, Username: c.Subject, Role: role, ExpiresAt: c.ExpiresAt.Time}, nil
}
