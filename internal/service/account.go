package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/model"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes  = 72
	maxUsernameLength = 50
	maxEmailLength    = 255
	maxNameLength     = 100
	maxPhoneLength    = 20
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type AccountRepository interface {
	Create(ctx context.Context, a *model.Account) (*model.Account, error)
	GetByID(ctx context.Context, id int64) (*model.Account, error)
	GetByUsername(ctx context.Context, username string) (*model.Account, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) (bool, error)
}

type RegisterInput struct {
	Username    string
	Email       string
	FirstName   string
	LastName    string
	Password    string
	Role        string
	PhoneNumber *string
}

func (in RegisterInput) Validate() error {
	var v apperr.ValidationError
	if n := utf8.RuneCountInString(in.Username); n == 0 || n > maxUsernameLength {
		v.Add("username", fmt.Sprintf("must be 1 to %d characters", maxUsernameLength))
	}
	if !strings.Contains(in.Email, "@") {
		v.Add("email", "must be a valid email address")
	} else if utf8.RuneCountInString(in.Email) > maxEmailLength {
		v.Add("email", fmt.Sprintf("must be at most %d characters", maxEmailLength))
	}
	validateName(&v, "first_name", in.FirstName)
	validateName(&v, "last_name", in.LastName)
	if msg := checkPassword(in.Password); msg != "" {
		v.Add("password", msg)
	}
	if _, err := model.ParseRole(in.Role); err != nil {
		v.Add("user_role", "must be one of user, admin")
	}
	if in.PhoneNumber != nil && utf8.RuneCountInString(*in.PhoneNumber) > maxPhoneLength {
		v.Add("phone_number", fmt.Sprintf("must be at most %d characters", maxPhoneLength))
	}
	return v.Err()
}

func validateName(v *apperr.ValidationError, field, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		v.Add(field, "is required")
	case utf8.RuneCountInString(name) > maxNameLength:
		v.Add(field, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
}

// checkPassword returns a field message, or "" when password is acceptable.
func checkPassword(password string) string {
	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return fmt.Sprintf("must be at least %d characters", MinPasswordLength)
	case len(password) > MaxPasswordBytes:
		return fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)
	}
	return ""
}

type AccountService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
	// dummyDigest is compared against when the username is unknown so that
	// both failure paths do the same bcrypt work.
	dummyDigest string
}

func NewAccountService(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*AccountService, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("dummy digest: %w", err)
	}
	return &AccountService{
		accounts:    accounts,
		hasher:      hasher,
		logger:      logger.With("component", "accounts"),
		dummyDigest: dummy,
	}, nil
}

// Register creates an active account. Uniqueness of username and email is
// decided by the store; a duplicate yields apperr.ErrConflict.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*model.Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	a, err := s.accounts.Create(ctx, &model.Account{
		Username:       in.Username,
		Email:          in.Email,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PhoneNumber:    in.PhoneNumber,
		HashedPassword: digest,
		Role:           model.Role(in.Role),
		IsActive:       true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "account_id", a.ID, "role", a.Role)
	return a, nil
}

// Authenticate returns the account only if username exists, is active, and
// password matches. All failures are apperr.ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	a, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if a == nil {
		s.hasher.Verify(password, s.dummyDigest)
		return nil, apperr.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, a.HashedPassword) || !a.IsActive {
		return nil, apperr.ErrInvalidCredentials
	}
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id int64) (*model.Account, error) {
	a, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("account %d: %w", id, apperr.ErrNotFound)
	}
	return a, nil
}

// ChangePassword replaces the password after re-verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, id int64, current, next string) (*model.Account, error) {
	if msg := checkPassword(next); msg != "" {
		var v apperr.ValidationError
		v.Add("new_password", msg)
		return nil, v.Err()
	}

	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.hasher.Verify(current, a.HashedPassword) {
		return nil, apperr.ErrInvalidCredentials
	}

	digest, err := s.hasher.Hash(next)
	if err != nil {
		return nil, err
	}
	ok, err := s.accounts.UpdatePassword(ctx, id, digest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("account %d: %w", id, apperr.ErrNotFound)
	}

	s.logger.Info("password changed", "account_id", id)
	a.HashedPassword = digest
	return a, nil
}
