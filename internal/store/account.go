package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/database"
	"github.com/dukerupert/todo/internal/model"
)

type AccountStore struct {
	db *database.DB
}

func NewAccountStore(db *database.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var phone sql.NullString
	var role string

	err := scanner.Scan(
		&a.ID, &a.Username, &a.Email, &a.FirstName, &a.LastName,
		&phone, &a.HashedPassword, &role, &a.IsActive,
	)
	if err != nil {
		return nil, err
	}

	a.Role = model.Role(role)
	if phone.Valid {
		a.PhoneNumber = &phone.String
	}
	return &a, nil
}

const accountCols = `id, username, email, first_name, last_name, phone_number, hashed_password, role, is_active`

// Create inserts a new account. A duplicate username or email yields an
// error wrapping apperr.ErrConflict.
func (s *AccountStore) Create(ctx context.Context, a *model.Account) (*model.Account, error) {
	var phone sql.NullString
	if a.PhoneNumber != nil {
		phone = sql.NullString{String: *a.PhoneNumber, Valid: true}
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`INSERT INTO accounts (username, email, first_name, last_name, phone_number, hashed_password, role, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		a.Username, a.Email, a.FirstName, a.LastName, phone, a.HashedPassword, string(a.Role), a.IsActive,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("insert account: %w", apperr.ErrConflict)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AccountStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+accountCols+` FROM accounts WHERE id = ?`), id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+accountCols+` FROM accounts WHERE username = ?`), username)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return a, nil
}

// UpdatePassword replaces the stored digest. It returns false if no account
// has the given id.
func (s *AccountStore) UpdatePassword(ctx context.Context, id int64, hashedPassword string) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE accounts SET hashed_password = ? WHERE id = ?`), hashedPassword, id)
	if err != nil {
		return false, fmt.Errorf("update password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
