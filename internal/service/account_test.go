package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/model"
)

func TestRegister(t *testing.T) {
	env := setup(t)
	phone := "555-0101"

	a, err := env.accounts.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "a@x.io", FirstName: "Alice", LastName: "L",
		Password: "hunter22", Role: "admin", PhoneNumber: &phone,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if a.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", a.Role)
	}
	if !a.IsActive {
		t.Error("new accounts should be active")
	}
	if a.HashedPassword == "hunter22" || a.HashedPassword == "" {
		t.Errorf("password not hashed: %q", a.HashedPassword)
	}
	if a.PhoneNumber == nil || *a.PhoneNumber != phone {
		t.Errorf("phone = %v, want %q", a.PhoneNumber, phone)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := setup(t)
	valid := RegisterInput{Username: "bob", Email: "b@x.io", FirstName: "B", LastName: "B", Password: "password1", Role: "user"}

	tests := []struct {
		name  string
		edit  func(*RegisterInput)
		field string
	}{
		{"empty username", func(in *RegisterInput) { in.Username = "" }, "username"},
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }, "email"},
		{"no first name", func(in *RegisterInput) { in.FirstName = " " }, "first_name"},
		{"no last name", func(in *RegisterInput) { in.LastName = "" }, "last_name"},
		{"long email", func(in *RegisterInput) { in.Email = strings.Repeat("e", 251) + "@x.io" }, "email"},
		{"long first name", func(in *RegisterInput) { in.FirstName = strings.Repeat("é", 101) }, "first_name"},
		{"long last name", func(in *RegisterInput) { in.LastName = strings.Repeat("l", 101) }, "last_name"},
		{"short password", func(in *RegisterInput) { in.Password = "short" }, "password"},
		{"password over bcrypt limit", func(in *RegisterInput) { in.Password = strings.Repeat("p", 73) }, "password"},
		{"multibyte password over bcrypt limit", func(in *RegisterInput) { in.Password = strings.Repeat("ü", 37) }, "password"},
		{"unknown role", func(in *RegisterInput) { in.Role = "root" }, "user_role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			_, err := env.accounts.Register(context.Background(), in)
			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %q", verr.Fields, tt.field)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	env := setup(t)
	env.register(t, "alice", model.RoleUser)

	_, err := env.accounts.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", FirstName: "A", LastName: "B",
		Password: "password1", Role: "user",
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestRegisterConcurrent(t *testing.T) {
	env := setup(t)

	const n = 5
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.accounts.Register(context.Background(), RegisterInput{
				Username: "same", Email: "same@example.com", FirstName: "S", LastName: "S",
				Password: "password1", Role: "user",
			})
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, apperr.ErrConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", succeeded)
	}
}

func TestAuthenticate(t *testing.T) {
	env := setup(t)
	created := env.register(t, "alice", model.RoleUser)

	a, err := env.accounts.Authenticate(context.Background(), "alice", "password-alice")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if a.ID != created.ID {
		t.Errorf("id = %d, want %d", a.ID, created.ID)
	}

	_, errWrong := env.accounts.Authenticate(context.Background(), "alice", "wrong-password")
	_, errUnknown := env.accounts.Authenticate(context.Background(), "nobody", "password-alice")
	if !errors.Is(errWrong, apperr.ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", errWrong)
	}
	if !errors.Is(errUnknown, apperr.ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("failure messages differ: %q vs %q", errWrong, errUnknown)
	}
}

func TestGetNotFound(t *testing.T) {
	env := setup(t)
	if _, err := env.accounts.Get(context.Background(), 404); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestChangePassword(t *testing.T) {
	env := setup(t)
	a := env.register(t, "alice", model.RoleUser)
	ctx := context.Background()

	if _, err := env.accounts.ChangePassword(ctx, a.ID, "password-alice", "brand-new-pass"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := env.accounts.Authenticate(ctx, "alice", "password-alice"); !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := env.accounts.Authenticate(ctx, "alice", "brand-new-pass"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	env := setup(t)
	a := env.register(t, "alice", model.RoleUser)
	ctx := context.Background()

	_, err := env.accounts.ChangePassword(ctx, a.ID, "not-my-password", "brand-new-pass")
	if !errors.Is(err, apperr.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.accounts.Authenticate(ctx, "alice", "password-alice"); err != nil {
		t.Errorf("stored password changed after failed attempt: %v", err)
	}
}

func TestChangePasswordTooShort(t *testing.T) {
	env := setup(t)
	a := env.register(t, "alice", model.RoleUser)

	_, err := env.accounts.ChangePassword(context.Background(), a.ID, "password-alice", "short")
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestRegisterLengthLimits(t *testing.T) {
	env := setup(t)

	_, err := env.accounts.Register(context.Background(), RegisterInput{
		Username:  "maxed",
		Email:     strings.Repeat("e", 250) + "@x.io",
		FirstName: strings.Repeat("é", 100),
		LastName:  strings.Repeat("l", 100),
		Password:  strings.Repeat("p", MaxPasswordBytes),
		Role:      "user",
	})
	if err != nil {
		t.Fatalf("register at limits: %v", err)
	}
	if _, err := env.accounts.Authenticate(context.Background(), "maxed", strings.Repeat("p", MaxPasswordBytes)); err != nil {
		t.Errorf("authenticate with 72-byte password: %v", err)
	}
}

func TestChangePasswordTooLong(t *testing.T) {
	env := setup(t)
	a := env.register(t, "alice", model.RoleUser)
	ctx := context.Background()

	_, err := env.accounts.ChangePassword(ctx, a.ID, "password-alice", strings.Repeat("p", 80))
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, ok := verr.Fields["new_password"]; !ok {
		t.Errorf("fields = %v, want new_password", verr.Fields)
	}
	if _, err := env.accounts.Authenticate(ctx, "alice", "password-alice"); err != nil {
		t.Errorf("stored password changed after rejected change: %v", err)
	}
}

func TestChangePasswordMissingAccount(t *testing.T) {
	env := setup(t)
	_, err := env.accounts.ChangePassword(context.Background(), 77, "whatever1", "brand-new-pass")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
