package store

import (
	"context"
	"testing"

	"github.com/dukerupert/todo/internal/database"
	"github.com/dukerupert/todo/internal/model"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestAccount(t *testing.T, s *AccountStore, username string, role model.Role) *model.Account {
	t.Helper()
	a, err := s.Create(context.Background(), &model.Account{
		Username:       username,
		Email:          username + "@example.com",
		FirstName:      "First",
		LastName:       "Last",
		HashedPassword: "$2a$04$placeholder",
		Role:           role,
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", username, err)
	}
	return a
}
