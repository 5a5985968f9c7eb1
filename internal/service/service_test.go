package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/todo/internal/auth"
	"github.com/dukerupert/todo/internal/database"
	"github.com/dukerupert/todo/internal/model"
	"github.com/dukerupert/todo/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) TaskChanged(action string, t *model.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, action)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type testEnv struct {
	accounts *AccountService
	tasks    *TaskService
	notifier *recordingNotifier
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	accounts, err := NewAccountService(store.NewAccountStore(db), auth.NewHasher(bcrypt.MinCost), testLogger())
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	n := &recordingNotifier{}
	return &testEnv{
		accounts: accounts,
		tasks:    NewTaskService(store.NewTaskStore(db), n, testLogger()),
		notifier: n,
	}
}

func (e *testEnv) register(t *testing.T, username string, role model.Role) *model.Account {
	t.Helper()
	a, err := e.accounts.Register(context.Background(), RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "First",
		LastName:  "Last",
		Password:  "password-" + username,
		Role:      string(role),
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return a
}

func identity(a *model.Account) auth.Identity {
	return auth.Identity{UserID: a.ID, Username: a.Username, Role: a.Role}
}
