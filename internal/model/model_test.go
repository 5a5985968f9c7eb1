package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"user", RoleUser, false},
		{"admin", RoleAdmin, false},
		{"Admin", "", true},
		{"", "", true},
		{"superuser", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRole(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestZeroRoleInvalid(t *testing.T) {
	var r Role
	if r.Valid() {
		t.Error("zero Role should not be valid")
	}
}

func TestAccountJSONOmitsPassword(t *testing.T) {
	a := Account{ID: 1, Username: "alice", HashedPassword: "$2a$10$secret", Role: RoleUser}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(b), "secret") || strings.Contains(string(b), "password") {
		t.Errorf("account JSON leaks password: %s", b)
	}
}

func TestTaskOwnedBy(t *testing.T) {
	task := &Task{ID: 3, OwnerID: 7}
	if !task.OwnedBy(7) {
		t.Error("OwnedBy(7) = false, want true")
	}
	if task.OwnedBy(8) {
		t.Error("OwnedBy(8) = true, want false")
	}
}
