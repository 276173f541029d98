package services

import (
	"context"
	"errors"
	"testing"

	"github.com/payledger/apiserver/internal/store"
	"github.com/payledger/apiserver/types"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "a@x.com", "pw", types.RoleAdmin)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected user ID to be set")
	}
	if user.PasswordHash == "pw" {
		t.Error("password was stored in plaintext")
	}

	got, err := svc.Authenticate(ctx, "a@x.com", "pw")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.Role != types.RoleAdmin {
		t.Errorf("role = %q, want %q", got.Role, types.RoleAdmin)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "a@x.com", "pw", types.RoleAdmin); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(ctx, "Imposter", "a@x.com", "pw2", types.RoleViewer); !errors.Is(err, store.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}

	// The first user must remain queryable and unchanged.
	user, err := svc.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if user.Name != "Alice" || user.Role != types.RoleAdmin {
		t.Errorf("first user was altered: %+v", user)
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "a@x.com", "pw", types.RoleViewer); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := svc.Authenticate(ctx, "a@x.com", "nope")
	_, unknownEmail := svc.Authenticate(ctx, "ghost@x.com", "pw")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", unknownEmail)
	}
}

func TestListIncludesAllUsers(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())
	ctx := context.Background()

	emails := []string{"a@x.com", "b@x.com", "c@x.com"}
	for _, email := range emails {
		if _, err := svc.Register(ctx, "User", email, "pw", types.RoleViewer); err != nil {
			t.Fatalf("register %s: %v", email, err)
		}
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != len(emails) {
		t.Fatalf("len(users) = %d, want %d", len(users), len(emails))
	}
}
