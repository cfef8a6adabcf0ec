package identity

import (
	"context"
	"errors"
	"testing"
)

func TestSignupCreatesUser(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Signup(ctx, SignupInput{Username: "alice", Email: "alice@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if !CheckPassword(user, "hunter22") {
		t.Fatalf("expected password hash to verify")
	}
	if CheckPassword(user, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}

	fetched, err := svc.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", fetched.Email)
	}
}

func TestSignupRejectsTakenUsername(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Username: "alice"}); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	if _, err := svc.Signup(ctx, SignupInput{Username: "alice"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestSignupValidatesUsername(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	for _, name := range []string{"", "ab", "has space", "semi;colon"} {
		if _, err := svc.Signup(context.Background(), SignupInput{Username: name}); !errors.Is(err, ErrInvalidUsername) {
			t.Fatalf("username %q: expected ErrInvalidUsername, got %v", name, err)
		}
	}
	if _, err := svc.Signup(context.Background(), SignupInput{Username: "иван_1"}); err != nil {
		t.Fatalf("unicode username: %v", err)
	}
}

func TestUserWithoutPasswordNeverMatches(t *testing.T) {
	if CheckPassword(User{Username: "bob"}, "") {
		t.Fatalf("expected passwordless user to never match")
	}
}

func TestMemoryRepositoryTokens(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if _, err := repo.SaveToken(ctx, Token{Token: "t", UserID: 42}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown user, got %v", err)
	}

	user, _ := repo.CreateUser(ctx, User{Username: "carol"})
	saved, err := repo.SaveToken(ctx, Token{Token: "abc", UserID: user.ID})
	if err != nil {
		t.Fatalf("save token: %v", err)
	}
	found, err := repo.FindToken(ctx, "abc")
	if err != nil || found.ID != saved.ID || found.UserID != user.ID {
		t.Fatalf("unexpected token lookup: %+v %v", found, err)
	}
	if _, err := repo.FindToken(ctx, "nope"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
