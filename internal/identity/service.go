package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidUsername is returned for usernames outside the accepted format.
var ErrInvalidUsername = errors.New("username must be 3-64 characters of letters, digits, '_', '.' or '-'")

var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.\-]{3,64}$`)

// Service manages the user lifecycle.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Signup creates a user for a not yet registered username. A password, when
// given, is stored as a bcrypt hash.
func (s *Service) Signup(ctx context.Context, in SignupInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		return User{}, ErrInvalidUsername
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}

	user := User{
		Username:  username,
		Email:     strings.TrimSpace(in.Email),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		CreatedAt: s.now().UTC(),
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	return s.repo.CreateUser(ctx, user)
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(user User, password string) bool {
	if len(user.PasswordHash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) == nil
}
