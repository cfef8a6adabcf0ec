package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pray-app/pray_api/internal/identity"
)

// ErrUnauthenticated covers every bearer token failure: bad signature, expired
// claim, unknown token record or missing user.
var ErrUnauthenticated = errors.New("could not validate credentials")

// TokenResponse is the signup result handed back to clients.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
}

// Service issues tokens on signup and resolves them back to users.
type Service struct {
	ids    *identity.Service
	repo   identity.Repository
	issuer *Issuer
}

// NewService wires the token service.
func NewService(ids *identity.Service, repo identity.Repository, issuer *Issuer) *Service {
	return &Service{ids: ids, repo: repo, issuer: issuer}
}

// Signup registers the username, issues an access token and stores it.
func (s *Service) Signup(ctx context.Context, in identity.SignupInput) (TokenResponse, error) {
	user, err := s.ids.Signup(ctx, in)
	if err != nil {
		return TokenResponse{}, err
	}

	token, exp, err := s.issuer.Issue(user.Username)
	if err != nil {
		return TokenResponse{}, err
	}
	if _, err := s.repo.SaveToken(ctx, identity.Token{Token: token, UserID: user.ID, CreatedAt: time.Now().UTC()}); err != nil {
		return TokenResponse{}, fmt.Errorf("store token: %w", err)
	}

	return TokenResponse{AccessToken: token, TokenType: TokenType, ExpiresAt: exp}, nil
}

// Authenticate verifies the signed token and then resolves the stored token
// record to its user. Both steps must pass.
func (s *Service) Authenticate(ctx context.Context, token string) (identity.User, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	record, err := s.repo.FindToken(ctx, token)
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := s.repo.FindByID(ctx, record.UserID)
	if err != nil {
		return identity.User{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if user.Username != claims.Subject {
		return identity.User{}, fmt.Errorf("%w: subject mismatch", ErrUnauthenticated)
	}
	return user, nil
}
