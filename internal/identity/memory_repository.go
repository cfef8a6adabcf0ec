package identity

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]User
	names  map[string]int64
	tokens map[string]Token
}

// NewMemoryRepository builds an in-memory user store for tests and development.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:  make(map[int64]User),
		names:  make(map[string]int64),
		tokens: make(map[string]Token),
	}
}

func (r *memoryRepository) CreateUser(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[user.Username]; exists {
		return User{}, ErrUsernameTaken
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	r.names[user.Username] = user.ID
	return user, nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) FindByID(_ context.Context, id int64) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) SaveToken(_ context.Context, token Token) (Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[token.UserID]; !ok {
		return Token{}, ErrUserNotFound
	}
	r.nextID++
	token.ID = r.nextID
	r.tokens[token.Token] = token
	return token, nil
}

func (r *memoryRepository) FindToken(_ context.Context, value string) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	token, ok := r.tokens[value]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	return token, nil
}
