package identity

import "time"

// User is a registered account. Only the username is required.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// Token is an issued bearer token persisted for lookup on every request.
// The record itself has no expiry; the signed payload carries it.
type Token struct {
	ID        int64
	Token     string
	UserID    int64
	CreatedAt time.Time
}

// SignupInput carries the fields accepted on signup.
type SignupInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}
