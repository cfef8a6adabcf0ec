package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrUsernameTaken is returned when a signup reuses an existing username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound indicates no user matched the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenNotFound indicates the bearer token was never issued by us.
	ErrTokenNotFound = errors.New("token not found")
)

const uniqueViolation = "23505"

// Repository persists users and their issued tokens.
type Repository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	SaveToken(ctx context.Context, token Token) (Token, error)
	FindToken(ctx context.Context, token string) (Token, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed identity repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateUser inserts a new user and returns it with its generated id.
func (r *PostgresRepository) CreateUser(ctx context.Context, user User) (User, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO users (username, email, password_hash, first_name, last_name, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.CreatedAt.UTC())
	if err := row.Scan(&user.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// FindByUsername fetches a user by username.
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.findOne(ctx, `SELECT id, username, email, password_hash, first_name, last_name, created_at
        FROM users WHERE username = $1`, username)
}

// FindByID fetches a user by id.
func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (User, error) {
	return r.findOne(ctx, `SELECT id, username, email, password_hash, first_name, last_name, created_at
        FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (User, error) {
	var user User
	err := r.db.QueryRow(ctx, query, arg).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// SaveToken stores an issued token for the user.
func (r *PostgresRepository) SaveToken(ctx context.Context, token Token) (Token, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO auth_token (token, user_id, created_at) VALUES ($1, $2, $3) RETURNING id`,
		token.Token, token.UserID, token.CreatedAt.UTC())
	if err := row.Scan(&token.ID); err != nil {
		return Token{}, fmt.Errorf("insert token: %w", err)
	}
	return token, nil
}

// FindToken resolves a stored token record by its opaque value.
func (r *PostgresRepository) FindToken(ctx context.Context, value string) (Token, error) {
	var token Token
	err := r.db.QueryRow(ctx, `SELECT id, token, user_id, created_at FROM auth_token WHERE token = $1`, value).
		Scan(&token.ID, &token.Token, &token.UserID, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrTokenNotFound
		}
		return Token{}, err
	}
	return token, nil
}
