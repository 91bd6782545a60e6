package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrEmailTaken signals the email address is already registered.
	ErrEmailTaken = errors.New("email already taken")
	// ErrUserNotFound signals a missing user record.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized indicates an invalid or revoked session.
	ErrUnauthorized = errors.New("unauthorized")
)

// User is an account able to own albums and songs.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Image        string    `json:"image"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store provides persistence backed by Postgres.
type Store struct {
	db *sql.DB
}

// New sets up a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateUser inserts a new account. The email is expected to be normalised by the caller.
func (s *Store) CreateUser(ctx context.Context, user User) (User, error) {
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" || user.Email == "" || len(user.PasswordHash) == 0 {
		return User{}, fmt.Errorf("name, email and password hash are required")
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, email, password_hash, image)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.Name, user.Email, user.PasswordHash, user.Image).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return user, nil
}

// EmailExists reports whether an account already uses the address.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup email: %w", err)
	}
	return exists, nil
}

// UserByEmail loads the account registered with the address.
func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, image, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// UserByID loads an account by its identifier.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, image, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return user, nil
}

// CreateSession records a session id for the user.
func (s *Store) CreateSession(ctx context.Context, sessionID string, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id)
		VALUES ($1, $2)
	`, sessionID, userID); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// RevokeSessions removes every session belonging to the user.
func (s *Store) RevokeSessions(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE user_id = $1
	`, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// UserBySession resolves a live session id to its account.
func (s *Store) UserBySession(ctx context.Context, sessionID string) (User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.image, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1
	`, sessionID)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUnauthorized
		}
		return User{}, fmt.Errorf("lookup session: %w", err)
	}
	return user, nil
}

// DeleteUser revokes the user's sessions and removes the account in one transaction.
// Albums and songs owned by the user are left untouched.
func (s *Store) DeleteUser(ctx context.Context, userID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM sessions
		WHERE user_id = $1
	`, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM users
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	tx = nil

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(scanner rowScanner) (User, error) {
	var u User
	if err := scanner.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// nullableDate maps an optional YYYY-MM-DD value to a SQL parameter.
func nullableDate(date *string) any {
	if date == nil || *date == "" {
		return nil
	}
	return *date
}

func datePtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
