package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tunecase/internal/access"
	"tunecase/internal/blob"
	"tunecase/internal/logging"
	"tunecase/internal/store"
	"tunecase/internal/validate"
)

var (
	// ErrInvalidCredentials indicates a login failure.
	ErrInvalidCredentials = errors.New("invalid email or password")

	dummyPasswordHash = []byte("$2a$10$CwTycUXWue0Thq9StjUM0uJ8n4VWeNseyX2fA9DE.D7su7J6iYGTC")
)

// Store describes the persistence operations required by the user service.
type Store interface {
	CreateUser(ctx context.Context, user store.User) (store.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UserByEmail(ctx context.Context, email string) (store.User, error)
	UserByID(ctx context.Context, id int64) (store.User, error)
	CreateSession(ctx context.Context, sessionID string, userID int64) error
	RevokeSessions(ctx context.Context, userID int64) error
	UserBySession(ctx context.Context, sessionID string) (store.User, error)
	DeleteUser(ctx context.Context, userID int64) error
}

// Tokens signs and verifies bearer tokens.
type Tokens interface {
	Issue(sessionID string, userID int64) (string, error)
	Parse(raw string) (sessionID string, userID int64, err error)
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Image    *blob.Object
}

// Service exposes account workflows.
type Service interface {
	Register(ctx context.Context, in RegisterInput) (store.User, string, error)
	Login(ctx context.Context, email, password string) (string, store.User, error)
	Resolve(ctx context.Context, token string) (store.User, error)
	Me(ctx context.Context, p access.Principal) (store.User, error)
	Logout(ctx context.Context, p access.Principal) error
	DeleteAccount(ctx context.Context, p access.Principal) error
}

type service struct {
	store      Store
	blobs      blob.Store
	tokens     Tokens
	bcryptCost int
}

// Option tweaks a Service.
type Option func(*service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *service) { s.bcryptCost = cost }
}

// New wires a Service backed by the provided Store, blob store and token codec.
func New(store Store, blobs blob.Store, tokens Tokens, opts ...Option) Service {
	s := &service{store: store, blobs: blobs, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Register(ctx context.Context, in RegisterInput) (store.User, string, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, "", err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	errs := validate.Errors{}
	if errs.Required("name", in.Name) {
		errs.MaxLen("name", in.Name, 255)
	}
	if errs.Required("email", in.Email) {
		errs.Email("email", in.Email)
		errs.MaxLen("email", in.Email, 255)
	}
	if errs.Required("password", in.Password) {
		errs.MinLen("password", in.Password, 6)
	}
	errs.Merge(blob.CheckImage("image", in.Image))
	if err := errs.Err(); err != nil {
		return store.User{}, "", err
	}

	taken, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		return store.User{}, "", err
	}
	if taken {
		return store.User{}, "", store.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return store.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	imageURL, err := s.blobs.Put(ctx, *in.Image)
	if err != nil {
		return store.User{}, "", err
	}

	user, err := s.store.CreateUser(ctx, store.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Image:        imageURL,
	})
	if err != nil {
		s.release(ctx, imageURL)
		return store.User{}, "", err
	}

	token, err := s.issue(ctx, user.ID)
	if err != nil {
		return store.User{}, "", err
	}
	return user, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, store.User, error) {
	if err := ctx.Err(); err != nil {
		return "", store.User{}, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	errs := validate.Errors{}
	if errs.Required("email", email) {
		errs.Email("email", email)
	}
	errs.Required("password", password)
	if err := errs.Err(); err != nil {
		return "", store.User{}, err
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
			return "", store.User{}, ErrInvalidCredentials
		}
		return "", store.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return "", store.User{}, ErrInvalidCredentials
	}

	// One active session per account: earlier tokens stop working here.
	if err := s.store.RevokeSessions(ctx, user.ID); err != nil {
		return "", store.User{}, err
	}

	token, err := s.issue(ctx, user.ID)
	if err != nil {
		return "", store.User{}, err
	}
	return token, user, nil
}

func (s *service) Resolve(ctx context.Context, raw string) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}

	sessionID, userID, err := s.tokens.Parse(raw)
	if err != nil {
		return store.User{}, store.ErrUnauthorized
	}

	user, err := s.store.UserBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrUnauthorized) {
			return store.User{}, store.ErrUnauthorized
		}
		return store.User{}, err
	}
	if user.ID != userID {
		return store.User{}, store.ErrUnauthorized
	}
	return user, nil
}

func (s *service) Me(ctx context.Context, p access.Principal) (store.User, error) {
	if err := ctx.Err(); err != nil {
		return store.User{}, err
	}
	return s.store.UserByID(ctx, p.UserID)
}

func (s *service) Logout(ctx context.Context, p access.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.RevokeSessions(ctx, p.UserID)
}

func (s *service) DeleteAccount(ctx context.Context, p access.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, p.UserID)
}

func (s *service) issue(ctx context.Context, userID int64) (string, error) {
	sessionID := uuid.NewString()
	if err := s.store.CreateSession(ctx, sessionID, userID); err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(sessionID, userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *service) release(ctx context.Context, url string) {
	if err := s.blobs.Delete(ctx, url); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("image", url).Msg("release uploaded image")
	}
}
