package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/postboard/apiserver/internal/auth"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/internal/store"
	"github.com/postboard/apiserver/types"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer mints access tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

// EventPublisher announces account lifecycle events.
type EventPublisher interface {
	UserSignedUp(ctx context.Context, user types.User) error
}

// SignupInput carries the signup form after field-presence validation.
type SignupInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	ProfilePhoto string
}

// Session is the outcome of a successful signup or login.
type Session struct {
	User      types.User
	Token     string
	ExpiresAt time.Time
}

// AuthService implements signup and login.
type AuthService struct {
	users  UserRepository
	hasher PasswordHasher
	issuer TokenIssuer
	events EventPublisher
	log    *slog.Logger
}

func NewAuthService(users UserRepository, hasher PasswordHasher, issuer TokenIssuer, events EventPublisher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		issuer: issuer,
		events: events,
		log:    log,
	}
}

// Signup registers a new user and issues a token for it.
// The email pre-check is a fast path; the store's unique constraint decides.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (Session, error) {
	const op = "services.AuthService.Signup"

	email := strings.TrimSpace(in.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, fmt.Errorf("%s: check email: %w", op, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return Session{}, ErrPasswordTooLong
		}
		return Session{}, fmt.Errorf("%s: hash password: %w", op, err)
	}

	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)

	photo := strings.TrimSpace(in.ProfilePhoto)
	if photo == "" {
		photo = DefaultAvatarURL(firstName, lastName)
	}

	user, err := s.users.Create(ctx, types.User{
		FirstName:    TitleCase(firstName),
		LastName:     TitleCase(lastName),
		Email:        email,
		PasswordHash: hash,
		ProfilePhoto: photo,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, fmt.Errorf("%s: create user: %w", op, err)
	}

	token, expiresAt, err := s.issuer.Issue(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("%s: issue token: %w", op, err)
	}

	if s.events != nil {
		if err := s.events.UserSignedUp(ctx, user); err != nil {
			s.log.Warn("failed to publish signup event",
				slog.String("op", op),
				slog.String("user_id", user.ID),
				logging.Err(err),
			)
		}
	}

	return Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Login checks the credential pair and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	const op = "services.AuthService.Login"

	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, ErrUnknownEmail
		}
		return Session{}, fmt.Errorf("%s: find user: %w", op, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return Session{}, ErrWrongPassword
	}

	token, expiresAt, err := s.issuer.Issue(user.ID)
	if err != nil {
		return Session{}, fmt.Errorf("%s: issue token: %w", op, err)
	}

	return Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}
