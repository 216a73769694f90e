package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/postboard/apiserver/internal/store"
	"github.com/postboard/apiserver/types"
)

// UserFinder resolves a token subject to a stored user.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (types.User, error)
}

// Decision is the terminal state of a verification: either an authorized
// user or a rejection reason.
type Decision struct {
	User   types.User
	Reason error
}

// Authorized reports whether the request carries a valid token for an existing user.
func (d Decision) Authorized() bool {
	return d.Reason == nil
}

func reject(reason error) Decision {
	return Decision{Reason: reason}
}

// Strategy verifies bearer tokens issued by Issuer. It never modifies the
// token or the user store.
type Strategy struct {
	secret []byte
	users  UserFinder
	parser *jwt.Parser
	now    func() time.Time
}

func NewStrategy(secret []byte, users UserFinder) *Strategy {
	return &Strategy{
		secret: secret,
		users:  users,
		// Expiry is checked after the subject so the rejection order stays fixed.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
		now: time.Now,
	}
}

// WithClock replaces the time source. Intended for tests.
func (s *Strategy) WithClock(now func() time.Time) *Strategy {
	s.now = now
	return s
}

// Authenticate extracts the bearer token from r and verifies it.
func (s *Strategy) Authenticate(ctx context.Context, r *http.Request) (Decision, error) {
	token, ok := BearerToken(r)
	if !ok {
		return reject(ErrMissingToken), nil
	}
	return s.Verify(ctx, token)
}

// Verify runs the token through signature, subject, expiry and user checks.
// The returned error is non-nil only when the user store fails.
func (s *Strategy) Verify(ctx context.Context, tokenString string) (Decision, error) {
	if strings.TrimSpace(tokenString) == "" {
		return reject(ErrMissingToken), nil
	}

	claims := jwt.RegisteredClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return reject(ErrInvalidToken), nil
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return reject(ErrNoSubject), nil
	}

	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return reject(ErrTokenExpired), nil
	}

	user, err := s.users.GetByID(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return reject(ErrUnknownUser), nil
		}
		return Decision{}, fmt.Errorf("lookup token subject: %w", err)
	}

	return Decision{User: user}, nil
}

// BearerToken returns the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
