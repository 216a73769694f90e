package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/postboard/apiserver/internal/store"
	"github.com/postboard/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSecret = []byte("test-secret")
	issuedAt   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

const testTTL = time.Hour

type failingFinder struct{}

func (failingFinder) GetByID(context.Context, string) (types.User, error) {
	return types.User{}, errors.New("connection refused")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func setup(t *testing.T) (*Issuer, *Strategy, types.User) {
	t.Helper()

	users := store.NewMemoryUserRepository()
	user, err := users.Create(context.Background(), types.User{FirstName: "John", LastName: "Doe", Email: "j@x.com"})
	require.NoError(t, err)

	issuer, err := NewIssuer(testSecret, testTTL)
	require.NoError(t, err)
	issuer.WithClock(fixedClock(issuedAt))

	strategy := NewStrategy(testSecret, users).WithClock(fixedClock(issuedAt))
	return issuer, strategy, user
}

func signed(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestNewIssuer_Validation(t *testing.T) {
	_, err := NewIssuer(nil, time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewIssuer(testSecret, 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestIssuer_SetsExpiry(t *testing.T) {
	issuer, _, _ := setup(t)

	tokenString, exp, err := issuer.Issue("42")
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(testTTL), exp)

	claims := jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(tokenString, &claims)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, issuedAt.Add(testTTL).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestStrategy_AuthorizedThenExpired(t *testing.T) {
	issuer, strategy, user := setup(t)

	token, _, err := issuer.Issue(user.ID)
	require.NoError(t, err)

	decision, err := strategy.Verify(context.Background(), token)
	require.NoError(t, err)
	require.True(t, decision.Authorized())
	assert.Equal(t, user.ID, decision.User.ID)

	strategy.WithClock(fixedClock(issuedAt.Add(testTTL - time.Second)))
	decision, err = strategy.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, decision.Authorized())

	strategy.WithClock(fixedClock(issuedAt.Add(testTTL + time.Millisecond)))
	decision, err = strategy.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.False(t, decision.Authorized())
	assert.ErrorIs(t, decision.Reason, ErrTokenExpired)
}

func TestStrategy_Rejections(t *testing.T) {
	_, strategy, user := setup(t)
	exp := jwt.NewNumericDate(issuedAt.Add(testTTL))
	past := jwt.NewNumericDate(issuedAt.Add(-time.Minute))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "empty",
			token: "",
			want:  ErrMissingToken,
		},
		{
			name:  "garbage",
			token: "not.a.jwt",
			want:  ErrInvalidToken,
		},
		{
			name:  "wrong secret",
			token: signed(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: user.ID, ExpiresAt: exp}, []byte("other")),
			want:  ErrInvalidToken,
		},
		{
			name:  "wrong algorithm",
			token: signed(t, jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: user.ID, ExpiresAt: exp}, testSecret),
			want:  ErrInvalidToken,
		},
		{
			name:  "unsigned",
			token: signed(t, jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: user.ID, ExpiresAt: exp}, jwt.UnsafeAllowNoneSignatureType),
			want:  ErrInvalidToken,
		},
		{
			name:  "expired with bad signature is invalid",
			token: signed(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: user.ID, ExpiresAt: past}, []byte("other")),
			want:  ErrInvalidToken,
		},
		{
			name:  "no subject",
			token: signed(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: exp}, testSecret),
			want:  ErrNoSubject,
		},
		{
			name:  "expired without subject reports subject",
			token: signed(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: past}, testSecret),
			want:  ErrNoSubject,
		},
		{
			name:  "no expiry",
			token: signed(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: user.ID}, testSecret),
			want:  ErrTokenExpired,
		},
		{
			name:  "expired for unknown user reports expiry",
			token: signed(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "999", ExpiresAt: past}, testSecret),
			want:  ErrTokenExpired,
		},
		{
			name:  "unknown user",
			token: signed(t, jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "999", ExpiresAt: exp}, testSecret),
			want:  ErrUnknownUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := strategy.Verify(context.Background(), tt.token)
			require.NoError(t, err)
			assert.False(t, decision.Authorized())
			assert.ErrorIs(t, decision.Reason, tt.want)
		})
	}
}

func TestStrategy_StoreFailure(t *testing.T) {
	issuer, err := NewIssuer(testSecret, testTTL)
	require.NoError(t, err)
	token, _, err := issuer.Issue("1")
	require.NoError(t, err)

	_, err = NewStrategy(testSecret, failingFinder{}).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestStrategy_Authenticate(t *testing.T) {
	issuer, strategy, user := setup(t)
	token, _, err := issuer.Issue(user.ID)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{name: "no header", header: "", want: ErrMissingToken},
		{name: "basic scheme", header: "Basic abc", want: ErrMissingToken},
		{name: "bearer without token", header: "Bearer ", want: ErrMissingToken},
		{name: "lowercase scheme", header: "bearer " + token, want: nil},
		{name: "valid", header: "Bearer " + token, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			decision, err := strategy.Authenticate(context.Background(), r)
			require.NoError(t, err)
			if tt.want == nil {
				assert.True(t, decision.Authorized())
				return
			}
			assert.ErrorIs(t, decision.Reason, tt.want)
		})
	}
}
