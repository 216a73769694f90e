package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/postboard/apiserver/config"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/internal/server"
	"github.com/postboard/apiserver/internal/store"
	"github.com/postboard/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAPI(t *testing.T) *APIClient {
	t.Helper()
	router, err := server.NewRouter(server.Deps{
		Users: store.NewMemoryUserRepository(),
		Auth: config.AuthConfig{
			JWTSecret:  "client-secret",
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
		Log: logging.Discard(),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL+"/api", 5*time.Second)
}

var johnDoe = SignupRequest{FirstName: "john", LastName: "doe", Email: "j@x.com", Password: "secret1"}

func TestAuthContext_SignupLoginLogout(t *testing.T) {
	api := newAPI(t)
	sessions := NewMemorySessionStore()
	ac := NewAuthContext(api, sessions, nil)
	ac.Init(context.Background())

	assert.False(t, ac.Loading())
	assert.Equal(t, GateRedirect, ac.Gate())

	res := ac.Signup(context.Background(), johnDoe)
	require.True(t, res.Success, res.Message)
	user, ok := ac.User()
	require.True(t, ok)
	assert.Equal(t, "John", user.FirstName)
	assert.Equal(t, GateRender, ac.Gate())

	saved, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, ac.Token(), saved.Token)

	ac.Logout()
	assert.False(t, ac.IsAuthenticated())
	saved, err = sessions.Load()
	require.NoError(t, err)
	assert.False(t, saved.Complete())

	res = ac.Login(context.Background(), "j@x.com", "secret1")
	require.True(t, res.Success, res.Message)
	assert.True(t, ac.IsAuthenticated())
}

func TestAuthContext_FailuresLeaveStateUntouched(t *testing.T) {
	api := newAPI(t)
	ac := NewAuthContext(api, NewMemorySessionStore(), nil)
	ac.Init(context.Background())

	require.True(t, ac.Signup(context.Background(), johnDoe).Success)
	token := ac.Token()

	res := ac.Login(context.Background(), "j@x.com", "wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid Password..!!", res.Message)
	assert.Equal(t, token, ac.Token())

	res = ac.Signup(context.Background(), johnDoe)
	assert.False(t, res.Success)
	assert.Equal(t, "User already registered with this email..!!", res.Message)
	assert.Equal(t, token, ac.Token())
}

func TestAuthContext_FallbackMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	ac := NewAuthContext(NewAPIClient(srv.URL, time.Second), NewMemorySessionStore(), nil)
	ac.Init(context.Background())

	assert.Equal(t, msgLoginFailed, ac.Login(context.Background(), "a@x.com", "pw").Message)
	assert.Equal(t, msgSignupFailed, ac.Signup(context.Background(), johnDoe).Message)
}

func TestAuthContext_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	ac := NewAuthContext(NewAPIClient(srv.URL, 50*time.Millisecond), NewMemorySessionStore(), nil)
	ac.Init(context.Background())

	res := ac.Login(context.Background(), "a@x.com", "pw")
	assert.False(t, res.Success)
	assert.Equal(t, msgLoginFailed, res.Message)
	assert.False(t, ac.IsAuthenticated())
}

func TestAuthContext_RestoreSession(t *testing.T) {
	api := newAPI(t)
	sessions := NewFileSessionStore(filepath.Join(t.TempDir(), "session.json"))

	first := NewAuthContext(api, sessions, nil)
	first.Init(context.Background())
	require.True(t, first.Signup(context.Background(), johnDoe).Success)

	second := NewAuthContext(api, sessions, nil)
	assert.Equal(t, GateLoading, second.Gate())
	second.Init(context.Background())
	assert.Equal(t, GateRender, second.Gate())
	assert.Equal(t, first.Token(), second.Token())

	rendered := false
	err := second.Protected(context.Background(), func(s Session) error {
		rendered = true
		assert.Equal(t, "j@x.com", s.User.Email)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, rendered)
}

func TestAuthContext_RestoreRejectedClearsStore(t *testing.T) {
	api := newAPI(t)
	sessions := NewMemorySessionStore()
	require.NoError(t, sessions.Save(Session{Token: "stale", User: &types.User{ID: "1"}}))

	ac := NewAuthContext(api, sessions, nil)
	ac.Init(context.Background())

	assert.Equal(t, GateRedirect, ac.Gate())
	saved, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, Session{}, saved)

	err = ac.Protected(context.Background(), func(Session) error {
		t.Fatal("render must not run")
		return nil
	})
	assert.ErrorIs(t, err, ErrLoginRequired)
}

func TestAuthContext_RestoreHalfSessionClears(t *testing.T) {
	sessions := NewMemorySessionStore()
	require.NoError(t, sessions.Save(Session{Token: "only-token"}))

	ac := NewAuthContext(&blockingAPI{}, sessions, nil)
	ac.Init(context.Background())

	saved, _ := sessions.Load()
	assert.Equal(t, Session{}, saved)
	assert.False(t, ac.IsAuthenticated())
}

type blockingAPI struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingAPI) Signup(ctx context.Context, req SignupRequest) (AuthResponse, error) {
	return b.Login(ctx, req.Email, req.Password)
}

func (b *blockingAPI) Login(ctx context.Context, _, _ string) (AuthResponse, error) {
	close(b.started)
	<-b.release
	return AuthResponse{Token: "t", User: types.User{ID: "1"}}, nil
}

func (b *blockingAPI) Profile(context.Context, string) (types.User, error) {
	return types.User{}, errors.New("unexpected")
}

func TestAuthContext_SingleInflightMutation(t *testing.T) {
	api := &blockingAPI{started: make(chan struct{}), release: make(chan struct{})}
	ac := NewAuthContext(api, NewMemorySessionStore(), nil)
	ac.Init(context.Background())

	var wg sync.WaitGroup
	var first Result
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = ac.Login(context.Background(), "a@x.com", "pw")
	}()

	<-api.started
	second := ac.Signup(context.Background(), johnDoe)
	assert.False(t, second.Success)
	assert.Equal(t, msgBusy, second.Message)

	close(api.release)
	wg.Wait()
	assert.True(t, first.Success)
	assert.True(t, ac.IsAuthenticated())
}

func TestFileSessionStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileSessionStore(path)

	empty, err := s.Load()
	require.NoError(t, err)
	assert.False(t, empty.Complete())

	user := &types.User{ID: "7", Email: "a@x.com", FirstName: "Ann"}
	require.NoError(t, s.Save(Session{Token: "tok", User: user}))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "Ann", got.User.FirstName)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	got, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, Session{}, got)
}

func TestAPIClient_ProtectedRoutes(t *testing.T) {
	api := newAPI(t)

	_, err := api.Profile(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "missing token", apiErr.Message)

	resp, err := api.Signup(context.Background(), johnDoe)
	require.NoError(t, err)

	users, err := api.AllUsers(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Doe", users[0].LastName)
}
