package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/types"
)

const (
	msgLoginFailed  = "Login failed..!!"
	msgSignupFailed = "Signup failed..!!"
	msgBusy         = "another authentication request is in progress"
)

// API is the part of the server API the auth context depends on.
type API interface {
	Signup(ctx context.Context, req SignupRequest) (AuthResponse, error)
	Login(ctx context.Context, email, password string) (AuthResponse, error)
	Profile(ctx context.Context, token string) (types.User, error)
}

// Result is what a login or signup reports back to the caller.
type Result struct {
	Success bool
	Message string
}

// AuthContext holds the client-side session: the current user, its token
// and whether the initial restore is still running. Login, Signup and Logout
// are the only mutators and at most one of them runs at a time.
type AuthContext struct {
	api      API
	sessions SessionStore
	log      *slog.Logger

	inflight sync.Mutex

	mu      sync.RWMutex
	user    *types.User
	token   string
	loading bool

	ready chan struct{}
	once  sync.Once
}

func NewAuthContext(api API, sessions SessionStore, log *slog.Logger) *AuthContext {
	if log == nil {
		log = logging.Discard()
	}
	return &AuthContext{
		api:      api,
		sessions: sessions,
		log:      log,
		loading:  true,
		ready:    make(chan struct{}),
	}
}

// Init restores a persisted session. The stored token is checked against the
// profile endpoint and the server's copy of the user wins. Any failure clears
// the persisted entries and leaves the context unauthenticated. Init runs once.
func (a *AuthContext) Init(ctx context.Context) {
	a.once.Do(func() {
		a.inflight.Lock()
		defer a.inflight.Unlock()
		defer close(a.ready)

		user, token := a.restore(ctx)

		a.mu.Lock()
		a.user = user
		a.token = token
		a.loading = false
		a.mu.Unlock()
	})
}

func (a *AuthContext) restore(ctx context.Context) (*types.User, string) {
	const op = "client.AuthContext.restore"

	session, err := a.sessions.Load()
	if err != nil {
		a.log.Warn("load session", slog.String("op", op), logging.Err(err))
		a.clearPersisted(op)
		return nil, ""
	}
	if !session.Complete() {
		if session.Token != "" || session.User != nil {
			a.clearPersisted(op)
		}
		return nil, ""
	}

	user, err := a.api.Profile(ctx, session.Token)
	if err != nil {
		a.log.Info("stored session rejected", slog.String("op", op), logging.Err(err))
		a.clearPersisted(op)
		return nil, ""
	}

	if err := a.sessions.Save(Session{Token: session.Token, User: &user}); err != nil {
		a.log.Warn("save session", slog.String("op", op), logging.Err(err))
	}
	return &user, session.Token
}

// Ready is closed once Init has finished.
func (a *AuthContext) Ready() <-chan struct{} {
	return a.ready
}

func (a *AuthContext) Login(ctx context.Context, email, password string) Result {
	const op = "client.AuthContext.Login"

	if !a.inflight.TryLock() {
		return Result{Message: msgBusy}
	}
	defer a.inflight.Unlock()

	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.log.Info("login failed", slog.String("op", op), logging.Err(err))
		return Result{Message: failureMessage(err, msgLoginFailed)}
	}

	user := resp.User
	if user.ID == "" {
		user, err = a.api.Profile(ctx, resp.Token)
		if err != nil {
			a.log.Info("fetch profile after login", slog.String("op", op), logging.Err(err))
			return Result{Message: failureMessage(err, msgLoginFailed)}
		}
	}

	if err := a.commit(op, resp.Token, user); err != nil {
		return Result{Message: msgLoginFailed}
	}
	return Result{Success: true, Message: resp.Message}
}

func (a *AuthContext) Signup(ctx context.Context, req SignupRequest) Result {
	const op = "client.AuthContext.Signup"

	if !a.inflight.TryLock() {
		return Result{Message: msgBusy}
	}
	defer a.inflight.Unlock()

	resp, err := a.api.Signup(ctx, req)
	if err != nil {
		a.log.Info("signup failed", slog.String("op", op), logging.Err(err))
		return Result{Message: failureMessage(err, msgSignupFailed)}
	}

	if err := a.commit(op, resp.Token, resp.User); err != nil {
		return Result{Message: msgSignupFailed}
	}
	return Result{Success: true, Message: resp.Message}
}

// Logout drops the session from memory and from the store.
func (a *AuthContext) Logout() {
	a.inflight.Lock()
	defer a.inflight.Unlock()

	a.clearPersisted("client.AuthContext.Logout")

	a.mu.Lock()
	a.user = nil
	a.token = ""
	a.mu.Unlock()
}

// commit persists first so memory never holds a session the store lost.
func (a *AuthContext) commit(op, token string, user types.User) error {
	if err := a.sessions.Save(Session{Token: token, User: &user}); err != nil {
		a.log.Error("save session", slog.String("op", op), logging.Err(err))
		return err
	}

	a.mu.Lock()
	a.user = &user
	a.token = token
	a.mu.Unlock()
	return nil
}

func (a *AuthContext) clearPersisted(op string) {
	if err := a.sessions.Clear(); err != nil {
		a.log.Warn("clear session", slog.String("op", op), logging.Err(err))
	}
}

// User returns a copy of the current user.
func (a *AuthContext) User() (types.User, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.user == nil {
		return types.User{}, false
	}
	return *a.user, true
}

func (a *AuthContext) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *AuthContext) Loading() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.loading
}

func (a *AuthContext) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user != nil && a.token != ""
}

func failureMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
