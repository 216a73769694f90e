package client

import (
	"context"
	"errors"
)

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

// ErrLoginRequired is returned by Protected when there is no session.
var ErrLoginRequired = errors.New("login required")

type GateDecision int

const (
	GateLoading GateDecision = iota
	GateRender
	GateRedirect
)

func (d GateDecision) String() string {
	switch d {
	case GateLoading:
		return "loading"
	case GateRender:
		return "render"
	case GateRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Gate decides what a protected view should do right now.
func (a *AuthContext) Gate() GateDecision {
	a.mu.RLock()
	defer a.mu.RUnlock()

	switch {
	case a.loading:
		return GateLoading
	case a.user != nil && a.token != "":
		return GateRender
	default:
		return GateRedirect
	}
}

// Protected waits for the initial restore and then runs render with the
// current session, or returns ErrLoginRequired.
func (a *AuthContext) Protected(ctx context.Context, render func(Session) error) error {
	select {
	case <-a.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	if a.Gate() != GateRender {
		return ErrLoginRequired
	}
	user, _ := a.User()
	return render(Session{Token: a.Token(), User: &user})
}
