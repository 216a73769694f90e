package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/postboard/apiserver/types"
)

type contextKey string

const contextUserKey contextKey = "user"

const (
	statusSuccess = "success"
	statusError   = "error"
)

const (
	msgNoBody         = "No request body..!!"
	msgInvalidBody    = "Invalid request body..!!"
	msgInternal       = "Internal Server Error..!!"
	msgEmailTaken     = "User already registered with this email..!!"
	msgInvalidEmail   = "Invalid Email Address..!!"
	msgInvalidPass    = "Invalid Password..!!"
	msgPassTooLong    = "Password must be at most 72 bytes..!!"
	msgSignedUp       = "User signed up successfully..!!"
	msgUsersFetched   = "All users fetched successfully..!!"
	msgUnauthorized   = "Unauthorized..!!"
	msgTooManyRequest = "Too many requests..!!"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user types.User) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

// UserFromContext returns the user attached by RequireAuth.
func UserFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, value any) {
	render.Status(r, status)
	render.JSON(w, r, value)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, ErrorResponse{Status: statusError, Message: message})
}

func writeFieldError(w http.ResponseWriter, r *http.Request, status int, field, message string) {
	writeJSON(w, r, status, ErrorResponse{Status: statusError, Field: field, Message: message})
}
