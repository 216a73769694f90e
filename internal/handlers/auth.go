package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/internal/metrics"
	"github.com/postboard/apiserver/internal/services"
	"github.com/postboard/apiserver/types"
)

// AuthHandler provides signup, login and profile endpoints.
type AuthHandler struct {
	auth    *services.AuthService
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(auth *services.AuthService, log *slog.Logger, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{auth: auth, log: log, metrics: m}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, requireAuth func(http.Handler) http.Handler) {
	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Get("/failedLogin", handler.FailedLogin)
	r.With(requireAuth).Get("/profile", handler.Profile)
}

type SignupRequest struct {
	FirstName    string `json:"firstName" label:"First Name" validate:"required"`
	LastName     string `json:"lastName" label:"Last Name" validate:"required"`
	Email        string `json:"email" label:"Email" validate:"required"`
	Password     string `json:"password" label:"Password" validate:"required"`
	ProfilePhoto string `json:"profilePhoto"`
}

func (req *SignupRequest) normalize() {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	req.ProfilePhoto = strings.TrimSpace(req.ProfilePhoto)
}

type LoginRequest struct {
	Email    string `json:"email" label:"Email" validate:"required"`
	Password string `json:"password" label:"Password" validate:"required"`
}

func (req *LoginRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
}

type SignupResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	User    types.User `json:"user"`
	Token   string     `json:"token"`
}

type LoginResponse struct {
	Status string     `json:"status"`
	UserID string     `json:"userId"`
	Token  string     `json:"token"`
	User   types.User `json:"user"`
}

type ProfileResponse struct {
	Status string     `json:"status"`
	User   types.User `json:"user"`
}

// Signup creates a new user account and returns it with a token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.AuthHandler.Signup"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		h.metrics.AuthOutcome("signup", "invalid")
		return
	}

	session, err := h.auth.Signup(r.Context(), services.SignupInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		ProfilePhoto: req.ProfilePhoto,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			h.metrics.AuthOutcome("signup", "conflict")
			writeError(w, r, http.StatusConflict, msgEmailTaken)
			return
		}
		if errors.Is(err, services.ErrPasswordTooLong) {
			h.metrics.AuthOutcome("signup", "invalid")
			writeFieldError(w, r, http.StatusBadRequest, "Password", msgPassTooLong)
			return
		}
		h.metrics.AuthOutcome("signup", "error")
		log.Error("failed to sign up user", logging.Err(err))
		writeError(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.AuthOutcome("signup", "success")
	log.Info("user signed up", slog.String("user_id", session.User.ID))
	writeJSON(w, r, http.StatusCreated, SignupResponse{
		Status:  statusSuccess,
		Message: msgSignedUp,
		User:    session.User,
		Token:   session.Token,
	})
}

// Login verifies credentials and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.AuthHandler.Login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		h.metrics.AuthOutcome("login", "invalid")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrUnknownEmail):
		h.metrics.AuthOutcome("login", "unknown_email")
		writeFieldError(w, r, http.StatusConflict, "email", msgInvalidEmail)
		return
	case errors.Is(err, services.ErrWrongPassword):
		h.metrics.AuthOutcome("login", "wrong_password")
		writeFieldError(w, r, http.StatusConflict, "password", msgInvalidPass)
		return
	case err != nil:
		h.metrics.AuthOutcome("login", "error")
		log.Error("failed to log in user", logging.Err(err))
		writeError(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	h.metrics.AuthOutcome("login", "success")
	writeJSON(w, r, http.StatusOK, LoginResponse{
		Status: statusSuccess,
		UserID: session.User.ID,
		Token:  session.Token,
		User:   session.User,
	})
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	writeJSON(w, r, http.StatusOK, ProfileResponse{Status: statusSuccess, User: user})
}

// FailedLogin is where browser clients land after a rejected session.
func (h *AuthHandler) FailedLogin(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusUnauthorized, msgUnauthorized)
}
