package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/internal/services"
	"github.com/postboard/apiserver/types"
)

const photoFormField = "photo"

// UsersHandler serves user listing and profile photo endpoints.
type UsersHandler struct {
	users  *services.UserService
	photos *services.PhotoService
	log    *slog.Logger
}

func NewUsersHandler(users *services.UserService, photos *services.PhotoService, log *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, photos: photos, log: log}
}

// UsersRouter registers user routes; every route requires a session.
func UsersRouter(r chi.Router, handler *UsersHandler, requireAuth func(http.Handler) http.Handler) {
	r.Use(requireAuth)
	r.Get("/allUsers", handler.AllUsers)
	r.Put("/me/photo", handler.UploadPhoto)
}

type UsersResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Users   []types.User `json:"users"`
}

// AllUsers lists every registered user.
func (h *UsersHandler) AllUsers(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.UsersHandler.AllUsers"

	users, err := h.users.List(r.Context())
	if err != nil {
		h.log.Error("failed to list users",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			logging.Err(err),
		)
		writeError(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, r, http.StatusOK, UsersResponse{
		Status:  statusSuccess,
		Message: msgUsersFetched,
		Users:   users,
	})
}

// UploadPhoto replaces the caller's profile photo with a multipart upload.
func (h *UsersHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.UsersHandler.UploadPhoto"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	if !h.photos.Enabled() {
		writeError(w, r, http.StatusServiceUnavailable, "Photo uploads are disabled..!!")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoSize+(1<<20))
	file, header, err := r.FormFile(photoFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "Photo is too large..!!")
			return
		}
		writeFieldError(w, r, http.StatusBadRequest, "Photo", "Photo is required..!!")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxPhotoSize+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, msgInvalidBody)
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	updated, err := h.photos.Upload(r.Context(), user, bytes.NewReader(data), int64(len(data)), contentType)
	switch {
	case errors.Is(err, services.ErrUnsupportedPhoto):
		writeError(w, r, http.StatusUnsupportedMediaType, "Unsupported photo type..!!")
		return
	case errors.Is(err, services.ErrPhotoTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, "Photo is too large..!!")
		return
	case err != nil:
		log.Error("failed to upload photo", slog.String("user_id", user.ID), logging.Err(err))
		writeError(w, r, http.StatusInternalServerError, msgInternal)
		return
	}

	writeJSON(w, r, http.StatusOK, ProfileResponse{Status: statusSuccess, User: updated})
}
