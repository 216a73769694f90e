package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/postboard/apiserver/internal/logging"
	"github.com/postboard/apiserver/types"
)

// MaxPhotoSize bounds profile photo uploads.
const MaxPhotoSize = 5 << 20

var photoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ObjectStore is the subset of object storage used for profile photos.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// PhotoService stores profile photos and points users at them.
type PhotoService struct {
	users   UserRepository
	objects ObjectStore
	log     *slog.Logger
}

// NewPhotoService returns a PhotoService. objects may be nil, in which case
// every upload fails with ErrStorageDisabled.
func NewPhotoService(users UserRepository, objects ObjectStore, log *slog.Logger) *PhotoService {
	return &PhotoService{users: users, objects: objects, log: log}
}

// Enabled reports whether an object store is configured.
func (s *PhotoService) Enabled() bool {
	return s != nil && s.objects != nil
}

// Upload stores the photo under the user's prefix and updates profilePhoto.
func (s *PhotoService) Upload(ctx context.Context, user types.User, r io.Reader, size int64, contentType string) (types.User, error) {
	const op = "services.PhotoService.Upload"

	if !s.Enabled() {
		return types.User{}, ErrStorageDisabled
	}
	ext, ok := photoExtensions[contentType]
	if !ok {
		return types.User{}, ErrUnsupportedPhoto
	}
	if size > MaxPhotoSize {
		return types.User{}, ErrPhotoTooLarge
	}

	key := fmt.Sprintf("profile-photos/%s/%s%s", user.ID, uuid.NewString(), ext)
	if err := s.objects.Put(ctx, key, r, size, contentType); err != nil {
		return types.User{}, fmt.Errorf("%s: put object: %w", op, err)
	}

	user.ProfilePhoto = s.objects.URL(key)
	updated, err := s.users.Update(ctx, user)
	if err != nil {
		if delErr := s.objects.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to remove orphaned photo", slog.String("key", key), logging.Err(delErr))
		}
		return types.User{}, fmt.Errorf("%s: update user: %w", op, err)
	}
	return updated, nil
}
