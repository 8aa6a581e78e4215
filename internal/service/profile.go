package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/invmanager/invmanager-go/internal/model"
	"github.com/invmanager/invmanager-go/internal/repository"
	"github.com/invmanager/invmanager-go/internal/storage"
)

// MaxPhotoSize is the largest accepted profile image (5 MiB).
const MaxPhotoSize = 5 << 20

var (
	ErrBioTooLong       = errors.New("bio must not be more than 250 characters")
	ErrPhoneTooLong     = errors.New("phone must not be more than 32 characters")
	ErrUnsupportedImage = errors.New("only png, jpg and jpeg images are allowed")
	ErrPhotoTooLarge    = errors.New("image must not be larger than 5MB")
	ErrPhotoUpload      = errors.New("image could not be uploaded")
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpg":  true,
	"image/jpeg": true,
}

// GetCurrentUser returns the public profile of userID.
func (s *AuthService) GetCurrentUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile applies the non-empty fields of req. Email is not editable.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req model.UpdateUserRequest) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	if v := strings.TrimSpace(req.Name); v != "" {
		if err := validateName(v); err != nil {
			return model.UserResponse{}, err
		}
		user.Name = v
	}
	if v := strings.TrimSpace(req.Photo); v != "" {
		user.Photo = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		if err := validatePhone(v); err != nil {
			return model.UserResponse{}, err
		}
		user.Phone = v
	}
	if req.Bio != "" {
		if utf8.RuneCountInString(req.Bio) > model.MaxBioLength {
			return model.UserResponse{}, ErrBioTooLong
		}
		user.Bio = req.Bio
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}
	return user.Profile(), nil
}

// UploadPhoto stores a profile image and points the user's photo at it.
func (s *AuthService) UploadPhoto(ctx context.Context, userID int64, upload model.PhotoUpload) (model.UserResponse, error) {
	if s.uploader == nil {
		return model.UserResponse{}, ErrPhotoUpload
	}
	if !allowedImageTypes[strings.ToLower(upload.ContentType)] {
		return model.UserResponse{}, ErrUnsupportedImage
	}
	if upload.Size > MaxPhotoSize {
		return model.UserResponse{}, ErrPhotoTooLarge
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	key := storage.PhotoKey(userID, upload.Filename, s.now().UTC())
	url, err := s.uploader.Upload(ctx, key, upload.ContentType, upload.Body, upload.Size)
	if err != nil {
		s.logger.Error("photo upload failed", slog.Int64("user_id", userID), slog.String("error", err.Error()))
		return model.UserResponse{}, fmt.Errorf("%w: %v", ErrPhotoUpload, err)
	}

	user.Photo = url
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return model.UserResponse{}, err
	}
	return user.Profile(), nil
}
