package handler

import (
	"errors"
	"net/http"

	"github.com/invmanager/invmanager-go/internal/middleware"
	"github.com/invmanager/invmanager-go/internal/model"
	"github.com/invmanager/invmanager-go/internal/service"
)

// photoField is the multipart form field carrying a profile image.
const photoField = "image"

// HandleGetUser handles GET /api/users/getuser requests.
func (h *AuthHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse(middleware.NotAuthorizedMessage))
		return
	}

	resp, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		internalError(w)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUpdateUser handles PATCH /api/users/updateuser requests.
func (h *AuthHandler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse(middleware.NotAuthorizedMessage))
		return
	}

	var req model.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		case errors.Is(err, service.ErrBioTooLong),
			errors.Is(err, service.ErrNameTooLong),
			errors.Is(err, service.ErrPhoneTooLong):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			internalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleUploadPhoto handles POST /api/users/uploadphoto requests.
func (h *AuthHandler) HandleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse(middleware.NotAuthorizedMessage))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxPhotoSize+maxBodyBytes)
	if err := r.ParseMultipartForm(service.MaxPhotoSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse(service.ErrPhotoTooLarge.Error()))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(photoField)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("please add an image"))
		return
	}
	defer file.Close()

	resp, err := h.service.UploadPhoto(r.Context(), userID, model.PhotoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedImage),
			errors.Is(err, service.ErrPhotoTooLarge):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		case errors.Is(err, service.ErrPhotoUpload):
			writeJSON(w, http.StatusInternalServerError, errorResponse(service.ErrPhotoUpload.Error()))
		default:
			internalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
