package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invmanager/invmanager-go/internal/middleware"
	"github.com/invmanager/invmanager-go/internal/model"
	"github.com/invmanager/invmanager-go/internal/service"
)

// AuthHandler handles HTTP requests for authentication and credential management.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// HandleRegister handles POST /api/users/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingFields),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrPasswordTooLong),
			errors.Is(err, service.ErrInvalidEmail),
			errors.Is(err, service.ErrNameTooLong),
			errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			internalError(w)
		}
		return
	}

	setTokenCookie(w, resp.Token, resp.ExpiresAt)
	writeJSON(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /api/users/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials),
			errors.Is(err, service.ErrUserNotFound),
			errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			internalError(w)
		}
		return
	}

	setTokenCookie(w, resp.Token, resp.ExpiresAt)
	writeJSON(w, http.StatusOK, resp)
}

// HandleLogout handles GET /api/users/logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(r.Context(), middleware.TokenFromRequest(r))

	clearTokenCookie(w)
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "successfully logged out"})
}

// HandleLoginStatus handles GET /api/users/loginstatus requests.
func (h *AuthHandler) HandleLoginStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.CheckLoginStatus(r.Context(), middleware.TokenFromRequest(r)))
}

// HandleChangePassword handles PATCH /api/users/changepassword requests.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse(middleware.NotAuthorizedMessage))
		return
	}

	var req model.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingPasswords),
			errors.Is(err, service.ErrUserNotFound),
			errors.Is(err, service.ErrOldPasswordIncorrect),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrPasswordTooLong):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			internalError(w)
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("password change successful"))
}

// HandleForgotPassword handles POST /api/users/forgotpassword requests.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse("user does not exist"))
		case errors.Is(err, service.ErrEmailNotSent):
			writeJSON(w, http.StatusInternalServerError, errorResponse(service.ErrEmailNotSent.Error()))
		default:
			internalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "reset email sent"})
}

// HandleResetPassword handles PUT /api/users/resetpassword/{resetToken} requests.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "resetToken")

	var req model.ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.service.ResetPassword(r.Context(), raw, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrResetTokenInvalid):
			writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
		case errors.Is(err, service.ErrMissingFields),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrPasswordTooLong):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			internalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "password reset successful, please login"})
}
