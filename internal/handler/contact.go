package handler

import (
	"errors"
	"net/http"

	"github.com/invmanager/invmanager-go/internal/middleware"
	"github.com/invmanager/invmanager-go/internal/model"
	"github.com/invmanager/invmanager-go/internal/service"
)

// ContactHandler handles contact-us requests.
type ContactHandler struct {
	service *service.ContactService
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService) *ContactHandler {
	return &ContactHandler{service: svc}
}

// HandleContact handles POST /api/contactus requests.
func (h *ContactHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse(middleware.NotAuthorizedMessage))
		return
	}

	var req model.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Send(r.Context(), user, req); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingMessage):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, service.ErrEmailNotSent):
			writeJSON(w, http.StatusInternalServerError, errorResponse(service.ErrEmailNotSent.Error()))
		default:
			internalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Message: "email sent"})
}
