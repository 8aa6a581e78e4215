package model

import (
	"io"
	"time"
)

// ResetToken is a stored password-reset credential. Only the hash of the raw secret is kept.
type ResetToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token can no longer be used at now.
func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// ForgotPasswordRequest starts the reset flow for an email address.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest sets a new password using the raw token from the reset URL.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ContactRequest is a message sent to the support mailbox.
type ContactRequest struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// PhotoUpload describes an uploaded profile image.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
