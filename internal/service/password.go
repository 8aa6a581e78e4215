package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/invmanager/invmanager-go/internal/crypto"
	"github.com/invmanager/invmanager-go/internal/mail"
	"github.com/invmanager/invmanager-go/internal/metrics"
	"github.com/invmanager/invmanager-go/internal/model"
	"github.com/invmanager/invmanager-go/internal/repository"
)

var (
	ErrMissingPasswords     = errors.New("please add old and new password")
	ErrOldPasswordIncorrect = errors.New("old password is incorrect")
	ErrResetTokenInvalid    = errors.New("invalid or expired token")
	ErrEmailNotSent         = errors.New("email not sent, please try again")
)

// ChangePassword replaces the password of userID after checking the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) error {
	err := s.changePassword(ctx, userID, req)
	metrics.ObserveAuth(metrics.EventChangePassword, err)
	return err
}

func (s *AuthService) changePassword(ctx context.Context, userID int64, req model.ChangePasswordRequest) error {
	if req.OldPassword == "" || req.Password == "" {
		return ErrMissingPasswords
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	match, err := crypto.VerifyPassword(req.OldPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !match {
		return ErrOldPasswordIncorrect
	}

	if err := validatePassword(req.Password); err != nil {
		return err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// ForgotPassword issues a reset token for email and mails the reset link.
// Any token the user already holds is replaced.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	err := s.forgotPassword(ctx, email)
	metrics.ObserveAuth(metrics.EventForgotPassword, err)
	return err
}

func (s *AuthService) forgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrUserNotFound
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	raw, err := crypto.NewResetToken(user.ID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	token := &model.ResetToken{
		UserID:    user.ID,
		TokenHash: crypto.HashResetToken(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(s.resetTTL),
	}
	if err := s.resets.Replace(ctx, token); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	msg := mail.Message{
		Subject:  mail.ResetPasswordSubject,
		HTMLBody: mail.ResetPasswordBody(user.Name, s.ResetURL(raw)),
		From:     s.mailFrom,
		To:       user.Email,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("reset email failed", slog.Int64("user_id", user.ID), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrEmailNotSent, err)
	}
	return nil
}

// ResetURL returns the frontend link that carries a raw reset token.
func (s *AuthService) ResetURL(raw string) string {
	return s.frontendURL + "/resetpassword/" + raw
}

// ResetPassword sets a new password for the owner of a valid reset token.
// The token is consumed on success.
func (s *AuthService) ResetPassword(ctx context.Context, raw, password string) error {
	err := s.resetPassword(ctx, raw, password)
	metrics.ObserveAuth(metrics.EventResetPassword, err)
	return err
}

func (s *AuthService) resetPassword(ctx context.Context, raw, password string) error {
	if raw == "" {
		return ErrResetTokenInvalid
	}

	token, err := s.resets.FindValid(ctx, crypto.HashResetToken(raw), s.now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}

	if password == "" {
		return ErrMissingFields
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return err
	}

	err = s.resets.Consume(ctx, token.ID, token.UserID, hash)
	switch {
	case errors.Is(err, repository.ErrResetTokenNotFound), errors.Is(err, repository.ErrUserNotFound):
		return ErrResetTokenInvalid
	case err != nil:
		return fmt.Errorf("consume reset token: %w", err)
	}
	return nil
}
