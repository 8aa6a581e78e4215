package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invmanager/invmanager-go/internal/mail"
	"github.com/invmanager/invmanager-go/internal/model"
)

var ErrMissingMessage = errors.New("please add subject and message")

// ContactService forwards contact-us messages to the support mailbox.
type ContactService struct {
	mailer  Mailer
	support string
	logger  *slog.Logger
}

// NewContactService creates a new ContactService delivering to support.
func NewContactService(mailer Mailer, support string, logger *slog.Logger) *ContactService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{mailer: mailer, support: support, logger: logger}
}

// Send mails req to support with the sender as Reply-To.
func (s *ContactService) Send(ctx context.Context, sender model.User, req model.ContactRequest) error {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)
	if subject == "" || message == "" {
		return ErrMissingMessage
	}

	msg := mail.Message{
		Subject:  subject,
		HTMLBody: mail.ContactBody(sender.Name, sender.Email, message),
		From:     s.support,
		To:       s.support,
		ReplyTo:  sender.Email,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("contact email failed", slog.Int64("user_id", sender.ID), slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrEmailNotSent, err)
	}
	return nil
}
