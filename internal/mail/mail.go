// Package mail delivers transactional email through an SMTP relay.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/gomail.v2"
)

var (
	ErrNotConfigured = errors.New("email relay not configured")
	ErrNoRecipient   = errors.New("empty recipient")
)

// Message is a single HTML email.
type Message struct {
	Subject  string
	HTMLBody string
	From     string
	To       string
	ReplyTo  string
}

// SMTPConfig holds the relay connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Configured reports whether enough settings are present to send mail.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != ""
}

// SMTPSender sends messages with gomail.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger
	send   func(m ...*gomail.Message) error
}

// NewSMTPSender creates a sender for the given relay.
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	s := &SMTPSender{cfg: cfg, logger: logger}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	s.send = d.DialAndSend
	return s
}

// Send delivers msg. gomail has no context support, so ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.send(buildMessage(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}

func buildMessage(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTMLBody)
	return m
}

// LogSender logs the recipient and subject of each message instead of sending it.
// Bodies are never logged since reset mails carry a live secret.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Warn("email relay not configured, message logged only",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}
