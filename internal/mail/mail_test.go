package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSender(send func(m ...*gomail.Message) error) *SMTPSender {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"}, discardLogger())
	s.send = send
	return s
}

func TestSend_BuildsHeaders(t *testing.T) {
	var got *gomail.Message
	s := testSender(func(m ...*gomail.Message) error {
		got = m[0]
		return nil
	})

	err := s.Send(context.Background(), Message{
		Subject: "Hi", HTMLBody: "<p>x</p>", From: "support@example.com",
		To: "ada@example.com", ReplyTo: "ada@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"support@example.com"}, got.GetHeader("From"))
	assert.Equal(t, []string{"ada@example.com"}, got.GetHeader("To"))
	assert.Equal(t, []string{"ada@example.com"}, got.GetHeader("Reply-To"))
	assert.Equal(t, []string{"Hi"}, got.GetHeader("Subject"))
}

func TestSend_OmitsEmptyReplyTo(t *testing.T) {
	var got *gomail.Message
	s := testSender(func(m ...*gomail.Message) error {
		got = m[0]
		return nil
	})

	require.NoError(t, s.Send(context.Background(), Message{To: "a@example.com"}))
	assert.Empty(t, got.GetHeader("Reply-To"))
}

func TestSend_WrapsRelayError(t *testing.T) {
	relayErr := errors.New("535 auth failed")
	s := testSender(func(m ...*gomail.Message) error { return relayErr })

	err := s.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorIs(t, err, relayErr)
}

func TestSend_RejectsMissingConfigAndRecipient(t *testing.T) {
	unconfigured := NewSMTPSender(SMTPConfig{}, discardLogger())
	assert.ErrorIs(t, unconfigured.Send(context.Background(), Message{To: "a@example.com"}), ErrNotConfigured)

	s := testSender(func(m ...*gomail.Message) error { return nil })
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: "  "}), ErrNoRecipient)
}

func TestSend_CancelledContext(t *testing.T) {
	called := false
	s := testSender(func(m ...*gomail.Message) error {
		called = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Send(ctx, Message{To: "a@example.com"}), context.Canceled)
	assert.False(t, called)
}

func TestResetPasswordBody(t *testing.T) {
	body := ResetPasswordBody("<Ada>", "https://app.example.com/resetpassword/abc1")

	assert.Contains(t, body, "https://app.example.com/resetpassword/abc1")
	assert.Contains(t, body, "&lt;Ada&gt;")
	assert.False(t, strings.Contains(body, "<Ada>"))
}

func TestContactBody_EscapesInput(t *testing.T) {
	body := ContactBody("Ada", "ada@example.com", "<script>x</script>")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "ada@example.com")
}

func TestLogSender_OmitsBody(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))

	link := "https://app.example.com/resetpassword/0badc0ffee42"
	err := s.Send(context.Background(), Message{
		To:       "ada@example.com",
		Subject:  ResetPasswordSubject,
		HTMLBody: ResetPasswordBody("Ada", link),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "ada@example.com")
	assert.Contains(t, out, ResetPasswordSubject)
	assert.NotContains(t, out, "0badc0ffee42")
}
