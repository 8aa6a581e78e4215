package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invmanager/invmanager-go/internal/crypto"
	"github.com/invmanager/invmanager-go/internal/mail"
	"github.com/invmanager/invmanager-go/internal/model"
	"github.com/invmanager/invmanager-go/internal/repository"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email sent")
	return m.sent[len(m.sent)-1]
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]time.Time)}
}

func (r *fakeRevoker) Revoke(_ context.Context, id string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.revoked[id] = until
	return nil
}

func (r *fakeRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[id]
	return ok, nil
}

type testEnv struct {
	svc    *AuthService
	users  *repository.MemoryUserRepository
	resets *repository.MemoryResetTokenRepository
	mailer *fakeMailer
	tokens *crypto.TokenIssuer
}

func newTestEnv(t *testing.T, cfg AuthConfig) *testEnv {
	t.Helper()

	tokens, err := crypto.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}
	cfg.MailFrom = "support@example.com"
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	users := repository.NewMemoryUserRepository()
	env := &testEnv{
		users:  users,
		resets: repository.NewMemoryResetTokenRepository(users),
		mailer: &fakeMailer{},
		tokens: tokens,
	}
	env.svc = NewAuthService(env.users, env.resets, tokens, env.mailer, cfg)
	return env
}

func (e *testEnv) register(t *testing.T, email, password string) model.AuthResponse {
	t.Helper()
	resp, err := e.svc.Register(context.Background(), model.RegisterRequest{
		Name:     "Ada",
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})

	resp := env.register(t, "  Ada@Example.COM ", "secret1")

	assert.NotZero(t, resp.ID)
	assert.Equal(t, "ada@example.com", resp.Email)
	assert.Equal(t, "Ada", resp.Name)
	assert.Equal(t, model.DefaultPhoto, resp.Photo)
	assert.Equal(t, model.DefaultPhone, resp.Phone)
	assert.Equal(t, model.DefaultBio, resp.Bio)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	claims, err := env.tokens.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)

	stored, err := env.users.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	ok, err := crypto.VerifyPassword("secret1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  model.RegisterRequest
		want error
	}{
		{"missing name", model.RegisterRequest{Email: "a@example.com", Password: "secret1"}, ErrMissingFields},
		{"blank name", model.RegisterRequest{Name: "   ", Email: "a@example.com", Password: "secret1"}, ErrMissingFields},
		{"missing email", model.RegisterRequest{Name: "A", Password: "secret1"}, ErrMissingFields},
		{"missing password", model.RegisterRequest{Name: "A", Email: "a@example.com"}, ErrMissingFields},
		{"short password", model.RegisterRequest{Name: "A", Email: "a@example.com", Password: "12345"}, ErrPasswordTooShort},
		{"long password", model.RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("x", 24)}, ErrPasswordTooLong},
		{"invalid email", model.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret1"}, ErrInvalidEmail},
		{"long name", model.RegisterRequest{Name: strings.Repeat("n", 256), Email: "a@example.com", Password: "secret1"}, ErrNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, AuthConfig{})
			_, err := env.svc.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_PasswordBoundaries(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})

	env.register(t, "six@example.com", "123456")
	env.register(t, "max@example.com", strings.Repeat("y", MaxPasswordLength))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	first := env.register(t, "ada@example.com", "secret1")

	_, err := env.svc.Register(context.Background(), model.RegisterRequest{
		Name: "Other", Email: "ADA@example.com", Password: "another1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	stored, err := env.users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "Ada", stored.Name)
}

func TestRegister_ConcurrentDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Register(context.Background(), model.RegisterRequest{
				Name: fmt.Sprintf("user%d", i), Email: "race@example.com", Password: "secret1",
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrEmailTaken)
	}
	assert.Equal(t, 1, succeeded)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	reg := env.register(t, "ada@example.com", "secret1")

	resp, err := env.svc.Login(context.Background(), model.LoginRequest{Email: " ADA@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.ID, resp.ID)
	assert.NotEmpty(t, resp.Token)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	env.register(t, "ada@example.com", "secret1")

	tests := []struct {
		name string
		req  model.LoginRequest
		want error
	}{
		{"missing email", model.LoginRequest{Password: "secret1"}, ErrMissingCredentials},
		{"missing password", model.LoginRequest{Email: "ada@example.com"}, ErrMissingCredentials},
		{"unknown user", model.LoginRequest{Email: "bob@example.com", Password: "secret1"}, ErrUserNotFound},
		{"wrong password", model.LoginRequest{Email: "ada@example.com", Password: "secret2"}, ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Login(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	reg := env.register(t, "ada@example.com", "secret1")

	user, err := env.svc.Authenticate(context.Background(), reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthenticate_Rejects(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	reg := env.register(t, "ada@example.com", "secret1")

	other, err := crypto.NewTokenIssuer("other-secret", time.Hour)
	require.NoError(t, err)
	forged, _, err := other.GenerateToken(reg.ID)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":      "",
		"malformed":  "not.a.jwt",
		"bad secret": forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.Authenticate(context.Background(), token)
			assert.ErrorIs(t, err, ErrNotAuthorized)
			assert.False(t, env.svc.CheckLoginStatus(context.Background(), token))
		})
	}
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	reg := env.register(t, "ada@example.com", "secret1")

	require.NoError(t, env.users.Delete(context.Background(), reg.ID))

	_, err := env.svc.Authenticate(context.Background(), reg.Token)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Login status only checks the token itself.
	assert.True(t, env.svc.CheckLoginStatus(context.Background(), reg.Token))
}

func TestLogout_WithoutRevocation(t *testing.T) {
	env := newTestEnv(t, AuthConfig{})
	reg := env.register(t, "ada@example.com", "secret1")

	env.svc.Logout(context.Background(), reg.Token)
	env.svc.Logout(context.Background(), "")

	assert.True(t, env.svc.CheckLoginStatus(context.Background(), reg.Token))
}

func TestLogout_RevokesToken(t *testing.T) {
	revoker := newFakeRevoker()
	env := newTestEnv(t, AuthConfig{Revocations: revoker})
	reg := env.register(t, "ada@example.com", "secret1")

	env.svc.Logout(context.Background(), reg.Token)

	claims, err := env.tokens.ValidateToken(reg.Token)
	require.NoError(t, err)
	until, ok := revoker.revoked[claims.ID]
	require.True(t, ok)
	assert.WithinDuration(t, claims.ExpiresAt.Time, until, time.Second)

	assert.False(t, env.svc.CheckLoginStatus(context.Background(), reg.Token))
	_, err = env.svc.Authenticate(context.Background(), reg.Token)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// A fresh login issues a new token id.
	again, err := env.svc.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, env.svc.CheckLoginStatus(context.Background(), again.Token))
}

func TestLogout_InvalidTokenIsNoop(t *testing.T) {
	revoker := newFakeRevoker()
	env := newTestEnv(t, AuthConfig{Revocations: revoker})

	env.svc.Logout(context.Background(), "garbage")
	assert.Empty(t, revoker.revoked)
}

func TestLogout_RevocationFailureIsSwallowed(t *testing.T) {
	revoker := newFakeRevoker()
	revoker.err = errors.New("connection refused")
	env := newTestEnv(t, AuthConfig{Revocations: revoker})
	reg := env.register(t, "ada@example.com", "secret1")

	assert.NotPanics(t, func() { env.svc.Logout(context.Background(), reg.Token) })
	assert.Empty(t, revoker.revoked)
}

func TestAuthenticate_RevocationStoreDown(t *testing.T) {
	revoker := newFakeRevoker()
	env := newTestEnv(t, AuthConfig{Revocations: revoker})
	reg := env.register(t, "ada@example.com", "secret1")

	revoker.err = errors.New("connection refused")

	_, err := env.svc.Authenticate(context.Background(), reg.Token)
	assert.Error(t, err)
	assert.False(t, env.svc.CheckLoginStatus(context.Background(), reg.Token))
}

var resetURLPattern = regexp.MustCompile(`/resetpassword/([0-9a-f]+[0-9]+)"`)

func rawTokenFrom(t *testing.T, msg mail.Message) string {
	t.Helper()
	m := resetURLPattern.FindStringSubmatch(msg.HTMLBody)
	require.Len(t, m, 2, "reset link not found in email body")
	return m[1]
}
