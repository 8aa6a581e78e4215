package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/invmanager/invmanager-go/internal/crypto"
	"github.com/invmanager/invmanager-go/internal/mail"
	"github.com/invmanager/invmanager-go/internal/metrics"
	"github.com/invmanager/invmanager-go/internal/model"
	"github.com/invmanager/invmanager-go/internal/repository"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 23

	DefaultResetTokenTTL = 30 * time.Minute
)

var (
	ErrMissingFields      = errors.New("please fill in all required fields")
	ErrMissingCredentials = errors.New("please add email and password")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must not be more than 23 characters")
	ErrInvalidEmail       = errors.New("please enter a valid email")
	ErrNameTooLong        = errors.New("name must not be more than 255 characters")
	ErrEmailTaken         = errors.New("this email has already been registered")
	ErrUserNotFound       = errors.New("user not found, please sign up")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthorized      = errors.New("not authorized, please login")
)

// UserRepository is the credential store used by AuthService.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// ResetTokenRepository is the password-reset token store used by AuthService.
type ResetTokenRepository interface {
	Replace(ctx context.Context, token *model.ResetToken) error
	FindValid(ctx context.Context, tokenHash string, now time.Time) (*model.ResetToken, error)
	// Consume deletes the token and stores passwordHash for userID atomically.
	Consume(ctx context.Context, id, userID int64, passwordHash string) error
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// TokenRevoker keeps a denylist of logged-out session tokens.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Uploader stores files in object storage and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// AuthConfig holds the optional collaborators and settings of AuthService.
type AuthConfig struct {
	FrontendURL   string
	MailFrom      string
	ResetTokenTTL time.Duration
	Revocations   TokenRevoker // nil: logout only clears the cookie
	Uploader      Uploader     // nil: photo upload disabled
	Logger        *slog.Logger
}

// AuthService handles authentication and credential lifecycle business logic.
type AuthService struct {
	users       UserRepository
	resets      ResetTokenRepository
	tokens      *crypto.TokenIssuer
	mailer      Mailer
	revocations TokenRevoker
	uploader    Uploader
	frontendURL string
	mailFrom    string
	resetTTL    time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, resets ResetTokenRepository, tokens *crypto.TokenIssuer, mailer Mailer, cfg AuthConfig) *AuthService {
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AuthService{
		users:       users,
		resets:      resets,
		tokens:      tokens,
		mailer:      mailer,
		revocations: cfg.Revocations,
		uploader:    cfg.Uploader,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		mailFrom:    cfg.MailFrom,
		resetTTL:    cfg.ResetTokenTTL,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// PhotoUploadEnabled reports whether an object store is configured.
func (s *AuthService) PhotoUploadEnabled() bool {
	return s.uploader != nil
}

// Register creates a new user account and returns an auth token.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	resp, err := s.register(ctx, req)
	metrics.ObserveAuth(metrics.EventRegister, err)
	return resp, err
}

func (s *AuthService) register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return model.AuthResponse{}, ErrMissingFields
	}
	if err := validatePassword(req.Password); err != nil {
		return model.AuthResponse{}, err
	}
	if err := validateName(name); err != nil {
		return model.AuthResponse{}, err
	}
	if err := validateEmail(email); err != nil {
		return model.AuthResponse{}, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.AuthResponse{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Photo:        model.DefaultPhoto,
		Phone:        model.DefaultPhone,
		Bio:          model.DefaultBio,
	}

	// The pre-check above is racy; the store's unique index is authoritative.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.AuthResponse{}, ErrEmailTaken
		}
		return model.AuthResponse{}, err
	}

	return s.issue(user)
}

// Login authenticates a user and returns an auth token.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	resp, err := s.login(ctx, req)
	metrics.ObserveAuth(metrics.EventLogin, err)
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return model.AuthResponse{}, ErrMissingCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.AuthResponse{}, ErrUserNotFound
		}
		return model.AuthResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Logout revokes the session token when a revocation list is configured.
// Without one a token stays valid until it expires; clearing the cookie is the caller's job.
// A failed revocation is logged and counted but never fails the logout.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if s.revocations == nil || token == "" {
		return
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return
	}

	err = s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	metrics.ObserveAuth(metrics.EventLogout, err)
	if err != nil {
		s.logger.Error("session revocation failed",
			slog.Int64("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// CheckLoginStatus reports whether token is a valid, unrevoked session token.
func (s *AuthService) CheckLoginStatus(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return false
	}
	revoked, err := s.isRevoked(ctx, claims.ID)
	return err == nil && !revoked
}

// Authenticate resolves a session token to a live user. The returned user carries no password hash.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNotAuthorized
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return model.User{}, ErrNotAuthorized
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return model.User{}, err
	}
	if revoked {
		return model.User{}, ErrNotAuthorized
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrNotAuthorized
		}
		return model.User{}, err
	}

	user.PasswordHash = ""
	return *user, nil
}

func (s *AuthService) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.revocations == nil {
		return false, nil
	}
	return s.revocations.IsRevoked(ctx, tokenID)
}

func (s *AuthService) issue(user *model.User) (model.AuthResponse, error) {
	token, expiresAt, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		UserResponse: user.Profile(),
		Token:        token,
		ExpiresAt:    expiresAt,
	}, nil
}

var validate = validator.New()

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=191"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func validateName(name string) error {
	if err := validate.Var(name, fmt.Sprintf("max=%d", model.MaxNameLength)); err != nil {
		return ErrNameTooLong
	}
	return nil
}

func validatePhone(phone string) error {
	if err := validate.Var(phone, fmt.Sprintf("max=%d", model.MaxPhoneLength)); err != nil {
		return ErrPhoneTooLong
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < MinPasswordLength:
		return ErrPasswordTooShort
	case n > MaxPasswordLength:
		return ErrPasswordTooLong
	}
	return nil
}
