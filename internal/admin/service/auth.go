package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/quizmehq/quizme/internal/admin/domain"
	"github.com/quizmehq/quizme/internal/admin/store"
	"github.com/quizmehq/quizme/pkg/cryptox"
	"github.com/quizmehq/quizme/pkg/idx"
	"github.com/quizmehq/quizme/pkg/jwtx"
	"github.com/quizmehq/quizme/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrUserDisabled       = errors.New("user_disabled")
	ErrUsernameTaken      = errors.New("username_taken")
	ErrEmailTaken         = errors.New("email_taken")
)

// ValidationError carries a user-facing message for a rejected
// registration field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	minPasswordLength = 8
	defaultRole       = "user"
)

type AuthService struct {
	Store      store.Store
	Signer     jwtx.Signer
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// AuthResult is what every successful auth operation produces: the user
// and a freshly issued token pair.
type AuthResult struct {
	User domain.User
	Pair domain.TokenPair
}

// RegisterParams are the validated inputs for account creation.
type RegisterParams struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
}

// Login authenticates a username or email plus password and issues a
// token pair. Unknown accounts and wrong passwords are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, usernameOrEmail, password string) (*AuthResult, error) {
	l := slogx.FromContext(ctx)
	now := time.Now()

	user, err := s.Store.Users().GetUserByLogin(ctx, strings.TrimSpace(usernameOrEmail))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("login failed", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		l.Info("login rejected for disabled account", slog.String("user_id", user.ID))
		return nil, ErrUserDisabled
	}

	return s.issueTokens(ctx, user, now)
}

// Register validates the inputs, creates the account with the default
// role, and issues a first token pair.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*AuthResult, error) {
	now := time.Now()

	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.FullName = strings.TrimSpace(p.FullName)

	if err := validateRegistration(p); err != nil {
		return nil, err
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		ID:           idx.New().String(),
		Username:     p.Username,
		Email:        p.Email,
		FullName:     p.FullName,
		PasswordHash: hash,
		Role:         defaultRole,
		IsActive:     true,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, s.classifyConflict(ctx, p)
		}
		return nil, err
	}

	slogx.FromContext(ctx).Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return s.issueTokens(ctx, user, now)
}

// Refresh validates the presented opaque token by fingerprint lookup,
// rejects revoked and expired tokens, and rotates: the old token is
// revoked and a new pair is issued in one transaction. A rejected token
// stays rejected; rotation means each refresh token works exactly once.
func (s *AuthService) Refresh(ctx context.Context, refreshOpaque string) (*AuthResult, error) {
	now := time.Now()

	fp := cryptox.FingerprintToken(refreshOpaque)
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	if rt.Revoked || now.After(rt.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	newOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	newRT := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(newOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}

	// Atomically: revoke the presented token and persist its successor.
	if err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, newRT)
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		User: user,
		Pair: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: newOpaque,
			ExpiresIn:    s.AccessTTL,
		},
	}, nil
}

// Logout revokes the presented refresh token. Unknown tokens are
// treated as success so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshOpaque string) error {
	if refreshOpaque == "" {
		return nil
	}

	fp := cryptox.FingerprintToken(refreshOpaque)
	if _, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, fp)
}

// GetUserByID fetches a user by id.
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

func (s *AuthService) issueTokens(ctx context.Context, user domain.User, now time.Time) (*AuthResult, error) {
	accessToken, err := s.signAccess(user, now)
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    user.ID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
	}

	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	return &AuthResult{
		User: user,
		Pair: domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshOpaque,
			ExpiresIn:    s.AccessTTL,
		},
	}, nil
}

func (s *AuthService) signAccess(user domain.User, now time.Time) (string, error) {
	claims := jwtx.NewAccessClaims(
		user.ID, user.Username, user.Email, user.FullName, user.Role,
		s.AccessTTL, s.Issuer, now,
	)
	return s.Signer.Sign(claims)
}

// classifyConflict turns a unique-constraint failure into the specific
// taken-field error so the UI can point at the offending input.
func (s *AuthService) classifyConflict(ctx context.Context, p RegisterParams) error {
	if existing, err := s.Store.Users().GetUserByLogin(ctx, p.Username); err == nil &&
		strings.EqualFold(existing.Username, p.Username) {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

func validateRegistration(p RegisterParams) error {
	if !usernamePattern.MatchString(p.Username) {
		return &ValidationError{Message: "Username must be 3-32 characters of letters, numbers, or underscores"}
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return &ValidationError{Message: "Email address is not valid"}
	}
	if len(p.Password) < minPasswordLength {
		return &ValidationError{Message: "Password must be at least 8 characters"}
	}
	if p.Password != p.ConfirmPassword {
		return &ValidationError{Message: "Passwords do not match"}
	}
	return nil
}
