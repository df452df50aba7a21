// Package service contains the business logic layer: validation, the
// membership and ownership rules, and orchestration between the auth
// utilities and the repositories. Handlers translate HTTP in and out;
// repositories run SQL; everything in between lives here.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/auth"
	"github.com/charlesaguiar/nlw-copa-server/internal/model"
	"github.com/charlesaguiar/nlw-copa-server/internal/repository"
)

// GoogleExchanger resolves a Google access token into a profile.
// Satisfied by *auth.GoogleProvider; tests substitute a stub.
type GoogleExchanger interface {
	Exchange(ctx context.Context, accessToken string) (*auth.GoogleUser, error)
}

// AuthService implements both identity paths: local email/password and
// Google. Whichever path a request takes, the outcome is the same kind
// of thing: one User row and a signed 7-day session token for it.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	google    GoogleExchanger
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	google GoogleExchanger,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		google:    google,
		logger:    logger,
	}
}

// Signup creates a local email/password account and returns it.
//
// The password is bcrypt-hashed before it goes anywhere near the
// repository. The duplicate-email check is the UNIQUE constraint behind
// users.Create, not a lookup here, so concurrent signups with the same
// address cannot both succeed.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing signup password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user (email=%s): %w", email, err)
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates the local path and returns a session token.
//
// An unknown email is NotFound; a wrong password is Unauthorized. The
// original server draws the same distinction (404 vs 401), so we keep
// it, even though it reveals which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", fmt.Errorf("service/auth: looking up login email: %w", err)
	}

	// Google-only accounts have no hash; a password login against one
	// fails the same way a wrong password does.
	if user.PasswordHash == "" || s.passwords.Verify(user.PasswordHash, password) != nil {
		return "", apperror.Unauthorized("Wrong password.")
	}

	return s.issueToken(user)
}

// LoginWithGoogle authenticates the external path: exchange the access
// token for a profile, resolve that to exactly one user, then issue a
// session token.
//
// Any failure talking to Google (rejected token, non-200, payload that
// doesn't match the schema) is an upstream auth error. No user row is
// written until the exchange has fully succeeded, so a flaky provider
// can't leave a half-created account.
func (s *AuthService) LoginWithGoogle(ctx context.Context, accessToken string) (string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return "", apperror.ValidationFailed("access_token", "access_token is required")
	}

	profile, err := s.google.Exchange(ctx, accessToken)
	if err != nil {
		s.logger.Warn("google exchange failed", slog.String("error", err.Error()))
		return "", apperror.UpstreamAuth("could not verify Google credentials")
	}

	user, err := s.users.FindOrCreateByGoogleID(ctx, &model.User{
		Name:      profile.Name,
		Email:     profile.Email,
		GoogleID:  profile.ID,
		AvatarURL: profile.Picture,
	})
	if err != nil {
		return "", fmt.Errorf("service/auth: resolving google user: %w", err)
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", user.ID),
	)

	return s.issueToken(user)
}

// Me returns the user record for a validated token subject.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", userID, err)
	}

	return user, nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	token, err := s.tokens.Generate(auth.Identity{
		UserID:    user.ID,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	})
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return token, nil
}
