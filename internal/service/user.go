package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charlesaguiar/nlw-copa-server/internal/model"
	"github.com/charlesaguiar/nlw-copa-server/internal/repository"
)

// UserService covers the administrative user endpoints: the public
// listing/counter the landing page shows and explicit account deletion.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}

// Count returns the total user count.
func (s *UserService) Count(ctx context.Context) (int, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/user: counting users: %w", err)
	}
	return count, nil
}

// Delete removes an account. The database cascades through the user's
// participants and guesses; pools they own fall back to unowned.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("service/user: deleting user %s: %w", id, err)
	}

	s.logger.Info("user deleted", slog.String("userID", id))
	return nil
}
