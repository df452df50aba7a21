// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage is the only implementation;
// tests substitute in-memory fakes.
//
// Multi-step writes that must be atomic (pool + owner participant on
// creation, owner repair + participant on join, insert-or-fetch for
// Google identities) are modeled as single interface methods so the
// implementation can run them in one transaction instead of leaking
// transaction handles upward.
package repository

import (
	"context"

	"github.com/charlesaguiar/nlw-copa-server/internal/model"
)

type UserRepository interface {
	// Create inserts a new user. A duplicate email surfaces as an
	// apperror conflict, not a generic failure.
	Create(ctx context.Context, user *model.User) error

	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// FindOrCreateByGoogleID resolves a Google identity to exactly one
	// user row, creating it on first login. Concurrent calls with the
	// same GoogleID must converge on a single row; the implementation
	// leans on the UNIQUE(google_id) constraint, not a read-then-write.
	FindOrCreateByGoogleID(ctx context.Context, user *model.User) (*model.User, error)

	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

type PoolRepository interface {
	// Create inserts the pool and, when pool.OwnerID is set, the owner's
	// participant row in the same transaction. A code collision surfaces
	// as an apperror conflict so the caller can retry with a fresh code.
	Create(ctx context.Context, pool *model.Pool) error

	GetByCode(ctx context.Context, code string) (*model.Pool, error)
	GetSummaryByID(ctx context.Context, id string) (*model.PoolSummary, error)
	ListForUser(ctx context.Context, userID string) ([]model.PoolSummary, error)

	HasParticipant(ctx context.Context, poolID, userID string) (bool, error)
	GetParticipant(ctx context.Context, poolID, userID string) (*model.Participant, error)

	// Join adds the user as a participant and, if the pool is still
	// unowned, makes them the owner, in one transaction so concurrent
	// joins can't leave ownership set without membership or vice versa.
	// A racing duplicate join surfaces as an apperror conflict.
	Join(ctx context.Context, poolID, userID string) error

	Count(ctx context.Context) (int, error)
}

type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	GetByID(ctx context.Context, id string) (*model.Game, error)

	// ListWithGuesses returns all games, newest first, each annotated
	// with the given participant's guess when one exists.
	ListWithGuesses(ctx context.Context, participantID string) ([]model.GameWithGuess, error)

	// CreateGuess stores a score prediction. A second guess for the same
	// (participant, game) pair surfaces as an apperror conflict.
	CreateGuess(ctx context.Context, guess *model.Guess) error
}
