package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/model"
	"github.com/charlesaguiar/nlw-copa-server/internal/repository"
)

// GameService stores fixtures and guesses. There is no scoring or
// ranking here; guesses are write-once records, nothing computes on
// them.
type GameService struct {
	games  repository.GameRepository
	pools  repository.PoolRepository
	logger *slog.Logger
}

// NewGameService creates a GameService. It needs the pool repository
// too: guessing is gated on being a participant of the pool.
func NewGameService(games repository.GameRepository, pools repository.PoolRepository, logger *slog.Logger) *GameService {
	return &GameService{
		games:  games,
		pools:  pools,
		logger: logger,
	}
}

// CreateGame registers a fixture.
func (s *GameService) CreateGame(ctx context.Context, date time.Time, firstTeam, secondTeam string) (*model.Game, error) {
	if date.IsZero() {
		return nil, apperror.ValidationFailed("date", "date is required")
	}
	if len(firstTeam) != 2 || len(secondTeam) != 2 {
		return nil, apperror.ValidationFailed("countryCode", "team country codes must be 2 letters")
	}

	game := &model.Game{
		Date:                  date,
		FirstTeamCountryCode:  firstTeam,
		SecondTeamCountryCode: secondTeam,
	}
	if err := s.games.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("service/game: creating game: %w", err)
	}

	return game, nil
}

// ListForPool returns all games annotated with the requesting user's
// guesses in the given pool. The caller must be a participant; the
// guesses shown are theirs.
func (s *GameService) ListForPool(ctx context.Context, poolID, userID string) ([]model.GameWithGuess, error) {
	participant, err := s.pools.GetParticipant(ctx, poolID, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("poolId", "You're not allowed to see games inside this pool.")
		}
		return nil, fmt.Errorf("service/game: resolving participant: %w", err)
	}

	games, err := s.games.ListWithGuesses(ctx, participant.ID)
	if err != nil {
		return nil, fmt.Errorf("service/game: listing games: %w", err)
	}
	return games, nil
}

// SubmitGuess stores a participant's score prediction for a game.
//
// Rules, in the order they are checked: the caller must participate in
// the pool, the game must exist, the game must not have started yet, and
// only one guess per (participant, game) is admitted. The last rule is
// enforced by the database so concurrent submissions can't slip two in.
func (s *GameService) SubmitGuess(ctx context.Context, poolID, gameID, userID string, firstPoints, secondPoints int) (*model.Guess, error) {
	if firstPoints < 0 || secondPoints < 0 {
		return nil, apperror.ValidationFailed("points", "points must not be negative")
	}

	participant, err := s.pools.GetParticipant(ctx, poolID, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ValidationFailed("poolId", "You're not allowed to create a guess inside this pool.")
		}
		return nil, fmt.Errorf("service/game: resolving participant: %w", err)
	}

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("service/game: looking up game %s: %w", gameID, err)
	}

	if time.Now().After(game.Date) {
		return nil, apperror.ValidationFailed("date", "You cannot send guesses after the game date.")
	}

	guess := &model.Guess{
		ParticipantID:    participant.ID,
		GameID:           game.ID,
		FirstTeamPoints:  firstPoints,
		SecondTeamPoints: secondPoints,
	}
	if err := s.games.CreateGuess(ctx, guess); err != nil {
		return nil, fmt.Errorf("service/game: storing guess: %w", err)
	}

	s.logger.Info("guess submitted",
		slog.String("participantID", participant.ID),
		slog.String("gameID", game.ID),
	)

	return guess, nil
}
