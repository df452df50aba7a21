package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/invite"
	"github.com/charlesaguiar/nlw-copa-server/internal/model"
	"github.com/charlesaguiar/nlw-copa-server/internal/repository"
)

// maxCodeAttempts bounds the retry loop on invite-code collisions. With
// ~2.2 billion possible codes, five straight collisions means something
// is broken, not unlucky; better to fail loudly at that point.
const maxCodeAttempts = 5

// PoolService owns the pool membership and ownership lifecycle.
type PoolService struct {
	pools  repository.PoolRepository
	logger *slog.Logger
}

// NewPoolService creates a PoolService.
func NewPoolService(pools repository.PoolRepository, logger *slog.Logger) *PoolService {
	return &PoolService{
		pools:  pools,
		logger: logger,
	}
}

// Create makes a new pool and returns it (the caller mostly wants the
// generated code).
//
// ownerID carries the resolved optional identity: non-empty when the
// request presented a valid session, empty when it was anonymous or the
// token failed verification. An owned pool gets its owner's participant
// row in the same repository transaction; an anonymous pool starts
// unowned and the first joiner adopts it (see Join).
//
// The generator doesn't pre-check uniqueness; the UNIQUE(code)
// constraint does, and a collision gets a fresh code, up to
// maxCodeAttempts times.
func (s *PoolService) Create(ctx context.Context, title, ownerID string) (*model.Pool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := invite.NewCode()
		if err != nil {
			return nil, fmt.Errorf("service/pool: generating invite code: %w", err)
		}

		pool := &model.Pool{
			Title:   title,
			Code:    code,
			OwnerID: ownerID,
		}

		err = s.pools.Create(ctx, pool)
		if err == nil {
			s.logger.Info("pool created",
				slog.String("poolID", pool.ID),
				slog.String("code", pool.Code),
				slog.Bool("owned", ownerID != ""),
			)
			return pool, nil
		}

		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/pool: creating pool: %w", err)
		}

		// Code collision: try again with a new code.
		lastErr = err
		s.logger.Warn("invite code collision, retrying",
			slog.String("code", code),
			slog.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("service/pool: exhausted %d invite code attempts: %w", maxCodeAttempts, lastErr)
}

// Join admits the authenticated user into the pool identified by code.
//
// The pre-check for an existing membership gives the common case a clean
// AlreadyJoined answer; the UNIQUE(user_id, pool_id) constraint behind
// the repository's Join covers the race when two identical joins arrive
// together. Ownership repair (first joiner of an unowned pool becomes
// owner) happens inside the same transaction as the membership insert.
func (s *PoolService) Join(ctx context.Context, code, userID string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return apperror.ValidationFailed("code", "code is required")
	}

	pool, err := s.pools.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("service/pool: looking up pool by code: %w", err)
	}

	joined, err := s.pools.HasParticipant(ctx, pool.ID, userID)
	if err != nil {
		return fmt.Errorf("service/pool: checking membership: %w", err)
	}
	if joined {
		return apperror.Conflict("code", "You already joined this pool.")
	}

	if err := s.pools.Join(ctx, pool.ID, userID); err != nil {
		return fmt.Errorf("service/pool: joining pool %s: %w", pool.ID, err)
	}

	s.logger.Info("user joined pool",
		slog.String("poolID", pool.ID),
		slog.String("userID", userID),
	)

	return nil
}

// ListForUser returns the pools the user participates in, decorated for
// the client's pool list.
func (s *PoolService) ListForUser(ctx context.Context, userID string) ([]model.PoolSummary, error) {
	summaries, err := s.pools.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/pool: listing pools for user %s: %w", userID, err)
	}
	return summaries, nil
}

// GetByID returns pool detail by id for any authenticated caller.
// Membership is deliberately NOT required; see the repository note.
func (s *PoolService) GetByID(ctx context.Context, id string) (*model.PoolSummary, error) {
	summary, err := s.pools.GetSummaryByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/pool: getting pool %s: %w", id, err)
	}
	return summary, nil
}

// Count returns the total pool count for the public landing page.
func (s *PoolService) Count(ctx context.Context) (int, error) {
	count, err := s.pools.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("service/pool: counting pools: %w", err)
	}
	return count, nil
}
