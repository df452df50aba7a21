package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/xid"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeGameRepo is an in-memory repository.GameRepository.
type fakeGameRepo struct {
	games   map[string]*model.Game
	guesses map[string]*model.Guess // keyed by participantID+"/"+gameID
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{
		games:   make(map[string]*model.Game),
		guesses: make(map[string]*model.Guess),
	}
}

func (f *fakeGameRepo) Create(ctx context.Context, game *model.Game) error {
	game.ID = xid.New().String()
	game.CreatedAt = time.Now()
	copied := *game
	f.games[game.ID] = &copied
	return nil
}

func (f *fakeGameRepo) GetByID(ctx context.Context, id string) (*model.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	return g, nil
}

func (f *fakeGameRepo) ListWithGuesses(ctx context.Context, participantID string) ([]model.GameWithGuess, error) {
	games := []model.GameWithGuess{}
	for _, g := range f.games {
		gg := model.GameWithGuess{Game: *g}
		if guess, ok := f.guesses[participantID+"/"+g.ID]; ok {
			gg.Guess = guess
		}
		games = append(games, gg)
	}
	return games, nil
}

func (f *fakeGameRepo) CreateGuess(ctx context.Context, guess *model.Guess) error {
	key := guess.ParticipantID + "/" + guess.GameID
	if _, ok := f.guesses[key]; ok {
		return apperror.Conflict("gameId", "You already sent a guess to this game on this pool.")
	}
	guess.ID = xid.New().String()
	guess.CreatedAt = time.Now()
	copied := *guess
	f.guesses[key] = &copied
	return nil
}

// gameTestEnv wires a GameService with fakes plus a pool the user
// participates in.
func gameTestEnv(t *testing.T) (*GameService, *fakeGameRepo, *model.Pool) {
	t.Helper()

	games := newFakeGameRepo()
	pools := newFakePoolRepo()
	svc := NewGameService(games, pools, testLogger())

	pool := &model.Pool{Title: "Copa", Code: "ABC123", OwnerID: "user-1"}
	if err := pools.Create(context.Background(), pool); err != nil {
		t.Fatalf("creating fixture pool: %v", err)
	}

	return svc, games, pool
}

// =========================================================================
// CREATE GAME TESTS
// =========================================================================

func TestCreateGame(t *testing.T) {
	svc, _, _ := gameTestEnv(t)

	kickoff := time.Now().Add(72 * time.Hour)
	game, err := svc.CreateGame(context.Background(), kickoff, "BR", "AR")
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}
	if game.ID == "" {
		t.Error("CreateGame() returned a game without ID")
	}
}

func TestCreateGame_Validation(t *testing.T) {
	svc, _, _ := gameTestEnv(t)
	kickoff := time.Now().Add(72 * time.Hour)

	tests := []struct {
		name   string
		date   time.Time
		first  string
		second string
	}{
		{name: "zero date", date: time.Time{}, first: "BR", second: "AR"},
		{name: "short code", date: kickoff, first: "B", second: "AR"},
		{name: "long code", date: kickoff, first: "BR", second: "ARG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGame(context.Background(), tt.date, tt.first, tt.second)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("CreateGame() error = %v, want ErrValidation", err)
			}
		})
	}
}

// =========================================================================
// LIST FOR POOL TESTS
// =========================================================================

func TestListForPool(t *testing.T) {
	svc, _, pool := gameTestEnv(t)
	ctx := context.Background()

	if _, err := svc.CreateGame(ctx, time.Now().Add(24*time.Hour), "BR", "AR"); err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	games, err := svc.ListForPool(ctx, pool.ID, "user-1")
	if err != nil {
		t.Fatalf("ListForPool() error = %v", err)
	}
	if len(games) != 1 {
		t.Errorf("ListForPool() = %d games, want 1", len(games))
	}
}

func TestListForPool_NonParticipant(t *testing.T) {
	svc, _, pool := gameTestEnv(t)

	_, err := svc.ListForPool(context.Background(), pool.ID, "outsider")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ListForPool() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// SUBMIT GUESS TESTS
// =========================================================================

func TestSubmitGuess(t *testing.T) {
	svc, _, pool := gameTestEnv(t)
	ctx := context.Background()

	game, err := svc.CreateGame(ctx, time.Now().Add(24*time.Hour), "BR", "AR")
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	guess, err := svc.SubmitGuess(ctx, pool.ID, game.ID, "user-1", 2, 1)
	if err != nil {
		t.Fatalf("SubmitGuess() error = %v", err)
	}
	if guess.FirstTeamPoints != 2 || guess.SecondTeamPoints != 1 {
		t.Errorf("guess = %d x %d, want 2 x 1", guess.FirstTeamPoints, guess.SecondTeamPoints)
	}
}

func TestSubmitGuess_NonParticipant(t *testing.T) {
	svc, _, pool := gameTestEnv(t)
	ctx := context.Background()

	game, err := svc.CreateGame(ctx, time.Now().Add(24*time.Hour), "BR", "AR")
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	_, err = svc.SubmitGuess(ctx, pool.ID, game.ID, "outsider", 1, 1)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SubmitGuess() error = %v, want ErrValidation", err)
	}
}

func TestSubmitGuess_UnknownGame(t *testing.T) {
	svc, _, pool := gameTestEnv(t)

	_, err := svc.SubmitGuess(context.Background(), pool.ID, "ghost-game", "user-1", 1, 1)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("SubmitGuess() error = %v, want ErrNotFound", err)
	}
}

func TestSubmitGuess_AfterKickoff(t *testing.T) {
	svc, _, pool := gameTestEnv(t)
	ctx := context.Background()

	game, err := svc.CreateGame(ctx, time.Now().Add(-time.Hour), "BR", "AR")
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	_, err = svc.SubmitGuess(ctx, pool.ID, game.ID, "user-1", 1, 1)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SubmitGuess() after kickoff error = %v, want ErrValidation", err)
	}
}

func TestSubmitGuess_Duplicate(t *testing.T) {
	svc, _, pool := gameTestEnv(t)
	ctx := context.Background()

	game, err := svc.CreateGame(ctx, time.Now().Add(24*time.Hour), "BR", "AR")
	if err != nil {
		t.Fatalf("CreateGame() error = %v", err)
	}

	if _, err := svc.SubmitGuess(ctx, pool.ID, game.ID, "user-1", 2, 1); err != nil {
		t.Fatalf("first SubmitGuess() error = %v", err)
	}
	_, err = svc.SubmitGuess(ctx, pool.ID, game.ID, "user-1", 0, 0)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second SubmitGuess() error = %v, want ErrConflict", err)
	}
}

func TestSubmitGuess_NegativePoints(t *testing.T) {
	svc, _, pool := gameTestEnv(t)

	_, err := svc.SubmitGuess(context.Background(), pool.ID, "any", "user-1", -1, 0)
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SubmitGuess() with negative points error = %v, want ErrValidation", err)
	}
}
