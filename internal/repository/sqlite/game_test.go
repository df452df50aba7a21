package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/model"
)

// gameFixture wires up a user, a pool they own, and their participant
// row, which is what every guess test needs before it can start.
func gameFixture(t *testing.T, db *DB) (*model.User, *model.Pool, *model.Participant) {
	t.Helper()
	ctx := context.Background()

	user := createTestUser(t, db.Users(), "guesser", "guesser@example.com")
	pool := createTestPool(t, db.Pools(), "Copa", "GAME01", user.ID)

	participant, err := db.Pools().GetParticipant(ctx, pool.ID, user.ID)
	if err != nil {
		t.Fatalf("GetParticipant() error = %v", err)
	}
	return user, pool, participant
}

func createTestGame(t *testing.T, g *GameDB, date time.Time, first, second string) *model.Game {
	t.Helper()
	game := &model.Game{
		Date:                  date,
		FirstTeamCountryCode:  first,
		SecondTeamCountryCode: second,
	}
	if err := g.Create(context.Background(), game); err != nil {
		t.Fatalf("failed to create test game: %v", err)
	}
	return game
}

// =========================================================================
// GAME TESTS
// =========================================================================

func TestGameCreateAndGetByID(t *testing.T) {
	g := newTestDB(t).Games()
	kickoff := time.Now().Add(48 * time.Hour).Truncate(time.Second)

	game := createTestGame(t, g, kickoff, "BR", "AR")
	if game.ID == "" {
		t.Error("Create() did not set game.ID")
	}

	found, err := g.GetByID(context.Background(), game.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.FirstTeamCountryCode != "BR" || found.SecondTeamCountryCode != "AR" {
		t.Errorf("teams = %s x %s, want BR x AR", found.FirstTeamCountryCode, found.SecondTeamCountryCode)
	}
	if !found.Date.Equal(kickoff) {
		t.Errorf("Date = %v, want %v", found.Date, kickoff)
	}
}

func TestGameGetByID_NotFound(t *testing.T) {
	g := newTestDB(t).Games()

	_, err := g.GetByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestGameSameTeamsTwice(t *testing.T) {
	// Group stage and a final can feature the same two teams.
	g := newTestDB(t).Games()
	createTestGame(t, g, time.Now().Add(24*time.Hour), "FR", "DE")
	createTestGame(t, g, time.Now().Add(240*time.Hour), "FR", "DE")
}

// =========================================================================
// LIST WITH GUESSES TESTS
// =========================================================================

func TestListWithGuesses(t *testing.T) {
	db := newTestDB(t)
	g := db.Games()
	ctx := context.Background()

	_, _, participant := gameFixture(t, db)

	guessed := createTestGame(t, g, time.Now().Add(24*time.Hour), "BR", "AR")
	unguessed := createTestGame(t, g, time.Now().Add(48*time.Hour), "FR", "DE")

	err := g.CreateGuess(ctx, &model.Guess{
		ParticipantID:    participant.ID,
		GameID:           guessed.ID,
		FirstTeamPoints:  2,
		SecondTeamPoints: 1,
	})
	if err != nil {
		t.Fatalf("CreateGuess() error = %v", err)
	}

	games, err := g.ListWithGuesses(ctx, participant.ID)
	if err != nil {
		t.Fatalf("ListWithGuesses() error = %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("ListWithGuesses() = %d games, want 2", len(games))
	}

	// Newest kickoff first.
	if games[0].ID != unguessed.ID {
		t.Errorf("first game = %s, want the later fixture %s", games[0].ID, unguessed.ID)
	}
	if games[0].Guess != nil {
		t.Errorf("unguessed game carries a guess: %+v", games[0].Guess)
	}

	if games[1].Guess == nil {
		t.Fatal("guessed game carries no guess")
	}
	if games[1].Guess.FirstTeamPoints != 2 || games[1].Guess.SecondTeamPoints != 1 {
		t.Errorf("guess = %d x %d, want 2 x 1", games[1].Guess.FirstTeamPoints, games[1].Guess.SecondTeamPoints)
	}
}

func TestListWithGuesses_OtherParticipantsGuessesInvisible(t *testing.T) {
	db := newTestDB(t)
	g, p, u := db.Games(), db.Pools(), db.Users()
	ctx := context.Background()

	_, pool, participant := gameFixture(t, db)

	other := createTestUser(t, u, "other", "other@example.com")
	if err := p.Join(ctx, pool.ID, other.ID); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	otherParticipant, err := p.GetParticipant(ctx, pool.ID, other.ID)
	if err != nil {
		t.Fatalf("GetParticipant() error = %v", err)
	}

	game := createTestGame(t, g, time.Now().Add(24*time.Hour), "BR", "AR")
	err = g.CreateGuess(ctx, &model.Guess{
		ParticipantID:    otherParticipant.ID,
		GameID:           game.ID,
		FirstTeamPoints:  3,
		SecondTeamPoints: 0,
	})
	if err != nil {
		t.Fatalf("CreateGuess() error = %v", err)
	}

	games, err := g.ListWithGuesses(ctx, participant.ID)
	if err != nil {
		t.Fatalf("ListWithGuesses() error = %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("ListWithGuesses() = %d games, want 1", len(games))
	}
	if games[0].Guess != nil {
		t.Errorf("someone else's guess leaked into the listing: %+v", games[0].Guess)
	}
}

// =========================================================================
// GUESS TESTS
// =========================================================================

func TestCreateGuess_Duplicate(t *testing.T) {
	db := newTestDB(t)
	g := db.Games()
	ctx := context.Background()

	_, _, participant := gameFixture(t, db)
	game := createTestGame(t, g, time.Now().Add(24*time.Hour), "BR", "AR")

	first := &model.Guess{ParticipantID: participant.ID, GameID: game.ID, FirstTeamPoints: 1, SecondTeamPoints: 0}
	if err := g.CreateGuess(ctx, first); err != nil {
		t.Fatalf("first CreateGuess() error = %v", err)
	}

	second := &model.Guess{ParticipantID: participant.ID, GameID: game.ID, FirstTeamPoints: 2, SecondTeamPoints: 2}
	if err := g.CreateGuess(ctx, second); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second CreateGuess() error = %v, want ErrConflict", err)
	}
}
