package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/model"
	"github.com/charlesaguiar/nlw-copa-server/internal/repository"
)

// GameDB implements repository.GameRepository.
type GameDB struct {
	conn *sql.DB
}

var _ repository.GameRepository = (*GameDB)(nil)

// Create inserts a fixture. Games carry no uniqueness rule beyond
// their primary key; the same two teams can meet twice.
func (db *GameDB) Create(ctx context.Context, game *model.Game) error {
	game.ID = xid.New().String()
	game.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO games (id, date, first_team_country_code, second_team_country_code, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		game.ID,
		game.Date,
		game.FirstTeamCountryCode,
		game.SecondTeamCountryCode,
		game.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting game: %w", err)
	}
	return nil
}

// GetByID retrieves a single game.
func (db *GameDB) GetByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, date, first_team_country_code, second_team_country_code, created_at
		 FROM games WHERE id = ?`, id,
	).Scan(&g.ID, &g.Date, &g.FirstTeamCountryCode, &g.SecondTeamCountryCode, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %s: %w", id, err)
	}
	return &g, nil
}

// ListWithGuesses returns all games, newest first, with the given
// participant's guess attached where one exists. A LEFT JOIN keeps games
// the participant hasn't guessed on.
func (db *GameDB) ListWithGuesses(ctx context.Context, participantID string) ([]model.GameWithGuess, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.id, g.date, g.first_team_country_code, g.second_team_country_code, g.created_at,
		        gu.id, gu.first_team_points, gu.second_team_points, gu.created_at
		 FROM games g
		 LEFT JOIN guesses gu ON gu.game_id = g.id AND gu.participant_id = ?
		 ORDER BY g.date DESC`,
		participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games: %w", err)
	}
	defer rows.Close()

	games := []model.GameWithGuess{}
	for rows.Next() {
		var g model.GameWithGuess
		var guessID sql.NullString
		var first, second sql.NullInt64
		var guessedAt sql.NullTime

		err := rows.Scan(
			&g.ID,
			&g.Date,
			&g.FirstTeamCountryCode,
			&g.SecondTeamCountryCode,
			&g.CreatedAt,
			&guessID,
			&first,
			&second,
			&guessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}

		if guessID.Valid {
			g.Guess = &model.Guess{
				ID:               guessID.String,
				ParticipantID:    participantID,
				GameID:           g.ID,
				FirstTeamPoints:  int(first.Int64),
				SecondTeamPoints: int(second.Int64),
				CreatedAt:        guessedAt.Time,
			}
		}

		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating games: %w", err)
	}

	return games, nil
}

// CreateGuess stores a score prediction. UNIQUE(participant_id, game_id)
// makes the second guess for the same game a conflict, including under
// concurrent submissions.
func (db *GameDB) CreateGuess(ctx context.Context, guess *model.Guess) error {
	guess.ID = xid.New().String()
	guess.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO guesses (id, participant_id, game_id, first_team_points, second_team_points, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		guess.ID,
		guess.ParticipantID,
		guess.GameID,
		guess.FirstTeamPoints,
		guess.SecondTeamPoints,
		guess.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("gameId", "You already sent a guess to this game on this pool.")
		}
		return fmt.Errorf("sqlite: inserting guess (participant=%s game=%s): %w", guess.ParticipantID, guess.GameID, err)
	}
	return nil
}
