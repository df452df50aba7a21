package model

import "time"

// Game is a scheduled match between two national teams, identified by
// their ISO country codes. Games are immutable once created.
type Game struct {
	ID                    string    `json:"id"                    db:"id"`
	Date                  time.Time `json:"date"                  db:"date"`
	FirstTeamCountryCode  string    `json:"firstTeamCountryCode"  db:"first_team_country_code"`
	SecondTeamCountryCode string    `json:"secondTeamCountryCode" db:"second_team_country_code"`
	CreatedAt             time.Time `json:"createdAt"             db:"created_at"`
}

// Guess is a participant's score prediction for one game. The pair
// (ParticipantID, GameID) is unique: one guess per game per participant,
// enforced by the database. No scoring or ranking happens here; guesses
// are only stored.
type Guess struct {
	ID               string    `json:"id"               db:"id"`
	ParticipantID    string    `json:"participantId"    db:"participant_id"`
	GameID           string    `json:"gameId"           db:"game_id"`
	FirstTeamPoints  int       `json:"firstTeamPoints"  db:"first_team_points"`
	SecondTeamPoints int       `json:"secondTeamPoints" db:"second_team_points"`
	CreatedAt        time.Time `json:"createdAt"        db:"created_at"`
}

// GameWithGuess is a game annotated with the requesting participant's
// guess, nil when they have not guessed yet.
type GameWithGuess struct {
	Game
	Guess *Guess `json:"guess"`
}
