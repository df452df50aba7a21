package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/charlesaguiar/nlw-copa-server/internal/auth"
	"github.com/charlesaguiar/nlw-copa-server/internal/service"
)

// GameHandler exposes fixture creation and guess storage:
//
//	POST /games                                  → register a fixture
//	GET  /pools/{id}/games                       → games + caller's guesses
//	POST /pools/{poolId}/games/{gameId}/guesses  → submit a guess
type GameHandler struct {
	games  *service.GameService
	logger *slog.Logger
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(games *service.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		games:  games,
		logger: logger,
	}
}

type createGameRequest struct {
	Date                  time.Time `json:"date"`
	FirstTeamCountryCode  string    `json:"firstTeamCountryCode"`
	SecondTeamCountryCode string    `json:"secondTeamCountryCode"`
}

func (r createGameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Date, validation.Required),
		validation.Field(&r.FirstTeamCountryCode, validation.Required, validation.Length(2, 2)),
		validation.Field(&r.SecondTeamCountryCode, validation.Required, validation.Length(2, 2)),
	)
}

// HandleCreate registers a fixture.
//
// HTTP: POST /games (RequireAuth) → 201 {id}
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	game, err := h.games.CreateGame(r.Context(), req.Date, req.FirstTeamCountryCode, req.SecondTeamCountryCode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": game.ID})
}

// HandleListForPool returns all games annotated with the caller's
// guesses in the given pool.
//
// HTTP: GET /pools/{id}/games (RequireAuth) → 200 {games: [...]}
func (h *GameHandler) HandleListForPool(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "id")
	userID, _ := auth.UserIDFromContext(r.Context())

	games, err := h.games.ListForPool(r.Context(), poolID, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

type submitGuessRequest struct {
	FirstTeamPoints  int `json:"firstTeamPoints"`
	SecondTeamPoints int `json:"secondTeamPoints"`
}

func (r submitGuessRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstTeamPoints, validation.Min(0)),
		validation.Field(&r.SecondTeamPoints, validation.Min(0)),
	)
}

// HandleSubmitGuess stores a score prediction.
//
// HTTP: POST /pools/{poolId}/games/{gameId}/guesses (RequireAuth) → 201
func (h *GameHandler) HandleSubmitGuess(w http.ResponseWriter, r *http.Request) {
	var req submitGuessRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	poolID := chi.URLParam(r, "poolId")
	gameID := chi.URLParam(r, "gameId")
	userID, _ := auth.UserIDFromContext(r.Context())

	_, err := h.games.SubmitGuess(r.Context(), poolID, gameID, userID, req.FirstTeamPoints, req.SecondTeamPoints)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}
