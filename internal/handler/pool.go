package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/auth"
	"github.com/charlesaguiar/nlw-copa-server/internal/service"
)

// PoolHandler exposes the pool lifecycle:
//
//	POST /pools       → create (auth optional: owner if logged in)
//	POST /pools/join  → join by invite code (auth required)
//	GET  /pools       → pools the user joined
//	GET  /pools/{id}  → pool detail
//	GET  /pools/count → public counter
type PoolHandler struct {
	pools  *service.PoolService
	logger *slog.Logger
}

// NewPoolHandler creates a PoolHandler.
func NewPoolHandler(pools *service.PoolService, logger *slog.Logger) *PoolHandler {
	return &PoolHandler{
		pools:  pools,
		logger: logger,
	}
}

type createPoolRequest struct {
	Title string `json:"title"`
}

func (r createPoolRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
	)
}

// HandleCreate creates a pool.
//
// HTTP: POST /pools (OptionalAuth) → 201 {code}
//
// The route sits behind OptionalAuth: a valid session makes the caller
// owner and first participant, anything else (no token, expired token,
// garbage token) degrades to an anonymous, unowned pool. That degrade
// is intentional and matches the original server.
func (h *PoolHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ownerID, _ := auth.UserIDFromContext(r.Context())

	pool, err := h.pools.Create(r.Context(), req.Title, ownerID)
	if err != nil {
		h.logger.Error("pool creation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"code": pool.Code})
}

type joinPoolRequest struct {
	Code string `json:"code"`
}

// Validate only rejects an empty code. Codes of the wrong length fall
// through to the lookup and get the same "Pool not found." answer as
// any other unknown code.
func (r joinPoolRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required),
	)
}

// HandleJoin admits the authenticated user into a pool by code.
//
// HTTP: POST /pools/join (RequireAuth) → 201 empty body
//
// Both failure modes are 400s with the original server's messages: an
// unknown code is a client mistake on this endpoint, not a missing
// resource, so it does not get the generic 404 mapping.
func (h *PoolHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinPoolRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	err := h.pools.Join(r.Context(), req.Code, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "not_found",
				Message: "Pool not found.",
			})
			return
		}
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleList returns the pools the authenticated user participates in.
//
// HTTP: GET /pools (RequireAuth) → 200 {pools: [...]}
func (h *PoolHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	pools, err := h.pools.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("pool listing failed", slog.String("userID", userID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pools": pools})
}

// HandleGetByID returns one pool's detail.
//
// HTTP: GET /pools/{id} (RequireAuth) → 200 {pool}
func (h *PoolHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	pool, err := h.pools.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"pool": pool})
}

// HandleCount returns the public pool counter.
//
// HTTP: GET /pools/count → 200 {count}
func (h *PoolHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.pools.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}
