package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/charlesaguiar/nlw-copa-server/internal/service"
)

// UserHandler exposes the administrative user endpoints the original
// server shipped: a public listing, the landing-page counter, and
// explicit deletion.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// HandleList returns all users.
//
// HTTP: GET /users → 200 {data: [...]}
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("user listing failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": users})
}

// HandleCount returns the public user counter.
//
// HTTP: GET /users/count → 200 {count}
func (h *UserHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.users.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

// HandleDelete removes a user by id.
//
// HTTP: DELETE /users/{id} (RequireAuth) → 200 {message}, 404 if absent
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("User %s deleted successfully.", id),
	})
}
