package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/charlesaguiar/nlw-copa-server/internal/apperror"
	"github.com/charlesaguiar/nlw-copa-server/internal/auth"
	"github.com/charlesaguiar/nlw-copa-server/internal/service"
)

// AuthHandler exposes the two identity paths and the session lookup:
//
//	POST /user             → local signup (email/password)
//	POST /login            → local login, returns a session token
//	POST /google-auth/user → Google access-token exchange, returns a token
//	GET  /me               → the logged-in user's profile
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r signupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 72)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// HandleSignup creates a local account.
//
// HTTP: POST /user → 201 {id}, 400 on validation failure or an email
// that already has an account.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("signup failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": user.ID})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// HandleLogin authenticates email/password and returns a session token.
//
// HTTP: POST /login → 200 {token}, 404 unknown email, 401 wrong
// password. The 404/401 split mirrors the original server's contract.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type googleAuthRequest struct {
	AccessToken string `json:"access_token"`
}

func (r googleAuthRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccessToken, validation.Required),
	)
}

// HandleGoogleAuth exchanges a Google access token for a session token,
// creating the account on first login.
//
// HTTP: POST /google-auth/user → 200 {token}, 400 when Google rejects
// the token or returns a payload that fails the schema.
func (h *AuthHandler) HandleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	var req googleAuthRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, err := h.auth.LoginWithGoogle(r.Context(), req.AccessToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /me (RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but be safe.
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auth.Me(r.Context(), userID)
	if err != nil {
		h.logger.Error("me lookup failed", slog.String("userID", userID), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// decodeAndValidate decodes the JSON body into req and runs its ozzo
// validation. On failure it writes the 400 itself and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{ Validate() error }) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be valid JSON"))
		return false
	}
	if err := req.Validate(); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return false
	}
	return true
}
