package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// captureHandler records the user id seen by the downstream handler.
type captureHandler struct {
	called bool
	userID string
	hasID  bool
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.userID, h.hasID = UserIDFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)

	valid, err := ts.Generate(Identity{UserID: "user-123"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	expired, err := ts.GenerateWithDuration(Identity{UserID: "user-123"}, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCalled bool
		wantUserID string
	}{
		{
			name:       "valid bearer token",
			header:     "Bearer " + valid,
			wantStatus: http.StatusOK,
			wantCalled: true,
			wantUserID: "user-123",
		},
		{
			name:       "missing header",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic " + valid,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "garbage token",
			header:     "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token",
			header:     "Bearer " + expired,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &captureHandler{}
			handler := RequireAuth(ts)(next)

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if next.called != tt.wantCalled {
				t.Errorf("downstream called = %v, want %v", next.called, tt.wantCalled)
			}
			if tt.wantCalled && next.userID != tt.wantUserID {
				t.Errorf("userID in context = %q, want %q", next.userID, tt.wantUserID)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)

	valid, err := ts.Generate(Identity{UserID: "user-123"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantHasID  bool
		wantUserID string
	}{
		{
			name:       "valid token resolves identity",
			header:     "Bearer " + valid,
			wantHasID:  true,
			wantUserID: "user-123",
		},
		{
			name:      "no token proceeds anonymously",
			header:    "",
			wantHasID: false,
		},
		{
			name:      "invalid token also proceeds anonymously",
			header:    "Bearer garbage",
			wantHasID: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &captureHandler{}
			handler := OptionalAuth(ts)(next)

			req := httptest.NewRequest(http.MethodPost, "/pools", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if !next.called {
				t.Fatal("OptionalAuth blocked the request")
			}
			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if next.hasID != tt.wantHasID {
				t.Errorf("hasID = %v, want %v", next.hasID, tt.wantHasID)
			}
			if tt.wantHasID && next.userID != tt.wantUserID {
				t.Errorf("userID = %q, want %q", next.userID, tt.wantUserID)
			}
		})
	}
}
