package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nutrihub/server/internal/config"
	"github.com/nutrihub/server/internal/userctx"
)

func devConfig() *config.Config {
	return &config.Config{
		AuthMode:      "dev",
		AuthEnabled:   true,
		AuthRequired:  true,
		JWTSecret:     "test_secret",
		JWTIssuer:     "nutrihub",
		JWTTTLMinutes: 60,
	}
}

func TestHandleDevToken(t *testing.T) {
	service := NewService(devConfig())
	handlers := NewHandlers(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev-token", strings.NewReader(`{"user_id":"alice"}`))
	rec := httptest.NewRecorder()
	handlers.HandleDevToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	var resp DevAuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.UserID != "alice" || resp.AccessToken == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	userID, err := service.VerifyJWT(resp.AccessToken)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if userID != "alice" {
		t.Fatalf("sub = %q, want alice", userID)
	}
}

func TestHandleDevTokenDefaultUser(t *testing.T) {
	handlers := NewHandlers(NewService(devConfig()))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev-token", nil)
	rec := httptest.NewRecorder()
	handlers.HandleDevToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp DevAuthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UserID != "dev-user" {
		t.Fatalf("user_id = %q, want dev-user", resp.UserID)
	}
}

func TestHandleDevTokenDisabled(t *testing.T) {
	cfg := devConfig()
	cfg.AuthMode = "none"
	handlers := NewHandlers(NewService(cfg))

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/dev-token", nil)
	rec := httptest.NewRecorder()
	handlers.HandleDevToken(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestVerifyJWTRejectsBadToken(t *testing.T) {
	service := NewService(devConfig())

	if _, err := service.VerifyJWT("not-a-token"); err != ErrInvalidToken {
		t.Fatalf("error = %v, want ErrInvalidToken", err)
	}

	other := NewService(&config.Config{
		AuthMode:      "dev",
		JWTSecret:     "other_secret",
		JWTIssuer:     "nutrihub",
		JWTTTLMinutes: 60,
	})
	token, err := other.GenerateJWT("alice")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := service.VerifyJWT(token); err != ErrInvalidToken {
		t.Fatalf("cross-secret verify error = %v, want ErrInvalidToken", err)
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	cfg := devConfig()
	service := NewService(cfg)
	middleware := NewMiddleware(cfg, service)

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = userctx.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	protected := middleware.RequireAuth(next)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/days", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := service.GenerateJWT("alice")
		if err != nil {
			t.Fatalf("GenerateJWT: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/v1/days", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if gotUserID != "alice" {
			t.Fatalf("user id = %q, want alice", gotUserID)
		}
	})

	t.Run("public path bypasses auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("auth not required passes through", func(t *testing.T) {
		relaxed := devConfig()
		relaxed.AuthRequired = false
		open := NewMiddleware(relaxed, NewService(relaxed)).RequireAuth(next)

		req := httptest.NewRequest(http.MethodGet, "/v1/days", nil)
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}
