package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campaign-server/internal/auth"
	"campaign-server/internal/shared/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestHandler(enabled bool) *SessionHandler {
	return NewSessionHandler(&config.Config{
		Server:   config.ServerConfig{Environment: "development"},
		Frontend: config.FrontendConfig{URL: "https://maps.example.com"},
		Auth:     config.AuthConfig{Enabled: enabled, JWTSecret: testSecret, TokenExpiration: time.Hour},
	})
}

func TestLoginSetsCookie(t *testing.T) {
	h := newTestHandler(true)
	token, err := auth.GenerateToken(testSecret, "dm", auth.RoleGameMaster, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/session", strings.NewReader(`{"token":"`+token+`"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.CookieName || cookies[0].Value != token || cookies[0].Domain != "maps.example.com" {
		t.Fatalf("cookies = %+v", cookies)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	get.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, get)

	var session SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !session.AuthEnabled || session.Owner != "dm" || !session.CanWrite || session.ExpiresAt == nil {
		t.Fatalf("session = %+v", session)
	}
}

func TestLoginRejectsBadToken(t *testing.T) {
	h := newTestHandler(true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/session", strings.NewReader(`{"token":"forged"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("cookie set for a bad token")
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(true)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/auth/session", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookies = %+v", cookies)
	}
}

func TestSessionWithAuthDisabled(t *testing.T) {
	h := newTestHandler(false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/session", nil))

	var session SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.AuthEnabled || !session.CanWrite {
		t.Fatalf("session = %+v", session)
	}
}
