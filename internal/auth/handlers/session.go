package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"campaign-server/internal/auth"
	"campaign-server/internal/shared/config"
	"campaign-server/internal/shared/errors"
	"campaign-server/internal/shared/response"
)

const maxBodyBytes = 1 << 20 // 1 MB

type SessionResponse struct {
	AuthEnabled bool       `json:"authEnabled"`
	Owner       string     `json:"owner,omitempty"`
	Role        string     `json:"role,omitempty"`
	CanWrite    bool       `json:"canWrite"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
}

type loginRequest struct {
	Token string `json:"token"`
}

// SessionHandler lets a browser trade an API token for the auth cookie.
type SessionHandler struct {
	auth    config.AuthConfig
	cookies auth.CookieSettings
}

func NewSessionHandler(cfg *config.Config) *SessionHandler {
	return &SessionHandler{
		auth: cfg.Auth,
		cookies: auth.CookieSettings{
			FrontendURL: cfg.Frontend.URL,
			Secure:      cfg.Server.Environment == "production",
			MaxAge:      cfg.Auth.TokenExpiration,
		},
	}
}

func sessionFromClaims(claims *auth.Claims) SessionResponse {
	resp := SessionResponse{
		AuthEnabled: true,
		Owner:       claims.Owner,
		Role:        claims.Role,
		CanWrite:    claims.CanWrite(),
	}
	if claims.ExpiresAt != nil {
		expires := claims.ExpiresAt.Time
		resp.ExpiresAt = &expires
	}
	return resp
}

// ServeHTTP serves /api/auth/session: GET describes the caller, POST stores a
// token in the auth cookie, DELETE clears it.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "auth_session", "remote_addr", r.RemoteAddr)

	switch r.Method {
	case http.MethodGet:
		h.current(w, r, logger)
	case http.MethodPost:
		h.login(w, r, logger)
	case http.MethodDelete:
		auth.ClearAuthCookie(w, h.cookies)
		logger.Info("Auth cookie cleared")
		response.NoContent(w)
	default:
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
	}
}

func (h *SessionHandler) current(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	if !h.auth.Enabled {
		response.Success(w, http.StatusOK, SessionResponse{AuthEnabled: false, CanWrite: true})
		return
	}

	token := auth.TokenFromRequest(r)
	if token == "" {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}
	claims, err := auth.ValidateToken(h.auth.JWTSecret, token)
	if err != nil {
		response.Error(w, r, logger, errors.Unauthorized("invalid token"))
		return
	}
	response.Success(w, http.StatusOK, sessionFromClaims(claims))
}

func (h *SessionHandler) login(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	if !h.auth.Enabled {
		response.Error(w, r, logger, errors.Validation("authentication is disabled"))
		return
	}

	var req loginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		response.Error(w, r, logger, errors.Validation("token is required"))
		return
	}

	claims, err := auth.ValidateToken(h.auth.JWTSecret, token)
	if err != nil {
		response.Error(w, r, logger, errors.Unauthorized("invalid token"))
		return
	}

	auth.SetAuthCookie(w, token, h.cookies)
	logger.Info("Auth cookie issued", "owner", claims.Owner, "role", claims.Role)
	response.Success(w, http.StatusOK, sessionFromClaims(claims))
}
