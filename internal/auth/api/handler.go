// Package api wires the Aegis HTTP auth endpoints to the session service.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"aegis/internal/auth/session"
	"aegis/internal/identity"
	"aegis/internal/metrics"
)

// Handler exposes the credential lifecycle over HTTP.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service) (*Handler, error) {
	if sessions == nil {
		return nil, errors.New("api: nil session service")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, cfg: cfg, sessions: sessions}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", Chain(h.handleLogout, h.RequireAuth))
	mux.HandleFunc("/refresh-token", h.handleRefresh)
	mux.HandleFunc("/current-user", Chain(h.handleCurrentUser, h.RequireAuth))
	mux.HandleFunc("/admin/users", Chain(h.handleListUsers, h.RequireAuth, h.RequireRoles(identity.RoleAdmin)))
}

// ---- request/response shapes ----

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type loginResponse struct {
	User         userResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func toUserResponse(u identity.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func principalResponse(p Principal) userResponse {
	return userResponse{ID: p.ID, Email: p.Email, Role: string(p.Role)}
}

// ---- handlers ----

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.sessions.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case identity.IsConflict(err):
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			writeError(w, http.StatusConflict, "user with this email already exists")
		case identity.IsInvalidInput(err):
			metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, "valid email and password are required")
		default:
			metrics.RegistrationsTotal.WithLabelValues("error").Inc()
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	metrics.RegistrationsTotal.WithLabelValues("ok").Inc()
	writeData(w, http.StatusCreated, toUserResponse(u), "user registered successfully")
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, pair, err := h.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidEmail):
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusBadRequest, "valid email is required")
		case errors.Is(err, session.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			h.log.Error("auth.login.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	h.setAuthCookies(w, pair)
	writeData(w, http.StatusOK, loginResponse{
		User:         toUserResponse(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "user logged in successfully")
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no token provided")
		return
	}

	if err := h.sessions.Logout(r.Context(), p.ID); err != nil {
		h.log.Error("auth.logout.fail", "err", err, "user_id", p.ID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.clearAuthCookies(w)
	writeData(w, http.StatusOK, struct{}{}, "user logged out")
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	presented := refreshTokenFromRequest(r, req.RefreshToken)

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		// Whatever the cause: expired, mismatched, replayed, or absent, the
		// client learns only that it must log in again. Both cookies go.
		h.clearAuthCookies(w)
		if errors.Is(err, session.ErrNotActive) {
			metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusForbidden, "invalid refresh token")
			return
		}
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		h.log.Error("auth.refresh.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	metrics.RefreshesTotal.WithLabelValues("ok").Inc()
	h.setAuthCookies(w, pair)
	writeData(w, http.StatusOK, refreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "access token refreshed")
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	p, ok := PrincipalFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no token provided")
		return
	}

	writeData(w, http.StatusOK, principalResponse(p), "user fetched successfully")
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	users, err := h.sessions.Users(r.Context())
	if err != nil {
		h.log.Error("auth.admin.users.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeData(w, http.StatusOK, out, "users fetched successfully")
}
