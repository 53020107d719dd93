package api

import (
	"context"
	"errors"
	"net/http"

	"aegis/internal/auth/token"
	"aegis/internal/identity"
	"aegis/internal/metrics"
)

// Principal is the minimal identity view attached to authenticated requests.
// It never carries the password hash or refresh token.
type Principal struct {
	ID    string
	Email string
	Role  identity.Role
}

type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the authenticated principal, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Guard is one step of the request-interception chain. Each guard either
// calls through to the next handler or terminates with a rejection.
type Guard func(http.HandlerFunc) http.HandlerFunc

// Chain composes guards left to right: the first guard runs first.
func Chain(next http.HandlerFunc, guards ...Guard) http.HandlerFunc {
	for i := len(guards) - 1; i >= 0; i-- {
		next = guards[i](next)
	}
	return next
}

// RequireAuth authenticates the request before business logic runs.
//
// It extracts the candidate access token (cookie first, then bearer header),
// verifies it, loads the identity it names, and attaches a Principal to the
// request context. Expired tokens are rejected with a distinguishable
// message so clients know to attempt a refresh rather than a re-login.
// This path never writes to the store.
func (h *Handler) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := accessTokenFromRequest(r)
		if !ok {
			metrics.GuardRejectionsTotal.WithLabelValues("no_token").Inc()
			writeError(w, http.StatusUnauthorized, "no token provided")
			return
		}

		u, err := h.sessions.Authenticate(r.Context(), tok)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrTokenExpired):
				metrics.GuardRejectionsTotal.WithLabelValues("expired").Inc()
				writeError(w, http.StatusUnauthorized, "access token expired")
			case errors.Is(err, token.ErrInvalidToken):
				metrics.GuardRejectionsTotal.WithLabelValues("invalid").Inc()
				writeError(w, http.StatusUnauthorized, "invalid access token")
			default:
				h.log.Error("auth.guard.fail", "err", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}

		p := Principal{ID: u.ID, Email: u.Email, Role: u.Role}
		next(w, r.WithContext(WithPrincipal(r.Context(), p)))
	}
}

// RequireRoles authorizes the already-authenticated principal against an
// allowed-role set. It must run after RequireAuth in the chain.
func (h *Handler) RequireRoles(roles ...identity.Role) Guard {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if err := Authorize(p, ok, roles); err != nil {
				if errors.Is(err, ErrNoPrincipal) {
					metrics.GuardRejectionsTotal.WithLabelValues("unauthenticated").Inc()
					writeError(w, http.StatusUnauthorized, "no token provided")
					return
				}
				metrics.GuardRejectionsTotal.WithLabelValues("forbidden").Inc()
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next(w, r)
		}
	}
}
