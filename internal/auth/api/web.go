package api

import (
	"net/http"
	"strings"
	"time"

	"aegis/internal/auth/session"
)

// Cookie names are part of the HTTP contract with browser clients.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// setAuthCookies sets both token cookies. Always HttpOnly: scripts never
// read these; the body carries the tokens for non-browser clients.
func (h *Handler) setAuthCookies(w http.ResponseWriter, pair session.TokenPair) {
	h.setCookie(w, accessTokenCookie, pair.AccessToken, pair.AccessExpiresAt)
	h.setCookie(w, refreshTokenCookie, pair.RefreshToken, pair.RefreshExpiresAt)
}

// clearAuthCookies expires both token cookies.
func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	h.expireCookie(w, accessTokenCookie)
	h.expireCookie(w, refreshTokenCookie)
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

// accessTokenFromRequest extracts the candidate access token.
// The cookie takes precedence over the Authorization header.
func accessTokenFromRequest(r *http.Request) (string, bool) {
	if c, err := r.Cookie(accessTokenCookie); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v, true
		}
	}
	if tok := bearerToken(r); tok != "" {
		return tok, true
	}
	return "", false
}

// refreshTokenFromRequest extracts the candidate refresh token: the cookie
// first, then the already-decoded body value.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	return strings.TrimSpace(bodyToken)
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
