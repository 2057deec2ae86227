package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/pictag/internal/shared"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin exchanges credentials for a token pair and materializes the
// session as cookies. The tokens themselves never appear in the response body.
func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	token, user, err := g.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			fail(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		g.logger.Error("login failed upstream", "error", err)
		fail(w, http.StatusInternalServerError, "authentication service unavailable")
		return
	}

	g.setSession(w, token)

	var userData any
	if len(user) > 0 {
		json.Unmarshal(user, &userData)
	}
	ok(w, "logged in", userData)
}

// handleRefresh rotates the access cookie from the refresh cookie. Any
// refresh failure tears down the whole session: stale half-sessions are
// worse than a clean re-login.
func (g *Gateway) handleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, present := refreshTokenFrom(r)
	if !present {
		g.clearSession(w)
		fail(w, http.StatusUnauthorized, "no active session")
		return
	}

	token, err := g.backend.Refresh(r.Context(), refreshToken)
	if err != nil {
		g.logger.Warn("token refresh rejected", "error", err)
		g.clearSession(w)
		fail(w, http.StatusUnauthorized, "session expired")
		return
	}

	g.setAccessCookie(w, token.AccessToken)
	ok(w, "session refreshed", nil)
}

// handleLogout clears both cookies. It never calls the backend and always
// succeeds, even with no session present.
func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	g.clearSession(w)
	ok(w, "logged out", nil)
}
