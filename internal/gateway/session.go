package gateway

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Session cookie names. Both cookies are HTTP-only, SameSite=Lax, scoped to /.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// sessionCookie builds a cookie with the gateway's security attributes.
// maxAge <= 0 produces a deletion cookie.
func sessionCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge <= 0 {
		cookie.Value = ""
		cookie.MaxAge = -1
	}
	return cookie
}

// setSession writes both session cookies from a token pair.
func (g *Gateway) setSession(w http.ResponseWriter, token *oauth2.Token) {
	g.setAccessCookie(w, token.AccessToken)
	if token.RefreshToken != "" {
		secure := g.config.Auth.SecureCookies
		ttl := int(g.config.Auth.RefreshTokenTTL().Seconds())
		http.SetCookie(w, sessionCookie(RefreshTokenCookie, token.RefreshToken, ttl, secure))
	}
}

// setAccessCookie rotates only the access-token cookie, leaving the refresh
// cookie untouched.
func (g *Gateway) setAccessCookie(w http.ResponseWriter, accessToken string) {
	secure := g.config.Auth.SecureCookies
	ttl := int(g.config.Auth.AccessTokenTTL().Seconds())
	http.SetCookie(w, sessionCookie(AccessTokenCookie, accessToken, ttl, secure))
}

// clearSession deletes both session cookies. A session is all-or-nothing:
// any teardown path removes the pair.
func (g *Gateway) clearSession(w http.ResponseWriter) {
	secure := g.config.Auth.SecureCookies
	http.SetCookie(w, sessionCookie(AccessTokenCookie, "", 0, secure))
	http.SetCookie(w, sessionCookie(RefreshTokenCookie, "", 0, secure))
}

// accessTokenFrom reads the access token from request cookies.
func accessTokenFrom(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// refreshTokenFrom reads the refresh token from request cookies.
func refreshTokenFrom(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// TokenExpired reports whether a JWT access token carries an exp claim in the
// past. The signature is not verified here; the backend remains the authority
// on token validity. Tokens that do not parse as JWTs, or carry no exp claim,
// are not treated as expired and are forwarded for the backend to judge.
func TokenExpired(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(now)
}
