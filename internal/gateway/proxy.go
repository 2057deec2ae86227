package gateway

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// routeKind selects how a route's request body and upstream response are
// handled.
type routeKind int

const (
	// kindJSON forwards the request body as JSON and normalizes the upstream
	// response into the uniform envelope.
	kindJSON routeKind = iota
	// kindMultipart forwards the request body unmodified with its original
	// Content-Type so the multipart boundary survives; the response is
	// normalized like kindJSON.
	kindMultipart
	// kindBinary streams the upstream response bytes through untouched,
	// preserving Content-Type and Content-Disposition.
	kindBinary
)

// route maps exactly one inbound method+pattern to one backend path. There is
// no fan-out; the gateway adds auth and reshapes responses, nothing more.
type route struct {
	method        string
	pattern       string
	backendPath   string
	authRequired  bool
	kind          routeKind
	requiredQuery []string
	cacheControl  string
}

// wildcards extracts the {name} and {name...} placeholders from a pattern.
func wildcards(pattern string) []string {
	var names []string
	for _, segment := range strings.Split(pattern, "/") {
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			names = append(names, strings.TrimSuffix(strings.Trim(segment, "{}"), "..."))
		}
	}
	return names
}

// expandPath substitutes the request's path values into the backend path
// template. Single-segment values are path-escaped; trailing wildcard values
// keep their slashes.
func expandPath(template string, r *http.Request) string {
	path := template
	for _, name := range wildcards(template) {
		value := r.PathValue(name)
		if strings.Contains(template, "{"+name+"...}") {
			path = strings.Replace(path, "{"+name+"...}", value, 1)
			continue
		}
		path = strings.Replace(path, "{"+name+"}", url.PathEscape(value), 1)
	}
	return path
}

// authorize resolves the bearer token for a route. Auth-required routes fail
// fast with a 401 envelope when the access cookie is missing or carries an
// expired token; no backend call is made. Optional-auth routes forward
// whatever token is present.
func (g *Gateway) authorize(w http.ResponseWriter, r *http.Request, rt route) (string, bool) {
	token, present := accessTokenFrom(r)

	if rt.authRequired {
		if !present || TokenExpired(token, time.Now()) {
			fail(w, http.StatusUnauthorized, "authentication required")
			return "", false
		}
	}

	return token, true
}

// proxyHandler builds the handler for one route table entry.
func (g *Gateway) proxyHandler(rt route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, authorized := g.authorize(w, r, rt)
		if !authorized {
			return
		}

		for _, param := range rt.requiredQuery {
			if r.URL.Query().Get(param) == "" {
				fail(w, http.StatusBadRequest, param+" is required")
				return
			}
		}

		var body io.Reader
		contentType := ""
		if r.Method != http.MethodGet && r.Method != http.MethodDelete && r.Body != nil {
			body = r.Body
			switch rt.kind {
			case kindMultipart:
				contentType = r.Header.Get("Content-Type")
			default:
				contentType = "application/json"
			}
		}

		resp, err := g.backend.Do(r.Context(), rt.method, expandPath(rt.backendPath, r), token, contentType, r.URL.Query(), body)
		if err != nil {
			g.logger.Error("upstream request failed", "path", rt.backendPath, "error", err)
			fail(w, http.StatusInternalServerError, "upstream service unavailable")
			return
		}
		defer resp.Body.Close()

		if rt.kind == kindBinary {
			g.streamBinary(w, resp, rt)
			return
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			g.logger.Error("failed to read upstream response", "path", rt.backendPath, "error", err)
			fail(w, http.StatusInternalServerError, "upstream service unavailable")
			return
		}

		writeEnvelope(w, NormalizeUpstream(resp.StatusCode, raw))
	}
}

// streamBinary copies upstream bytes through without envelope wrapping,
// preserving the headers browsers depend on for rendering and downloads.
func (g *Gateway) streamBinary(w http.ResponseWriter, resp *http.Response, rt route) {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		w.Header().Set("Content-Disposition", cd)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	if rt.cacheControl != "" {
		w.Header().Set("Cache-Control", rt.cacheControl)
	}

	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.Warn("binary stream interrupted", "error", err)
	}
}
