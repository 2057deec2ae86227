// Package gateway implements the browser-facing session proxy for the media
// backend.
//
// # Responsibilities
//
// Every endpoint is a stateless handler that extracts the access token from
// the request cookies, fails fast with a 401 envelope when a required token is
// absent or expired, forwards the request to the configured backend path with
// a bearer header attached, and reshapes the upstream response into the
// uniform envelope:
//
//	{ "code": <int>, "message": <string>, "data": <any | null> }
//
// Binary payloads (media files, dataset exports) bypass the envelope and are
// streamed through with their upstream Content-Type preserved.
//
// # Session model
//
// All session state lives in two HTTP-only cookies: access_token (15 minutes)
// and refresh_token (7 days). The gateway holds no server-side session store.
// Login sets both cookies, refresh rotates the access cookie, and logout or
// any refresh failure clears both. A session is either fully present or
// treated as absent; partial states are unauthenticated.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with
// method-qualified patterns, so path parameters are read with
// [http.Request.PathValue].
//
// # Notifications
//
// GET /events streams [shared.Bus] notifications as Server-Sent Events so
// open views can refresh after a batch analysis run finishes.
package gateway
