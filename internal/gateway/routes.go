package gateway

import "net/http"

// mediaCacheControl keeps media files briefly cacheable so gallery views
// don't refetch on every navigation, while revalidating after edits land.
const mediaCacheControl = "public, max-age=60, must-revalidate"

// routes returns the proxy route table. Each entry maps one inbound
// method+pattern to one backend path; the auth endpoints with cookie side
// effects (login, refresh, logout) are registered separately.
func (g *Gateway) routes() []route {
	return []route{
		{method: http.MethodPost, pattern: "/auth/register", backendPath: "/auth/register"},

		{method: http.MethodGet, pattern: "/users/profile", backendPath: "/users/profile", authRequired: true},
		{method: http.MethodPatch, pattern: "/users/profile", backendPath: "/users/profile", authRequired: true},
		{method: http.MethodPost, pattern: "/users/avatar/upload", backendPath: "/users/avatar/upload", authRequired: true, kind: kindMultipart},
		{method: http.MethodDelete, pattern: "/users/avatar", backendPath: "/users/avatar", authRequired: true},

		{method: http.MethodGet, pattern: "/media", backendPath: "/media", authRequired: true},
		{method: http.MethodPost, pattern: "/media", backendPath: "/media", authRequired: true, kind: kindMultipart},
		{method: http.MethodGet, pattern: "/media/{id}", backendPath: "/media/{id}", authRequired: true},
		{method: http.MethodPatch, pattern: "/media/{id}", backendPath: "/media/{id}", authRequired: true},
		{method: http.MethodDelete, pattern: "/media/{id}", backendPath: "/media/{id}", authRequired: true},
		{method: http.MethodGet, pattern: "/media/file/{path...}", backendPath: "/media/file/{path...}", kind: kindBinary, cacheControl: mediaCacheControl},

		{method: http.MethodGet, pattern: "/projects", backendPath: "/projects", authRequired: true},
		{method: http.MethodPost, pattern: "/projects", backendPath: "/projects", authRequired: true},
		{method: http.MethodGet, pattern: "/projects/{id}", backendPath: "/projects/{id}", authRequired: true},
		{method: http.MethodPatch, pattern: "/projects/{id}", backendPath: "/projects/{id}", authRequired: true},
		{method: http.MethodDelete, pattern: "/projects/{id}", backendPath: "/projects/{id}", authRequired: true},
		{method: http.MethodPost, pattern: "/projects/{id}/media/add", backendPath: "/projects/{id}/media/add", authRequired: true},
		{method: http.MethodPost, pattern: "/projects/{id}/media/update-notes", backendPath: "/projects/{id}/media/update-notes", authRequired: true},
		{method: http.MethodPost, pattern: "/projects/{id}/export-dataset", backendPath: "/projects/{id}/export-dataset", authRequired: true, kind: kindBinary},

		{method: http.MethodGet, pattern: "/llm/models", backendPath: "/llm/models", authRequired: true},
		{method: http.MethodPost, pattern: "/llm/models", backendPath: "/llm/models", authRequired: true},
		{method: http.MethodGet, pattern: "/llm/models/{id}", backendPath: "/llm/models/{id}", authRequired: true},
		{method: http.MethodPatch, pattern: "/llm/models/{id}", backendPath: "/llm/models/{id}", authRequired: true},
		{method: http.MethodDelete, pattern: "/llm/models/{id}", backendPath: "/llm/models/{id}", authRequired: true},
		{method: http.MethodPost, pattern: "/llm/models/{id}/set-default", backendPath: "/llm/models/{id}/set-default", authRequired: true},
		{method: http.MethodGet, pattern: "/llm/endpoints", backendPath: "/llm/endpoints", authRequired: true},
		{method: http.MethodPost, pattern: "/llm/endpoints", backendPath: "/llm/endpoints", authRequired: true},
		{method: http.MethodGet, pattern: "/llm/endpoints/{id}", backendPath: "/llm/endpoints/{id}", authRequired: true},
		{method: http.MethodPatch, pattern: "/llm/endpoints/{id}", backendPath: "/llm/endpoints/{id}", authRequired: true},
		{method: http.MethodDelete, pattern: "/llm/endpoints/{id}", backendPath: "/llm/endpoints/{id}", authRequired: true},

		{method: http.MethodPost, pattern: "/analyses/batch", backendPath: "/analyses/batch", authRequired: true},
		{method: http.MethodGet, pattern: "/analyses/group", backendPath: "/analyses/group", authRequired: true},
		{method: http.MethodGet, pattern: "/analyses/stats", backendPath: "/analyses/stats", authRequired: true},
		{method: http.MethodGet, pattern: "/analyses/by-media", backendPath: "/analyses/by-media", authRequired: true, requiredQuery: []string{"media_id"}},
		{method: http.MethodGet, pattern: "/analyses/{id}", backendPath: "/analyses/{id}", authRequired: true},
		{method: http.MethodDelete, pattern: "/analyses/{id}", backendPath: "/analyses/{id}", authRequired: true},
	}
}
