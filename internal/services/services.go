// package services defines HTTP clients for the media backend and the local
// model endpoint.
package services

import (
	"encoding/json"
	"net/http"
)

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// AnalysisStatus is the backend's view of one analysis job.
type AnalysisStatus struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ModelInfo describes one model registered with the backend or installed on
// the local endpoint.
type ModelInfo struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default,omitempty"`
}
