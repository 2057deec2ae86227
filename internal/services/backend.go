// Backend API client used by the gateway handlers and the batch analyzer.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/shared"
	"golang.org/x/oauth2"
)

// BackendClient makes authenticated HTTP requests to the media backend.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a backend client for the given base URL.
func NewBackendClient(baseURL string, client *http.Client) *BackendClient {
	if baseURL == "" {
		baseURL = "http://localhost:9000/api/v1"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// Do performs a request against the backend and returns the raw response.
//
// The caller owns the response body. An Authorization header is attached when
// token is non-empty; contentType is forwarded as-is so multipart boundaries
// survive the hop.
func (c *BackendClient) Do(ctx context.Context, method, path, token, contentType string, query url.Values, body io.Reader) (*http.Response, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}

	return resp, nil
}

// request performs a JSON request and collects the full response body.
func (c *BackendClient) request(ctx context.Context, method, path, token string, data []byte) (*APIResponse, error) {
	var body io.Reader
	contentType := ""
	if data != nil {
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, err := c.Do(ctx, method, path, token, contentType, nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (c *BackendClient) Get(ctx context.Context, path, token string) (*APIResponse, error) {
	return c.request(ctx, http.MethodGet, path, token, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (c *BackendClient) Post(ctx context.Context, path, token string, data []byte) (*APIResponse, error) {
	return c.request(ctx, http.MethodPost, path, token, data)
}

// unwrap decodes the backend envelope and, on success, its data payload into out.
func unwrap(resp *APIResponse, out any) error {
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return fmt.Errorf("%w: malformed response (status %d)", shared.ErrUpstream, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s (status %d)", shared.ErrUpstream, env.Message, resp.StatusCode)
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: unexpected payload shape", shared.ErrUpstream)
		}
	}

	return nil
}

// tokenPayload is the backend's JWT issue/refresh response.
type tokenPayload struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresIn    int64           `json:"expires_in"`
	User         json.RawMessage `json:"user"`
}

func (p tokenPayload) token() *oauth2.Token {
	token := &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
	}
	if p.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(p.ExpiresIn) * time.Second)
	}
	return token
}

// Login exchanges credentials for a token pair plus the user info payload.
func (c *BackendClient) Login(ctx context.Context, email, password string) (*oauth2.Token, json.RawMessage, error) {
	data, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode credentials: %w", err)
	}

	resp, err := c.Post(ctx, "/auth/login", "", data)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil, fmt.Errorf("%w: invalid credentials", shared.ErrNotAuthenticated)
	}

	var payload tokenPayload
	if err := unwrap(resp, &payload); err != nil {
		return nil, nil, err
	}

	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return nil, nil, fmt.Errorf("%w: token pair missing from login response", shared.ErrUpstream)
	}

	return payload.token(), payload.User, nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *BackendClient) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	data, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	resp, err := c.Post(ctx, "/auth/refresh", "", data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", shared.ErrRefreshFailed, resp.StatusCode)
	}

	var payload tokenPayload
	if err := unwrap(resp, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token missing from refresh response", shared.ErrRefreshFailed)
	}

	return payload.token(), nil
}

// SubmitAnalysis submits one media item for analysis and returns the
// backend-assigned job ID.
func (c *BackendClient) SubmitAnalysis(ctx context.Context, token, mediaID string, opts models.AnalysisOptions) (string, error) {
	body := struct {
		MediaID string `json:"media_id"`
		models.AnalysisOptions
	}{MediaID: mediaID, AnalysisOptions: opts}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis request: %w", err)
	}

	resp, err := c.Post(ctx, "/analyses", token, data)
	if err != nil {
		return "", err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := unwrap(resp, &payload); err != nil {
		return "", err
	}

	if payload.ID == "" {
		return "", fmt.Errorf("%w: analysis id missing from response", shared.ErrUpstream)
	}

	return payload.ID, nil
}

// AnalysisStatus polls the status of a submitted analysis job.
func (c *BackendClient) AnalysisStatus(ctx context.Context, token, analysisID string) (*AnalysisStatus, error) {
	resp, err := c.Get(ctx, "/analyses/"+url.PathEscape(analysisID), token)
	if err != nil {
		return nil, err
	}

	var status AnalysisStatus
	if err := unwrap(resp, &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// ListMedia retrieves the media library.
func (c *BackendClient) ListMedia(ctx context.Context, token string) ([]models.Media, error) {
	resp, err := c.Get(ctx, "/media", token)
	if err != nil {
		return nil, err
	}

	var media []models.Media
	if err := unwrap(resp, &media); err != nil {
		return nil, err
	}

	return media, nil
}

// ListModels retrieves the models registered with the backend.
func (c *BackendClient) ListModels(ctx context.Context, token string) ([]ModelInfo, error) {
	resp, err := c.Get(ctx, "/llm/models", token)
	if err != nil {
		return nil, err
	}

	var infos []ModelInfo
	if err := unwrap(resp, &infos); err != nil {
		return nil, err
	}

	return infos, nil
}
