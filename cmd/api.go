package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pictag/internal/shared"
)

// normalizePath ensures the request path has a leading slash.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

// APIGet performs a raw GET against the backend and prints the response.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	resp, err := r.backend.Get(ctx, normalizePath(path), r.config.Backend.APIToken)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	return r.writePlain("%s\n", resp.Body)
}

// APIPost performs a raw POST with a JSON body against the backend.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	data := cmd.String("data")
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: --data is not valid JSON", shared.ErrInvalidArgument)
	}

	resp, err := r.backend.Post(ctx, normalizePath(path), r.config.Backend.APIToken, []byte(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	return r.writePlain("%s\n", resp.Body)
}
