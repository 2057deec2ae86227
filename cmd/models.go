package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ModelsList prints the models registered with the backend.
func (r *Runner) ModelsList(ctx context.Context, cmd *cli.Command) error {
	infos, err := r.backend.ListModels(ctx, r.config.Backend.APIToken)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(infos, true)
	}

	if len(infos) == 0 {
		return r.writePlain("No models registered.\n")
	}

	r.writePlainHeader("Registered Models")
	for _, info := range infos {
		marker := " "
		if info.IsDefault {
			marker = "*"
		}
		r.writePlain("%v %v  %v\n", marker, info.ID, info.Name)
	}
	return nil
}

// ModelsLocal prints the models installed on the local Ollama endpoint.
func (r *Runner) ModelsLocal(ctx context.Context, cmd *cli.Command) error {
	infos, err := r.ollama.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list local models: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(infos, true)
	}

	if len(infos) == 0 {
		return r.writePlain("No local models installed.\n")
	}

	r.writePlainHeader("Local Models")
	for _, info := range infos {
		r.writePlain("%v\n", info.Name)
	}
	return nil
}
