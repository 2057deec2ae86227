package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/pictag/internal/formatter"
	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/repositories"
	"github.com/desertthunder/pictag/internal/shared"
	"github.com/desertthunder/pictag/internal/tasks"
)

// analysisOptions builds the submission options from the command's flags.
func analysisOptions(cmd *cli.Command) models.AnalysisOptions {
	return models.AnalysisOptions{
		Model:               cmd.String("model"),
		GenerateTitle:       cmd.Bool("title"),
		GenerateDescription: cmd.Bool("description"),
		GenerateCategories:  cmd.Bool("categories"),
		GenerateTags:        cmd.Bool("tags"),
		MaxCategories:       int(cmd.Int("max-categories")),
		MaxTags:             int(cmd.Int("max-tags")),
		ConfidenceThreshold: cmd.Float("confidence"),
		Scenario:            cmd.String("scenario"),
	}
}

// resolveMedia fetches the library and narrows it to the requested IDs, or to
// every item when all is set.
func (r *Runner) resolveMedia(ctx context.Context, ids []string, all bool) ([]models.Media, error) {
	library, err := r.backend.ListMedia(ctx, r.config.Backend.APIToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}

	if all {
		return library, nil
	}

	var selected []models.Media
	for _, m := range library {
		if slices.Contains(ids, m.ID) {
			selected = append(selected, m)
		}
	}

	if len(selected) < len(ids) {
		known := make(map[string]bool, len(selected))
		for _, m := range selected {
			known[m.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, fmt.Errorf("%w: %s", shared.ErrMediaNotFound, id)
			}
		}
	}

	return selected, nil
}

// AnalyzeRun executes a sequential batch analysis over the selected media,
// stores the run in the local history database and optionally writes a report.
func (r *Runner) AnalyzeRun(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.StringSlice("media")
	all := cmd.Bool("all")
	if len(ids) == 0 && !all {
		return fmt.Errorf("%w: pass --media at least once or --all", shared.ErrMissingArgument)
	}

	media, err := r.resolveMedia(ctx, ids, all)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.writePlain("%v\n", update.Message)
		}
	}()

	run, runErr := r.engine.Run(ctx, progress, media, analysisOptions(cmd))
	close(progress)
	<-done

	if run == nil {
		return runErr
	}

	if err := r.saveRun(run); err != nil {
		r.logger.Warn("failed to persist run", "error", err)
	}

	counts := run.Counts()
	r.writePlainln("Run %v: %d/%d completed, %d failed", run.ID(), counts.Completed, counts.Total, counts.Failed)

	if format := cmd.String("report"); format != "" {
		if err := r.writeReport(run, format, cmd.String("output")); err != nil {
			return err
		}
	}

	return runErr
}

// saveRun persists a finished run to the history database.
func (r *Runner) saveRun(run *models.BatchRun) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return repositories.NewRunRepository(db).Create(run)
}

// writeReport writes the run report in the requested format.
func (r *Runner) writeReport(run *models.BatchRun, format, output string) error {
	switch strings.ToLower(format) {
	case "csv":
		result, err := formatter.WriteCSVReport(run, output)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.writePlain("Wrote %v and %v\n", result.TasksFile, result.SummaryFile)
	case "text", "txt":
		path, err := formatter.WriteTextReport(run, output)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		r.writePlain("Wrote %v\n", path)
	default:
		return fmt.Errorf("%w: unknown report format %q", shared.ErrInvalidArgument, format)
	}
	return nil
}

// AnalyzeHistory lists past analysis runs from the history database.
func (r *Runner) AnalyzeHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}
	if model := cmd.String("model"); model != "" {
		criteria["model"] = model
	}

	runs, err := repositories.NewRunRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		summaries := make([]map[string]any, 0, len(runs))
		for _, run := range runs {
			counts := run.Counts()
			summaries = append(summaries, map[string]any{
				"id":        run.ID(),
				"sequence":  run.Sequence(),
				"model":     run.Model(),
				"started":   run.StartedAt(),
				"completed": counts.Completed,
				"failed":    counts.Failed,
				"total":     counts.Total,
			})
		}
		return r.writeJSON(summaries, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded.\n")
	}

	r.writePlainHeader("Analysis History")
	for _, run := range runs {
		counts := run.Counts()
		r.writePlain("#%d %v  %v  %d/%d completed, %d failed  %v\n",
			run.Sequence(), run.ID(), run.Model(),
			counts.Completed, counts.Total, counts.Failed,
			formatter.FormatDuration(formatter.RunDuration(run)))
	}
	return nil
}

// AnalyzeShow prints one run's full report.
func (r *Runner) AnalyzeShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	run, err := repositories.NewRunRepository(db).Get(id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	if cmd.Bool("json") {
		data, err := formatter.ToSummaryJSON(run)
		if err != nil {
			return fmt.Errorf("failed to format run: %w", err)
		}
		return r.writePlain("%s\n", data)
	}

	report, err := formatter.ReportToText(run)
	if err != nil {
		return fmt.Errorf("failed to format run: %w", err)
	}
	return r.writePlain("%s", report)
}
