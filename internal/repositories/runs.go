package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/shared"
)

// RunRepository persists batch analysis runs and their per-media tasks.
//
// The runs table carries denormalized completed/failed tallies for cheap
// history listings; the task rows remain the source of truth and are loaded
// alongside every run.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a finished or in-flight run with its task rows.
//
// Runs created by the batch engine already carry an ID; one is generated
// otherwise.
func (r *RunRepository) Create(run *models.BatchRun) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if run.ID() == "" {
		run.SetID(shared.GenerateID())
	}
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counts := run.Counts()
	query := `
		INSERT INTO runs (id, sequence, model, total, completed, failed, started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.Exec(query,
		run.ID(),
		sequence,
		run.Model(),
		counts.Total,
		counts.Completed,
		counts.Failed,
		run.StartedAt(),
		nullableTime(run.FinishedAt()),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err := insertTasks(tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, including its task rows in position order.
func (r *RunRepository) Get(id string) (*models.BatchRun, error) {
	query := `
		SELECT id, sequence, model, started_at, finished_at, created_at, updated_at
		FROM runs
		WHERE id = ?
	`

	run, err := r.scanRun(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	tasks, err := r.loadTasks(run.ID())
	if err != nil {
		return nil, err
	}
	run.SetTasks(tasks)

	return run, nil
}

// Update rewrites a run's tallies and task rows, typically after the engine
// finishes the run it created up front.
func (r *RunRepository) Update(run *models.BatchRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	counts := run.Counts()
	query := `
		UPDATE runs
		SET total = ?, completed = ?, failed = ?, finished_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := tx.Exec(query,
		counts.Total,
		counts.Completed,
		counts.Failed,
		nullableTime(run.FinishedAt()),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, run.ID())
	}

	if _, err := tx.Exec("DELETE FROM run_tasks WHERE run_id = ?", run.ID()); err != nil {
		return fmt.Errorf("failed to clear task rows: %w", err)
	}
	if err := insertTasks(tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run update: %w", err)
	}

	return nil
}

// Delete removes a run and its task rows.
func (r *RunRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM run_tasks WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete task rows: %w", err)
	}

	result, err := tx.Exec("DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}

	return tx.Commit()
}

// List retrieves runs matching the given criteria, newest first.
func (r *RunRepository) List(criteria map[string]any) ([]*models.BatchRun, error) {
	query := "SELECT id FROM runs WHERE 1 = 1"
	args := []any{}

	if model, ok := criteria["model"].(string); ok && model != "" {
		query += " AND model = ?"
		args = append(args, model)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	runs := make([]*models.BatchRun, 0, len(ids))
	for _, id := range ids {
		run, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, nil
}

// scanRun scans a single run row without its tasks.
func (r *RunRepository) scanRun(row *sql.Row) (*models.BatchRun, error) {
	var (
		id         string
		sequence   int
		model      string
		startedAt  time.Time
		finishedAt sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
	)

	err := row.Scan(&id, &sequence, &model, &startedAt, &finishedAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewBatchRun(model, nil)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetStartedAt(startedAt)
	if finishedAt.Valid {
		run.SetFinishedAt(finishedAt.Time)
	}
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)

	return run, nil
}

// loadTasks reads a run's task rows in position order.
func (r *RunRepository) loadTasks(runID string) ([]models.AnalysisTask, error) {
	query := `
		SELECT media_id, status, progress, analysis_id, error
		FROM run_tasks
		WHERE run_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task rows: %w", err)
	}
	defer rows.Close()

	var tasks []models.AnalysisTask
	for rows.Next() {
		var (
			task       models.AnalysisTask
			status     string
			analysisID sql.NullString
			taskErr    sql.NullString
		)

		if err := rows.Scan(&task.MediaID, &status, &task.Progress, &analysisID, &taskErr); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		task.Status = models.TaskStatus(status)
		task.AnalysisID = analysisID.String
		task.Error = taskErr.String
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tasks, nil
}

// insertTasks writes a run's task rows inside the caller's transaction.
func insertTasks(tx *sql.Tx, run *models.BatchRun) error {
	query := `
		INSERT INTO run_tasks (run_id, position, media_id, status, progress, analysis_id, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for position, task := range run.Tasks() {
		_, err := tx.Exec(query,
			run.ID(),
			position,
			task.MediaID,
			string(task.Status),
			task.Progress,
			nullableString(task.AnalysisID),
			nullableString(task.Error),
		)
		if err != nil {
			return fmt.Errorf("failed to insert task row: %w", err)
		}
	}

	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
