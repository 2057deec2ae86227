package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/pictag/internal/models"
	"github.com/desertthunder/pictag/internal/shared"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A single connection keeps the in-memory database alive across queries.
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func finishedRun(t *testing.T, model string, mediaIDs ...string) *models.BatchRun {
	t.Helper()

	media := make([]models.Media, 0, len(mediaIDs))
	for _, id := range mediaIDs {
		media = append(media, models.Media{ID: id, Filename: id + ".jpg", ContentType: "image/jpeg"})
	}

	run := models.NewBatchRun(model, media)
	run.SetID(shared.GenerateID())
	run.Start()
	for i := range mediaIDs {
		task := run.Task(i)
		task.MarkProcessing()
		task.AnalysisID = "analysis-" + mediaIDs[i]
		if i == len(mediaIDs)-1 {
			task.MarkFailed("model crashed")
		} else {
			task.MarkCompleted([]byte(`{"tags":["outdoor"]}`))
		}
	}
	run.Finish()

	return run
}

func TestRunRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewRunRepository(db)

	t.Run("create and get round-trip", func(t *testing.T) {
		run := finishedRun(t, "llava", "m1", "m2", "m3")
		if err := repo.Create(run); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if run.Sequence() == 0 {
			t.Error("create should assign a sequence")
		}

		loaded, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}

		if loaded.Model() != "llava" {
			t.Errorf("expected model llava, got %q", loaded.Model())
		}
		if loaded.FinishedAt().IsZero() {
			t.Error("finished_at should round-trip")
		}

		counts := loaded.Counts()
		if counts.Total != 3 || counts.Completed != 2 || counts.Failed != 1 {
			t.Errorf("expected 3/2/1 counts, got %+v", counts)
		}

		tasks := loaded.Tasks()
		if tasks[0].MediaID != "m1" || tasks[2].MediaID != "m3" {
			t.Error("tasks should load in position order")
		}
		if tasks[2].Error != "model crashed" {
			t.Errorf("task error should round-trip, got %q", tasks[2].Error)
		}
		if tasks[0].AnalysisID != "analysis-m1" {
			t.Errorf("analysis id should round-trip, got %q", tasks[0].AnalysisID)
		}
	})

	t.Run("update rewrites tallies and tasks", func(t *testing.T) {
		run := finishedRun(t, "llava", "m4", "m5")
		if err := repo.Create(run); err != nil {
			t.Fatalf("create failed: %v", err)
		}

		run.Task(0).Error = ""
		run.SetFinishedAt(time.Now().Add(time.Minute))
		if err := repo.Update(run); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		loaded, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if loaded.Counts().Total != 2 {
			t.Errorf("expected 2 tasks after update, got %d", loaded.Counts().Total)
		}
	})

	t.Run("sequences increase", func(t *testing.T) {
		first := finishedRun(t, "llava", "m6")
		second := finishedRun(t, "llava", "m7")

		if err := repo.Create(first); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(second); err != nil {
			t.Fatal(err)
		}

		if second.Sequence() <= first.Sequence() {
			t.Errorf("expected increasing sequences, got %d then %d", first.Sequence(), second.Sequence())
		}
	})

	t.Run("get missing run", func(t *testing.T) {
		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})
}

func TestRunRepositoryList(t *testing.T) {
	db := setupDB(t)
	repo := NewRunRepository(db)

	for _, model := range []string{"llava", "llava", "moondream"} {
		if err := repo.Create(finishedRun(t, model, "m1")); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("all runs newest first", func(t *testing.T) {
		runs, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if runs[0].Sequence() < runs[1].Sequence() {
			t.Error("expected newest run first")
		}
	})

	t.Run("filter by model", func(t *testing.T) {
		runs, err := repo.List(map[string]any{"model": "moondream"})
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 moondream run, got %d", len(runs))
		}
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
	})
}

func TestRunRepositoryDelete(t *testing.T) {
	db := setupDB(t)
	repo := NewRunRepository(db)

	run := finishedRun(t, "llava", "m1")
	if err := repo.Create(run); err != nil {
		t.Fatal(err)
	}

	if err := repo.Delete(run.ID()); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
		t.Errorf("deleted run should not be found, got %v", err)
	}

	if err := repo.Delete(run.ID()); !errors.Is(err, shared.ErrRunNotFound) {
		t.Errorf("deleting a missing run should report not found, got %v", err)
	}
}
