package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TaskStatus enumerates the lifecycle states of an [AnalysisTask].
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Coarse progress values reported while a task moves through its lifecycle.
const (
	ProgressSubmitted  = 20
	ProgressProcessing = 50
	ProgressCompleted  = 100
	ProgressFailed     = 0
)

// ErrTerminalTask is returned when a transition is attempted on a task that
// already reached completed or failed.
var ErrTerminalTask = errors.New("task already in terminal state")

// AnalysisTask tracks one media item through submit → poll → terminal state.
type AnalysisTask struct {
	MediaID    string          `json:"media_id"`
	Status     TaskStatus      `json:"status"`
	Progress   int             `json:"progress"`
	AnalysisID string          `json:"analysis_id,omitempty"`
	Error      string          `json:"error,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// NewAnalysisTask creates a pending task for the given media item.
func NewAnalysisTask(mediaID string) AnalysisTask {
	return AnalysisTask{MediaID: mediaID, Status: TaskPending}
}

// Terminal reports whether the task reached completed or failed.
func (t *AnalysisTask) Terminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskFailed
}

// MarkProcessing transitions the task from pending to processing at submit time.
func (t *AnalysisTask) MarkProcessing() error {
	if t.Terminal() {
		return ErrTerminalTask
	}
	t.Status = TaskProcessing
	t.Progress = ProgressSubmitted
	return nil
}

// UpdatePolling adjusts progress from the backend-reported job status while
// the task is still in flight.
func (t *AnalysisTask) UpdatePolling(backendStatus TaskStatus) error {
	if t.Terminal() {
		return ErrTerminalTask
	}
	switch backendStatus {
	case TaskPending:
		t.Progress = ProgressSubmitted
	case TaskProcessing:
		t.Progress = ProgressProcessing
	}
	return nil
}

// MarkCompleted transitions the task to its completed terminal state.
func (t *AnalysisTask) MarkCompleted(result json.RawMessage) error {
	if t.Terminal() {
		return ErrTerminalTask
	}
	t.Status = TaskCompleted
	t.Progress = ProgressCompleted
	t.Result = result
	return nil
}

// MarkFailed transitions the task to its failed terminal state with an error
// message. Backend-reported failures and client-side timeouts both land here,
// distinguished only by the message.
func (t *AnalysisTask) MarkFailed(message string) error {
	if t.Terminal() {
		return ErrTerminalTask
	}
	t.Status = TaskFailed
	t.Progress = ProgressFailed
	t.Error = message
	return nil
}

// RunCounts aggregates task states for a batch run. Always derived from the
// task list, never stored independently.
type RunCounts struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// BatchRun is one execution of the sequential analyzer over a set of media items.
type BatchRun struct {
	id           string
	sequence     int
	model        string
	tasks        []AnalysisTask
	isRunning    bool
	currentIndex int
	startedAt    time.Time
	finishedAt   time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewBatchRun creates a run with one pending task per media item, in input order.
func NewBatchRun(model string, media []Media) *BatchRun {
	now := time.Now()
	tasks := make([]AnalysisTask, 0, len(media))
	for _, m := range media {
		tasks = append(tasks, NewAnalysisTask(m.ID))
	}
	return &BatchRun{
		model:     model,
		tasks:     tasks,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *BatchRun) ID() string           { return r.id }
func (r *BatchRun) Sequence() int        { return r.sequence }
func (r *BatchRun) Model() string        { return r.model }
func (r *BatchRun) CreatedAt() time.Time { return r.createdAt }
func (r *BatchRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *BatchRun) StartedAt() time.Time { return r.startedAt }
func (r *BatchRun) FinishedAt() time.Time {
	return r.finishedAt
}
func (r *BatchRun) IsRunning() bool   { return r.isRunning }
func (r *BatchRun) CurrentIndex() int { return r.currentIndex }

func (r *BatchRun) SetID(id string)            { r.id = id }
func (r *BatchRun) SetSequence(seq int)        { r.sequence = seq }
func (r *BatchRun) SetUpdatedAt(t time.Time)   { r.updatedAt = t }
func (r *BatchRun) SetStartedAt(t time.Time)   { r.startedAt = t }
func (r *BatchRun) SetFinishedAt(t time.Time)  { r.finishedAt = t }
func (r *BatchRun) SetTasks(ts []AnalysisTask) { r.tasks = ts }
func (r *BatchRun) SetCreatedAt(t time.Time)   { r.createdAt = t }

// Start marks the run as executing and records the start time.
func (r *BatchRun) Start() {
	r.isRunning = true
	r.startedAt = time.Now()
}

// Finish marks the run as no longer executing and records the finish time.
func (r *BatchRun) Finish() {
	r.isRunning = false
	r.finishedAt = time.Now()
	r.updatedAt = r.finishedAt
}

// Advance records the index of the task currently being processed.
func (r *BatchRun) Advance(index int) {
	r.currentIndex = index
}

// Task returns a pointer into the run's task list for in-place transitions.
// Owned by the running engine; external readers use [BatchRun.Tasks].
func (r *BatchRun) Task(index int) *AnalysisTask {
	return &r.tasks[index]
}

// Tasks returns a snapshot copy of the task list for display.
func (r *BatchRun) Tasks() []AnalysisTask {
	snapshot := make([]AnalysisTask, len(r.tasks))
	copy(snapshot, r.tasks)
	return snapshot
}

// Counts derives the aggregate state tallies from the task list.
func (r *BatchRun) Counts() RunCounts {
	counts := RunCounts{Total: len(r.tasks)}
	for i := range r.tasks {
		switch r.tasks[i].Status {
		case TaskPending:
			counts.Pending++
		case TaskProcessing:
			counts.Processing++
		case TaskCompleted:
			counts.Completed++
		case TaskFailed:
			counts.Failed++
		}
	}
	return counts
}

// Validate checks if the run's data is valid.
func (r *BatchRun) Validate() error {
	if r.id == "" {
		return fmt.Errorf("run id is required")
	}
	if r.model == "" {
		return fmt.Errorf("run model is required")
	}
	if len(r.tasks) == 0 {
		return fmt.Errorf("run requires at least one task")
	}
	return nil
}
