package tasks

import (
	"fmt"

	"github.com/desertthunder/pictag/internal/models"
)

// ProgressUpdate represents a progress event during a batch analysis run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current task number within the run
	Total   int    // Total tasks in the run
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Submit Phase = iota
	Poll
	TaskDone
	Wait
	RunDone
)

func (p Phase) String() string {
	switch p {
	case Submit:
		return "submit"
	case Poll:
		return "poll"
	case TaskDone:
		return "task_done"
	case Wait:
		return "wait"
	case RunDone:
		return "run_done"
	default:
		return ""
	}
}

func submitUpdate(step, total int, mediaID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Submit,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Submitting %s for analysis...", step, total, mediaID),
	}
}

func pollUpdate(step, total int, mediaID string, progress int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Poll,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Analyzing %s (%d%%)...", step, total, mediaID, progress),
		Data:    progress,
	}
}

func taskCompletedUpdate(step, total int, mediaID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TaskDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, mediaID),
	}
}

func taskFailedUpdate(step, total int, mediaID, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TaskDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, mediaID, reason),
	}
}

func waitingUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Wait,
		Step:    step,
		Total:   total,
		Message: "Waiting before next submission...",
	}
}

func runFinishedUpdate(counts models.RunCounts) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunDone,
		Step:    counts.Total,
		Total:   counts.Total,
		Message: fmt.Sprintf("Batch finished: %d succeeded, %d failed", counts.Completed, counts.Failed),
		Data:    counts,
	}
}
