package domain

import "time"

// ScheduledTask is a recurring re-index of one owner's workspace.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Owner is the workspace the task re-indexes.
	Owner Owner

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time
}

// Due reports whether the task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	StartedAt time.Time
	EndedAt   time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is the number of slides indexed.
	ItemsProcessed int
}

// SchedulerConfig configures periodic re-indexing while the server runs.
type SchedulerConfig struct {
	// Interval between runs for each owner. Zero disables the scheduler.
	Interval time.Duration

	// Owners whose workspaces are re-indexed.
	Owners []Owner
}

// Enabled reports whether there is anything to schedule.
func (c SchedulerConfig) Enabled() bool {
	if c.Interval <= 0 {
		return false
	}
	for _, o := range c.Owners {
		if o.IsValid() {
			return true
		}
	}
	return false
}

// TaskIDReindexPrefix prefixes the id of every re-index task.
const TaskIDReindexPrefix = "reindex:"

// ReindexTaskID returns the task id for owner.
func ReindexTaskID(owner Owner) string {
	return TaskIDReindexPrefix + string(owner)
}
