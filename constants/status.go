package constants

// TaskStatus is the lifecycle state of a batch task as reported in progress events.
type TaskStatus string

// Stable values (stored in progress records).
const (
	TaskStatusQueued  TaskStatus = "QUEUED"  // accepted, not started
	TaskStatusRunning TaskStatus = "RUNNING" // images in flight
	TaskStatusDone    TaskStatus = "DONE"    // terminal, result written
	TaskStatusFailed  TaskStatus = "FAILED"  // terminal, archive-level failure
)

// Terminal reports whether no further progress events follow s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusDone || s == TaskStatusFailed
}
