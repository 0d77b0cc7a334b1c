package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Job Run Types
// ---------------------------------------------------------------------------

// JobStatus represents the status of a sync job run
type JobStatus string

const (
	// JobStatusRunning indicates the run is in progress
	JobStatusRunning JobStatus = "running"
	// JobStatusSuccess indicates the run completed; the errors list may
	// still be non-empty (partial-failure semantics)
	JobStatusSuccess JobStatus = "success"
	// JobStatusError indicates the run aborted before completing
	JobStatusError JobStatus = "error"
)

// IsValid returns true if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusRunning, JobStatusSuccess, JobStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsFinal returns true for terminal statuses
func (s JobStatus) IsFinal() bool {
	return s == JobStatusSuccess || s == JobStatusError
}

// SyncJobRun is the audit record of one job execution. It is created at job
// start, appended to while records are processed, and immutable once
// finalized.
type SyncJobRun struct {
	ID         uuid.UUID
	ConfigID   uuid.UUID
	UserID     uuid.UUID
	Platform   PlatformCode
	Direction  Direction
	Status     JobStatus
	StartedAt  time.Time
	FinishedAt *time.Time
	// RecordsSeen counts every raw record the adapter produced, including
	// ones that later failed
	RecordsSeen int
	// RecordsCreated counts contacts created during the import pass
	RecordsCreated int
	// RecordsUpdated counts contacts merged during the import pass
	RecordsUpdated int
	// RecordsPushed counts contacts the remote acknowledged during the
	// export pass
	RecordsPushed int
	// Errors lists per-record failures; populated only while running
	Errors []RecordError
	// ErrorMessage carries the abort cause when Status is error
	ErrorMessage string
}

// NewSyncJobRun starts a new run for the given configuration
func NewSyncJobRun(config *SyncConfiguration, direction Direction) *SyncJobRun {
	return &SyncJobRun{
		ID:        uuid.New(),
		ConfigID:  config.ID,
		UserID:    config.UserID,
		Platform:  config.Platform,
		Direction: direction,
		Status:    JobStatusRunning,
		StartedAt: time.Now(),
		Errors:    make([]RecordError, 0),
	}
}

// AddError appends a per-record failure. Finalized runs reject further
// errors.
func (r *SyncJobRun) AddError(recordErr RecordError) error {
	if r.Status.IsFinal() {
		return ErrRunFinalized
	}
	r.Errors = append(r.Errors, recordErr)
	return nil
}

// Complete finalizes the run as successful. A completed run may still carry
// record errors; success means the stream was fully processed, not that every
// record succeeded.
func (r *SyncJobRun) Complete() error {
	if r.Status.IsFinal() {
		return ErrRunFinalized
	}
	now := time.Now()
	r.Status = JobStatusSuccess
	r.FinishedAt = &now
	return nil
}

// Fail finalizes the run as aborted with all counts as accumulated
func (r *SyncJobRun) Fail(message string) error {
	if r.Status.IsFinal() {
		return ErrRunFinalized
	}
	now := time.Now()
	r.Status = JobStatusError
	r.ErrorMessage = message
	r.FinishedAt = &now
	return nil
}

// Duration returns the elapsed run time; zero until finalized
func (r *SyncJobRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// HasErrors returns true when the run carries record errors
func (r *SyncJobRun) HasErrors() bool {
	return len(r.Errors) > 0
}

// ---------------------------------------------------------------------------
// LogRecorder
// ---------------------------------------------------------------------------

// LogRecorder persists finalized job runs for audit and status queries.
// The log is append-only: a recorded run is never mutated.
type LogRecorder interface {
	// Append stores a finalized run
	Append(ctx context.Context, run *SyncJobRun) error

	// Recent returns up to limit runs for a configuration, most recent
	// first
	Recent(ctx context.Context, configID uuid.UUID, limit int) ([]SyncJobRun, error)
}
