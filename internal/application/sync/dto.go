package sync

import (
	"time"

	"github.com/google/uuid"

	"github.com/membercard/backend/internal/domain/sync"
)

// ---------------------------------------------------------------------------
// Configuration DTOs
// ---------------------------------------------------------------------------

// SyncConfigurationResponse represents a sync configuration in API responses
type SyncConfigurationResponse struct {
	ID                  uuid.UUID         `json:"id"`
	UserID              uuid.UUID         `json:"user_id"`
	Platform            sync.PlatformCode `json:"platform"`
	PlatformDisplayName string            `json:"platform_display_name"`
	Direction           sync.Direction    `json:"direction"`
	SyncIntervalSeconds int               `json:"sync_interval_seconds"`
	IsActive            bool              `json:"is_active"`
	LastSyncAt          *time.Time        `json:"last_sync_at,omitempty"`
	EndpointAddress     string            `json:"endpoint_address,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// CreateSyncConfigurationRequest represents a request to set up sync with a platform
type CreateSyncConfigurationRequest struct {
	Platform            sync.PlatformCode `json:"platform" validate:"required"`
	Direction           sync.Direction    `json:"direction" validate:"required,oneof=import export both"`
	SyncIntervalSeconds int               `json:"sync_interval_seconds" validate:"required,min=60"`
	Settings            string            `json:"settings,omitempty"`
}

// UpdateSyncConfigurationRequest represents a partial configuration update
type UpdateSyncConfigurationRequest struct {
	Direction           *sync.Direction `json:"direction,omitempty"`
	SyncIntervalSeconds *int            `json:"sync_interval_seconds,omitempty" validate:"omitempty,min=60"`
	Settings            *string         `json:"settings,omitempty"`
	IsActive            *bool           `json:"is_active,omitempty"`
}

// ---------------------------------------------------------------------------
// Job DTOs
// ---------------------------------------------------------------------------

// RecordErrorResponse represents one per-record failure in API responses
type RecordErrorResponse struct {
	Reference string `json:"reference"`
	Message   string `json:"message"`
}

// JobResultResponse is the outcome of one triggered job run
type JobResultResponse struct {
	JobID          uuid.UUID             `json:"job_id"`
	ConfigID       uuid.UUID             `json:"config_id"`
	Platform       sync.PlatformCode     `json:"platform"`
	Direction      sync.Direction        `json:"direction"`
	Status         sync.JobStatus        `json:"status"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     *time.Time            `json:"finished_at,omitempty"`
	DurationMs     int64                 `json:"duration_ms"`
	RecordsSeen    int                   `json:"records_seen"`
	RecordsCreated int                   `json:"records_created"`
	RecordsUpdated int                   `json:"records_updated"`
	RecordsPushed  int                   `json:"records_pushed"`
	Errors         []RecordErrorResponse `json:"errors"`
	ErrorMessage   string                `json:"error_message,omitempty"`
}

// ---------------------------------------------------------------------------
// Conversion functions
// ---------------------------------------------------------------------------

// ToSyncConfigurationResponse converts a domain configuration to a response DTO
func ToSyncConfigurationResponse(c *sync.SyncConfiguration) SyncConfigurationResponse {
	return SyncConfigurationResponse{
		ID:                  c.ID,
		UserID:              c.UserID,
		Platform:            c.Platform,
		PlatformDisplayName: c.Platform.DisplayName(),
		Direction:           c.Direction,
		SyncIntervalSeconds: c.SyncIntervalSeconds,
		IsActive:            c.IsActive,
		LastSyncAt:          c.LastSyncAt,
		EndpointAddress:     c.EndpointAddress,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// ToJobResultResponse converts a finalized job run to a response DTO
func ToJobResultResponse(r *sync.SyncJobRun) JobResultResponse {
	errs := make([]RecordErrorResponse, 0, len(r.Errors))
	for _, recordErr := range r.Errors {
		errs = append(errs, RecordErrorResponse{
			Reference: recordErr.Reference,
			Message:   recordErr.Message,
		})
	}

	return JobResultResponse{
		JobID:          r.ID,
		ConfigID:       r.ConfigID,
		Platform:       r.Platform,
		Direction:      r.Direction,
		Status:         r.Status,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		DurationMs:     r.Duration().Milliseconds(),
		RecordsSeen:    r.RecordsSeen,
		RecordsCreated: r.RecordsCreated,
		RecordsUpdated: r.RecordsUpdated,
		RecordsPushed:  r.RecordsPushed,
		Errors:         errs,
		ErrorMessage:   r.ErrorMessage,
	}
}
