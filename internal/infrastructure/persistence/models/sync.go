package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/membercard/backend/internal/domain/sync"
)

// SyncConfigurationModel is the persistence model for the SyncConfiguration aggregate.
type SyncConfigurationModel struct {
	OwnedAggregateModel
	Platform            sync.PlatformCode `gorm:"type:varchar(20);not null;index:idx_sync_configs_user_platform,priority:2"`
	Direction           sync.Direction    `gorm:"type:varchar(10);not null"`
	SyncIntervalSeconds int               `gorm:"not null"`
	IsActive            bool              `gorm:"not null;default:true;index"`
	LastSyncAt          *time.Time        `gorm:""`
	Settings            string            `gorm:"type:jsonb"`
	EndpointAddress     string            `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SyncConfigurationModel) TableName() string {
	return "sync_configurations"
}

// ToDomain converts the persistence model to a domain SyncConfiguration aggregate.
func (m *SyncConfigurationModel) ToDomain() *sync.SyncConfiguration {
	config := &sync.SyncConfiguration{
		Platform:            m.Platform,
		Direction:           m.Direction,
		SyncIntervalSeconds: m.SyncIntervalSeconds,
		IsActive:            m.IsActive,
		LastSyncAt:          m.LastSyncAt,
		Settings:            m.Settings,
		EndpointAddress:     m.EndpointAddress,
	}
	m.PopulateOwnedAggregateRoot(&config.OwnedAggregateRoot)
	return config
}

// FromDomain populates the persistence model from a domain SyncConfiguration.
func (m *SyncConfigurationModel) FromDomain(config *sync.SyncConfiguration) {
	m.FromDomainOwnedAggregateRoot(config.OwnedAggregateRoot)
	m.Platform = config.Platform
	m.Direction = config.Direction
	m.SyncIntervalSeconds = config.SyncIntervalSeconds
	m.IsActive = config.IsActive
	m.LastSyncAt = config.LastSyncAt
	m.Settings = config.Settings
	m.EndpointAddress = config.EndpointAddress
}

// SyncConfigurationModelFromDomain creates a new persistence model from a domain SyncConfiguration.
func SyncConfigurationModelFromDomain(config *sync.SyncConfiguration) *SyncConfigurationModel {
	m := &SyncConfigurationModel{}
	m.FromDomain(config)
	return m
}

// SyncJobRunModel is the persistence model for finalized job runs. Rows are
// append-only; the repository never updates them.
type SyncJobRunModel struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key"`
	ConfigID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_sync_job_runs_config"`
	UserID         uuid.UUID         `gorm:"type:uuid;not null;index"`
	Platform       sync.PlatformCode `gorm:"type:varchar(20);not null"`
	Direction      sync.Direction    `gorm:"type:varchar(10);not null"`
	Status         sync.JobStatus    `gorm:"type:varchar(10);not null"`
	StartedAt      time.Time         `gorm:"not null;index"`
	FinishedAt     *time.Time        `gorm:""`
	RecordsSeen    int               `gorm:"not null"`
	RecordsCreated int               `gorm:"not null"`
	RecordsUpdated int               `gorm:"not null"`
	RecordsPushed  int               `gorm:"not null"`
	ErrorsJSON     string            `gorm:"type:jsonb;column:errors"`
	ErrorMessage   string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncJobRunModel) TableName() string {
	return "sync_job_runs"
}

// ToDomain converts the persistence model to a domain SyncJobRun.
func (m *SyncJobRunModel) ToDomain() *sync.SyncJobRun {
	run := &sync.SyncJobRun{
		ID:             m.ID,
		ConfigID:       m.ConfigID,
		UserID:         m.UserID,
		Platform:       m.Platform,
		Direction:      m.Direction,
		Status:         m.Status,
		StartedAt:      m.StartedAt,
		FinishedAt:     m.FinishedAt,
		RecordsSeen:    m.RecordsSeen,
		RecordsCreated: m.RecordsCreated,
		RecordsUpdated: m.RecordsUpdated,
		RecordsPushed:  m.RecordsPushed,
		Errors:         make([]sync.RecordError, 0),
		ErrorMessage:   m.ErrorMessage,
	}

	if m.ErrorsJSON != "" {
		var recordErrors []sync.RecordError
		if err := json.Unmarshal([]byte(m.ErrorsJSON), &recordErrors); err == nil {
			run.Errors = recordErrors
		}
	}

	return run
}

// FromDomain populates the persistence model from a domain SyncJobRun.
func (m *SyncJobRunModel) FromDomain(run *sync.SyncJobRun) {
	m.ID = run.ID
	m.ConfigID = run.ConfigID
	m.UserID = run.UserID
	m.Platform = run.Platform
	m.Direction = run.Direction
	m.Status = run.Status
	m.StartedAt = run.StartedAt
	m.FinishedAt = run.FinishedAt
	m.RecordsSeen = run.RecordsSeen
	m.RecordsCreated = run.RecordsCreated
	m.RecordsUpdated = run.RecordsUpdated
	m.RecordsPushed = run.RecordsPushed
	m.ErrorMessage = run.ErrorMessage

	if len(run.Errors) > 0 {
		if jsonBytes, err := json.Marshal(run.Errors); err == nil {
			m.ErrorsJSON = string(jsonBytes)
		}
	} else {
		m.ErrorsJSON = "[]"
	}
}

// SyncJobRunModelFromDomain creates a new persistence model from a domain SyncJobRun.
func SyncJobRunModelFromDomain(run *sync.SyncJobRun) *SyncJobRunModel {
	m := &SyncJobRunModel{}
	m.FromDomain(run)
	return m
}
