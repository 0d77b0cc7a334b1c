package sync

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/membercard/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Direction
// ---------------------------------------------------------------------------

// Direction controls which way a sync job moves records
type Direction string

const (
	// DirectionImport pulls remote records into the local contact store
	DirectionImport Direction = "import"
	// DirectionExport pushes local contacts to the remote platform
	DirectionExport Direction = "export"
	// DirectionBoth runs import then export sequentially within one job
	DirectionBoth Direction = "both"
)

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	switch d {
	case DirectionImport, DirectionExport, DirectionBoth:
		return true
	default:
		return false
	}
}

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// Imports returns true when the direction includes an import pass
func (d Direction) Imports() bool {
	return d == DirectionImport || d == DirectionBoth
}

// Exports returns true when the direction includes an export pass
func (d Direction) Exports() bool {
	return d == DirectionExport || d == DirectionBoth
}

// ---------------------------------------------------------------------------
// SyncConfiguration
// ---------------------------------------------------------------------------

// SyncConfiguration is the per-(user, platform) sync setup. At most one
// active configuration may exist per (user, platform) pair; deactivation is
// the only form of deletion the engine performs.
type SyncConfiguration struct {
	shared.OwnedAggregateRoot
	Platform            PlatformCode
	Direction           Direction
	SyncIntervalSeconds int
	IsActive            bool
	// LastSyncAt is the completion time of the last successful job run.
	// It is nil until the first success and is never advanced by failed
	// runs.
	LastSyncAt *time.Time
	// Settings holds the opaque connection parameters (JSON) consumed by
	// the platform adapter; the core never interprets them.
	Settings string
	// EndpointAddress is the opaque per-user discovery address handed to
	// external mobile clients. Only set for the mobile platform.
	EndpointAddress string
}

// NewSyncConfiguration creates an active configuration for a user and platform
func NewSyncConfiguration(userID uuid.UUID, platform PlatformCode, direction Direction, intervalSeconds int) (*SyncConfiguration, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "Configuration owner cannot be empty")
	}
	if !platform.IsValid() {
		return nil, ErrPlatformNotSupported
	}
	if !direction.IsValid() {
		return nil, ErrInvalidDirection
	}
	if intervalSeconds <= 0 {
		return nil, ErrInvalidInterval
	}

	return &SyncConfiguration{
		OwnedAggregateRoot:  shared.NewOwnedAggregateRoot(userID),
		Platform:            platform,
		Direction:           direction,
		SyncIntervalSeconds: intervalSeconds,
		IsActive:            true,
	}, nil
}

// MarkSynced records the completion time of a successful job run
func (c *SyncConfiguration) MarkSynced(at time.Time) {
	c.LastSyncAt = &at
	c.Touch()
	c.IncrementVersion()
}

// Activate re-enables the configuration
func (c *SyncConfiguration) Activate() error {
	if c.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Configuration is already active")
	}
	c.IsActive = true
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Deactivate soft-deletes the configuration; the engine never hard-deletes
func (c *SyncConfiguration) Deactivate() error {
	if !c.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Configuration is already inactive")
	}
	c.IsActive = false
	c.Touch()
	c.IncrementVersion()
	return nil
}

// UpdateDirection changes the sync direction
func (c *SyncConfiguration) UpdateDirection(direction Direction) error {
	if !direction.IsValid() {
		return ErrInvalidDirection
	}
	c.Direction = direction
	c.Touch()
	c.IncrementVersion()
	return nil
}

// UpdateInterval changes the sync interval
func (c *SyncConfiguration) UpdateInterval(seconds int) error {
	if seconds <= 0 {
		return ErrInvalidInterval
	}
	c.SyncIntervalSeconds = seconds
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetSettings replaces the opaque connection parameters
func (c *SyncConfiguration) SetSettings(settings string) error {
	settings = strings.TrimSpace(settings)
	if settings != "" && (!strings.HasPrefix(settings, "{") || !strings.HasSuffix(settings, "}")) {
		return shared.NewDomainError("INVALID_SETTINGS", "Settings must be a JSON object")
	}
	c.Settings = settings
	c.Touch()
	c.IncrementVersion()
	return nil
}

// AssignEndpoint stores the derived mobile discovery address
func (c *SyncConfiguration) AssignEndpoint(address string) {
	c.EndpointAddress = address
	c.Touch()
	c.IncrementVersion()
}

// Interval returns the sync interval as a duration
func (c *SyncConfiguration) Interval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// Due reports whether an interval-triggered run is due at the given time
func (c *SyncConfiguration) Due(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.LastSyncAt == nil {
		return true
	}
	return now.Sub(*c.LastSyncAt) >= c.Interval()
}

// ---------------------------------------------------------------------------
// ConfigRepository
// ---------------------------------------------------------------------------

// ConfigRepository defines the persistence port for sync configurations
type ConfigRepository interface {
	// FindByID finds a configuration by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncConfiguration, error)

	// FindActiveByUserAndPlatform finds the single active configuration
	// for a (user, platform) pair
	FindActiveByUserAndPlatform(ctx context.Context, userID uuid.UUID, platform PlatformCode) (*SyncConfiguration, error)

	// FindByUser lists all configurations owned by a user
	FindByUser(ctx context.Context, userID uuid.UUID) ([]SyncConfiguration, error)

	// FindAllActive lists every active configuration (used by the
	// interval scheduler)
	FindAllActive(ctx context.Context) ([]SyncConfiguration, error)

	// Save creates or updates a configuration
	Save(ctx context.Context, config *SyncConfiguration) error
}
