package sync

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection_IsValid(t *testing.T) {
	tests := []struct {
		direction Direction
		expected  bool
	}{
		{DirectionImport, true},
		{DirectionExport, true},
		{DirectionBoth, true},
		{Direction("sideways"), false},
		{Direction(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.direction), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.direction.IsValid())
		})
	}
}

func TestDirection_Passes(t *testing.T) {
	assert.True(t, DirectionImport.Imports())
	assert.False(t, DirectionImport.Exports())
	assert.False(t, DirectionExport.Imports())
	assert.True(t, DirectionExport.Exports())
	assert.True(t, DirectionBoth.Imports())
	assert.True(t, DirectionBoth.Exports())
}

func TestNewSyncConfiguration(t *testing.T) {
	t.Run("creates active configuration", func(t *testing.T) {
		userID := uuid.New()
		config, err := NewSyncConfiguration(userID, PlatformMobile, DirectionBoth, 3600)
		require.NoError(t, err)

		assert.Equal(t, userID, config.UserID)
		assert.Equal(t, PlatformMobile, config.Platform)
		assert.Equal(t, DirectionBoth, config.Direction)
		assert.Equal(t, 3600, config.SyncIntervalSeconds)
		assert.True(t, config.IsActive)
		assert.Nil(t, config.LastSyncAt)
	})

	t.Run("rejects nil user", func(t *testing.T) {
		_, err := NewSyncConfiguration(uuid.Nil, PlatformMobile, DirectionImport, 60)
		assert.Error(t, err)
	})

	t.Run("rejects invalid platform", func(t *testing.T) {
		_, err := NewSyncConfiguration(uuid.New(), PlatformCode("BAD"), DirectionImport, 60)
		assert.ErrorIs(t, err, ErrPlatformNotSupported)
	})

	t.Run("rejects invalid direction", func(t *testing.T) {
		_, err := NewSyncConfiguration(uuid.New(), PlatformMobile, Direction("bad"), 60)
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		_, err := NewSyncConfiguration(uuid.New(), PlatformMobile, DirectionImport, 0)
		assert.ErrorIs(t, err, ErrInvalidInterval)
	})
}

func TestSyncConfiguration_MarkSynced(t *testing.T) {
	config, err := NewSyncConfiguration(uuid.New(), PlatformDirectory, DirectionImport, 60)
	require.NoError(t, err)

	at := time.Now()
	config.MarkSynced(at)

	require.NotNil(t, config.LastSyncAt)
	assert.True(t, config.LastSyncAt.Equal(at))
}

func TestSyncConfiguration_ActivateDeactivate(t *testing.T) {
	config, err := NewSyncConfiguration(uuid.New(), PlatformDirectory, DirectionImport, 60)
	require.NoError(t, err)

	assert.Error(t, config.Activate()) // already active
	require.NoError(t, config.Deactivate())
	assert.False(t, config.IsActive)
	assert.Error(t, config.Deactivate()) // already inactive
	require.NoError(t, config.Activate())
	assert.True(t, config.IsActive)
}

func TestSyncConfiguration_SetSettings(t *testing.T) {
	config, err := NewSyncConfiguration(uuid.New(), PlatformSalesforce, DirectionImport, 60)
	require.NoError(t, err)

	require.NoError(t, config.SetSettings(`{"instance_url":"https://example.my.salesforce.com"}`))
	assert.NotEmpty(t, config.Settings)

	assert.Error(t, config.SetSettings("not json"))
	require.NoError(t, config.SetSettings(""))
	assert.Empty(t, config.Settings)
}

func TestSyncConfiguration_Due(t *testing.T) {
	config, err := NewSyncConfiguration(uuid.New(), PlatformMobile, DirectionImport, 3600)
	require.NoError(t, err)
	now := time.Now()

	t.Run("due when never synced", func(t *testing.T) {
		assert.True(t, config.Due(now))
	})

	t.Run("not due right after a sync", func(t *testing.T) {
		config.MarkSynced(now)
		assert.False(t, config.Due(now.Add(time.Minute)))
	})

	t.Run("due once the interval elapsed", func(t *testing.T) {
		assert.True(t, config.Due(now.Add(2*time.Hour)))
	})

	t.Run("never due when inactive", func(t *testing.T) {
		require.NoError(t, config.Deactivate())
		assert.False(t, config.Due(now.Add(24*time.Hour)))
	})
}

func TestSyncConfiguration_UpdateDirectionAndInterval(t *testing.T) {
	config, err := NewSyncConfiguration(uuid.New(), PlatformGoogle, DirectionImport, 60)
	require.NoError(t, err)

	require.NoError(t, config.UpdateDirection(DirectionBoth))
	assert.Equal(t, DirectionBoth, config.Direction)
	assert.ErrorIs(t, config.UpdateDirection(Direction("bad")), ErrInvalidDirection)

	require.NoError(t, config.UpdateInterval(7200))
	assert.Equal(t, 7200, config.SyncIntervalSeconds)
	assert.Equal(t, 2*time.Hour, config.Interval())
	assert.ErrorIs(t, config.UpdateInterval(-1), ErrInvalidInterval)
}
