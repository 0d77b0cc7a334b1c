package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/membercard/backend/internal/domain/shared"
	"github.com/membercard/backend/internal/domain/sync"
)

const (
	testMobileBaseURL  = "https://sync.membercard.example"
	testEndpointSecret = "config-service-test-secret"
)

func newConfigService(repo *MockConfigRepository) *SyncConfigService {
	return NewSyncConfigService(repo, testMobileBaseURL, testEndpointSecret, zap.NewNop())
}

func TestSyncConfigService_Setup(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates an active configuration", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		repo.On("FindActiveByUserAndPlatform", ctx, userID, sync.PlatformGoogle).
			Return(nil, sync.ErrConfigNotFound)
		repo.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := svc.Setup(ctx, userID, CreateSyncConfigurationRequest{
			Platform:            sync.PlatformGoogle,
			Direction:           sync.DirectionBoth,
			SyncIntervalSeconds: 3600,
			Settings:            `{"token_ref":"vault:crm/google"}`,
		})

		require.NoError(t, err)
		assert.Equal(t, sync.PlatformGoogle, resp.Platform)
		assert.True(t, resp.IsActive)
		assert.Empty(t, resp.EndpointAddress)
		repo.AssertCalled(t, "Save", ctx, mock.Anything)
	})

	t.Run("mobile setup derives the discovery endpoint", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		repo.On("FindActiveByUserAndPlatform", ctx, userID, sync.PlatformMobile).
			Return(nil, sync.ErrConfigNotFound)
		repo.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := svc.Setup(ctx, userID, CreateSyncConfigurationRequest{
			Platform:            sync.PlatformMobile,
			Direction:           sync.DirectionBoth,
			SyncIntervalSeconds: 900,
		})

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(resp.EndpointAddress, testMobileBaseURL+"/carddav/"))
		assert.Equal(t, sync.MobileEndpointAddress(userID, testMobileBaseURL, []byte(testEndpointSecret)), resp.EndpointAddress)
	})

	t.Run("second active configuration for a platform is rejected", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		existing, err := sync.NewSyncConfiguration(userID, sync.PlatformGoogle, sync.DirectionImport, 3600)
		require.NoError(t, err)
		repo.On("FindActiveByUserAndPlatform", ctx, userID, sync.PlatformGoogle).
			Return(existing, nil)

		_, err = svc.Setup(ctx, userID, CreateSyncConfigurationRequest{
			Platform:            sync.PlatformGoogle,
			Direction:           sync.DirectionImport,
			SyncIntervalSeconds: 3600,
		})

		assert.ErrorIs(t, err, sync.ErrConfigDuplicate)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown platform is rejected", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)

		_, err := svc.Setup(ctx, userID, CreateSyncConfigurationRequest{
			Platform:            sync.PlatformCode("MYSPACE"),
			Direction:           sync.DirectionImport,
			SyncIntervalSeconds: 3600,
		})

		assert.ErrorIs(t, err, sync.ErrPlatformNotSupported)
	})

	t.Run("malformed settings are rejected", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		repo.On("FindActiveByUserAndPlatform", ctx, userID, sync.PlatformDirectory).
			Return(nil, sync.ErrConfigNotFound)

		_, err := svc.Setup(ctx, userID, CreateSyncConfigurationRequest{
			Platform:            sync.PlatformDirectory,
			Direction:           sync.DirectionImport,
			SyncIntervalSeconds: 3600,
			Settings:            "host=ldap.example.com",
		})

		assert.Error(t, err)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestSyncConfigService_Update(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("updates direction and interval", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		config, err := sync.NewSyncConfiguration(userID, sync.PlatformGoogle, sync.DirectionImport, 3600)
		require.NoError(t, err)
		repo.On("FindByID", ctx, config.ID).Return(config, nil)
		repo.On("Save", ctx, config).Return(nil)

		direction := sync.DirectionBoth
		interval := 7200
		resp, err := svc.Update(ctx, userID, config.ID, UpdateSyncConfigurationRequest{
			Direction:           &direction,
			SyncIntervalSeconds: &interval,
		})

		require.NoError(t, err)
		assert.Equal(t, sync.DirectionBoth, resp.Direction)
		assert.Equal(t, 7200, resp.SyncIntervalSeconds)
	})

	t.Run("re-activation checks the single-active rule", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		config, err := sync.NewSyncConfiguration(userID, sync.PlatformGoogle, sync.DirectionImport, 3600)
		require.NoError(t, err)
		require.NoError(t, config.Deactivate())
		rival, err := sync.NewSyncConfiguration(userID, sync.PlatformGoogle, sync.DirectionImport, 3600)
		require.NoError(t, err)

		repo.On("FindByID", ctx, config.ID).Return(config, nil)
		repo.On("FindActiveByUserAndPlatform", ctx, userID, sync.PlatformGoogle).Return(rival, nil)

		active := true
		_, err = svc.Update(ctx, userID, config.ID, UpdateSyncConfigurationRequest{IsActive: &active})

		assert.ErrorIs(t, err, sync.ErrConfigDuplicate)
	})

	t.Run("foreign configuration is rejected", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		config, err := sync.NewSyncConfiguration(uuid.New(), sync.PlatformGoogle, sync.DirectionImport, 3600)
		require.NoError(t, err)
		repo.On("FindByID", ctx, config.ID).Return(config, nil)

		_, err = svc.Update(ctx, userID, config.ID, UpdateSyncConfigurationRequest{})

		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})
}

func TestSyncConfigService_Deactivate(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("soft-deletes the configuration", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		config, err := sync.NewSyncConfiguration(userID, sync.PlatformMobile, sync.DirectionBoth, 900)
		require.NoError(t, err)
		repo.On("FindByID", ctx, config.ID).Return(config, nil)
		repo.On("Save", ctx, config).Return(nil)

		err = svc.Deactivate(ctx, userID, config.ID)

		require.NoError(t, err)
		assert.False(t, config.IsActive)
	})

	t.Run("deactivating twice fails", func(t *testing.T) {
		repo := new(MockConfigRepository)
		svc := newConfigService(repo)
		config, err := sync.NewSyncConfiguration(userID, sync.PlatformMobile, sync.DirectionBoth, 900)
		require.NoError(t, err)
		require.NoError(t, config.Deactivate())
		repo.On("FindByID", ctx, config.ID).Return(config, nil)

		err = svc.Deactivate(ctx, userID, config.ID)

		assert.Error(t, err)
	})
}
