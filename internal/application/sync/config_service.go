package sync

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/membercard/backend/internal/domain/shared"
	"github.com/membercard/backend/internal/domain/sync"
)

// SyncConfigService manages the lifecycle of sync configurations: setup,
// edits, soft-deactivation. It enforces the one-active-configuration rule per
// (user, platform) pair.
type SyncConfigService struct {
	configs sync.ConfigRepository
	// mobileBaseURL is the externally reachable base used to derive mobile
	// discovery addresses
	mobileBaseURL string
	// endpointSecret keys the discovery address derivation
	endpointSecret []byte
	logger         *zap.Logger
}

// NewSyncConfigService creates a new SyncConfigService
func NewSyncConfigService(configs sync.ConfigRepository, mobileBaseURL, endpointSecret string, logger *zap.Logger) *SyncConfigService {
	return &SyncConfigService{
		configs:        configs,
		mobileBaseURL:  mobileBaseURL,
		endpointSecret: []byte(endpointSecret),
		logger:         logger,
	}
}

// Setup creates an active configuration for the user and platform. Mobile
// configurations get their discovery endpoint derived and stored at creation.
func (s *SyncConfigService) Setup(ctx context.Context, userID uuid.UUID, req CreateSyncConfigurationRequest) (*SyncConfigurationResponse, error) {
	if !req.Platform.IsValid() {
		return nil, sync.ErrPlatformNotSupported
	}

	existing, err := s.configs.FindActiveByUserAndPlatform(ctx, userID, req.Platform)
	if err != nil && !errors.Is(err, sync.ErrConfigNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, sync.ErrConfigDuplicate
	}

	config, err := sync.NewSyncConfiguration(userID, req.Platform, req.Direction, req.SyncIntervalSeconds)
	if err != nil {
		return nil, err
	}
	if req.Settings != "" {
		if err := config.SetSettings(req.Settings); err != nil {
			return nil, err
		}
	}
	if req.Platform == sync.PlatformMobile {
		config.AssignEndpoint(sync.MobileEndpointAddress(userID, s.mobileBaseURL, s.endpointSecret))
	}

	if err := s.configs.Save(ctx, config); err != nil {
		return nil, err
	}

	s.logger.Info("sync configuration created",
		zap.String("config_id", config.ID.String()),
		zap.String("platform", config.Platform.String()),
		zap.String("direction", config.Direction.String()),
	)

	response := ToSyncConfigurationResponse(config)
	return &response, nil
}

// Get returns one configuration owned by the user
func (s *SyncConfigService) Get(ctx context.Context, userID, configID uuid.UUID) (*SyncConfigurationResponse, error) {
	config, err := s.owned(ctx, userID, configID)
	if err != nil {
		return nil, err
	}
	response := ToSyncConfigurationResponse(config)
	return &response, nil
}

// List returns all configurations owned by the user
func (s *SyncConfigService) List(ctx context.Context, userID uuid.UUID) ([]SyncConfigurationResponse, error) {
	configs, err := s.configs.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	responses := make([]SyncConfigurationResponse, 0, len(configs))
	for i := range configs {
		responses = append(responses, ToSyncConfigurationResponse(&configs[i]))
	}
	return responses, nil
}

// Update applies a partial edit to a configuration. Re-activation re-checks
// the one-active-per-platform rule, since another configuration may have been
// activated in the meantime.
func (s *SyncConfigService) Update(ctx context.Context, userID, configID uuid.UUID, req UpdateSyncConfigurationRequest) (*SyncConfigurationResponse, error) {
	config, err := s.owned(ctx, userID, configID)
	if err != nil {
		return nil, err
	}

	if req.Direction != nil {
		if err := config.UpdateDirection(*req.Direction); err != nil {
			return nil, err
		}
	}
	if req.SyncIntervalSeconds != nil {
		if err := config.UpdateInterval(*req.SyncIntervalSeconds); err != nil {
			return nil, err
		}
	}
	if req.Settings != nil {
		if err := config.SetSettings(*req.Settings); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil && *req.IsActive != config.IsActive {
		if *req.IsActive {
			active, err := s.configs.FindActiveByUserAndPlatform(ctx, userID, config.Platform)
			if err != nil && !errors.Is(err, sync.ErrConfigNotFound) {
				return nil, err
			}
			if active != nil && active.ID != config.ID {
				return nil, sync.ErrConfigDuplicate
			}
			if err := config.Activate(); err != nil {
				return nil, err
			}
		} else {
			if err := config.Deactivate(); err != nil {
				return nil, err
			}
		}
	}

	if err := s.configs.Save(ctx, config); err != nil {
		return nil, err
	}

	response := ToSyncConfigurationResponse(config)
	return &response, nil
}

// Deactivate soft-deletes a configuration
func (s *SyncConfigService) Deactivate(ctx context.Context, userID, configID uuid.UUID) error {
	config, err := s.owned(ctx, userID, configID)
	if err != nil {
		return err
	}
	if err := config.Deactivate(); err != nil {
		return err
	}
	if err := s.configs.Save(ctx, config); err != nil {
		return err
	}

	s.logger.Info("sync configuration deactivated",
		zap.String("config_id", config.ID.String()),
		zap.String("platform", config.Platform.String()),
	)
	return nil
}

func (s *SyncConfigService) owned(ctx context.Context, userID, configID uuid.UUID) (*sync.SyncConfiguration, error) {
	config, err := s.configs.FindByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	if config.UserID != userID {
		return nil, shared.ErrUnauthorized
	}
	return config, nil
}
