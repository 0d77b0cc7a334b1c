package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/membercard/backend/internal/domain/sync"
	"github.com/membercard/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSyncConfigRepository implements sync.ConfigRepository using GORM
type GormSyncConfigRepository struct {
	db *gorm.DB
}

// NewGormSyncConfigRepository creates a new GormSyncConfigRepository
func NewGormSyncConfigRepository(db *gorm.DB) *GormSyncConfigRepository {
	return &GormSyncConfigRepository{db: db}
}

// FindByID finds a configuration by its ID
func (r *GormSyncConfigRepository) FindByID(ctx context.Context, id uuid.UUID) (*sync.SyncConfiguration, error) {
	var model models.SyncConfigurationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrConfigNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByUserAndPlatform finds the single active configuration for a
// (user, platform) pair
func (r *GormSyncConfigRepository) FindActiveByUserAndPlatform(ctx context.Context, userID uuid.UUID, platform sync.PlatformCode) (*sync.SyncConfiguration, error) {
	var model models.SyncConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND is_active = ?", userID, platform, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sync.ErrConfigNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists all configurations owned by a user
func (r *GormSyncConfigRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]sync.SyncConfiguration, error) {
	var configModels []models.SyncConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]sync.SyncConfiguration, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// FindAllActive lists every active configuration
func (r *GormSyncConfigRepository) FindAllActive(ctx context.Context) ([]sync.SyncConfiguration, error) {
	var configModels []models.SyncConfigurationModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]sync.SyncConfiguration, len(configModels))
	for i, model := range configModels {
		configs[i] = *model.ToDomain()
	}
	return configs, nil
}

// Save creates or updates a configuration
func (r *GormSyncConfigRepository) Save(ctx context.Context, config *sync.SyncConfiguration) error {
	model := models.SyncConfigurationModelFromDomain(config)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormSyncConfigRepository implements sync.ConfigRepository
var _ sync.ConfigRepository = (*GormSyncConfigRepository)(nil)
