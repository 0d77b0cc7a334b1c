package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/membercard/backend/internal/domain/sync"
	"github.com/membercard/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const defaultRecentLimit = 20

// GormSyncLogRepository implements sync.LogRecorder using GORM. The job run
// log is append-only: rows are inserted once and never updated.
type GormSyncLogRepository struct {
	db *gorm.DB
}

// NewGormSyncLogRepository creates a new GormSyncLogRepository
func NewGormSyncLogRepository(db *gorm.DB) *GormSyncLogRepository {
	return &GormSyncLogRepository{db: db}
}

// Append stores a finalized run
func (r *GormSyncLogRepository) Append(ctx context.Context, run *sync.SyncJobRun) error {
	model := models.SyncJobRunModelFromDomain(run)
	return r.db.WithContext(ctx).Create(model).Error
}

// Recent returns up to limit runs for a configuration, most recent first
func (r *GormSyncLogRepository) Recent(ctx context.Context, configID uuid.UUID, limit int) ([]sync.SyncJobRun, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	var runModels []models.SyncJobRunModel
	if err := r.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("started_at DESC").
		Limit(limit).
		Find(&runModels).Error; err != nil {
		return nil, err
	}

	runs := make([]sync.SyncJobRun, len(runModels))
	for i, model := range runModels {
		runs[i] = *model.ToDomain()
	}
	return runs, nil
}

// Ensure GormSyncLogRepository implements sync.LogRecorder
var _ sync.LogRecorder = (*GormSyncLogRepository)(nil)
