package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/membercard/backend/internal/domain/contact"
	"github.com/membercard/backend/internal/domain/shared"
	"github.com/membercard/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormContactRepository implements contact.Repository using GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository creates a new GormContactRepository
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// FindByID finds a contact by its ID
func (r *GormContactRepository) FindByID(ctx context.Context, id uuid.UUID) (*contact.ContactRecord, error) {
	var model models.ContactRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists contacts owned by a user
func (r *GormContactRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]contact.ContactRecord, error) {
	var recordModels []models.ContactRecordModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ContactRecordModel{}).Where("user_id = ?", userID),
		filter,
	)

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]contact.ContactRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// FindByKeys returns every contact owned by userID whose normalized email or
// phone keys intersect the given key sets. The lookup goes through the
// contact_keys table, which is rebuilt on every save.
func (r *GormContactRepository) FindByKeys(ctx context.Context, userID uuid.UUID, emailKeys, phoneKeys []string) ([]contact.ContactRecord, error) {
	if len(emailKeys) == 0 && len(phoneKeys) == 0 {
		return []contact.ContactRecord{}, nil
	}

	keyQuery := r.db.Model(&models.ContactKeyModel{}).
		Select("contact_id").
		Where("user_id = ?", userID)
	switch {
	case len(emailKeys) > 0 && len(phoneKeys) > 0:
		keyQuery = keyQuery.Where("(kind = ? AND key_value IN ?) OR (kind = ? AND key_value IN ?)",
			models.ContactKeyKindEmail, emailKeys, models.ContactKeyKindPhone, phoneKeys)
	case len(emailKeys) > 0:
		keyQuery = keyQuery.Where("kind = ? AND key_value IN ?", models.ContactKeyKindEmail, emailKeys)
	default:
		keyQuery = keyQuery.Where("kind = ? AND key_value IN ?", models.ContactKeyKindPhone, phoneKeys)
	}

	var recordModels []models.ContactRecordModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN (?)", userID, keyQuery).
		Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]contact.ContactRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// Save creates or updates a contact and rebuilds its normalized key rows
// within a single transaction.
func (r *GormContactRepository) Save(ctx context.Context, record *contact.ContactRecord) error {
	model := models.ContactRecordModelFromDomain(record)
	keys := models.ContactKeyModelsFromDomain(record)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ContactKeyModel{}, "contact_id = ?", record.ID).Error; err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		return tx.Create(&keys).Error
	})
}

// CountByUser counts contacts owned by a user
func (r *GormContactRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ContactRecordModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies pagination and ordering to the query
func (r *GormContactRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, ContactSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.Order(orderBy + " " + orderDir)
}

// Ensure GormContactRepository implements contact.Repository
var _ contact.Repository = (*GormContactRepository)(nil)
