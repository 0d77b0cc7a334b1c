package contact

import (
	"context"

	"github.com/google/uuid"

	"github.com/membercard/backend/internal/domain/shared"
)

// Repository defines the persistence port for contact records.
// Implementations live in the infrastructure layer.
type Repository interface {
	// FindByID finds a contact by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ContactRecord, error)

	// FindByUser lists contacts owned by a user
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]ContactRecord, error)

	// FindByKeys returns every contact owned by userID whose email set
	// contains one of emailKeys or whose phone set contains one of
	// phoneKeys. Keys are expected in normalized form.
	FindByKeys(ctx context.Context, userID uuid.UUID, emailKeys, phoneKeys []string) ([]ContactRecord, error)

	// Save creates or updates a contact
	Save(ctx context.Context, record *ContactRecord) error

	// CountByUser counts contacts owned by a user
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}
