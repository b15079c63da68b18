package port

import (
	"context"
	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// PropertyRepositoryPort - хранилище записей об объявлениях.
// GetByID, Update и Delete возвращают domain.ErrPropertyNotFound для отсутствующей записи,
// любые сбои ввода-вывода оборачиваются в *domain.StoreError.
type PropertyRepositoryPort interface {
	Insert(ctx context.Context, property domain.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
	Update(ctx context.Context, property domain.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
	Query(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, error)
	OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error)
}
