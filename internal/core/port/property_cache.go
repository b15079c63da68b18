package port

import (
	"context"
	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// PropertyCachePort - кэш карточек объявлений для чтения по id
type PropertyCachePort interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Property, bool)
	Set(ctx context.Context, property *domain.Property)
	Invalidate(ctx context.Context, id uuid.UUID)
}
