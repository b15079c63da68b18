package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

type GetPropertyByIDUseCase interface {
	Execute(ctx context.Context, id uuid.UUID) (*domain.Property, error)
}

type SearchPropertiesUseCase interface {
	Execute(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, error)
}

type GetPropertiesByOwnerUseCase interface {
	Execute(ctx context.Context, ownerID uuid.UUID, pagination domain.Pagination, sort domain.Sort) (*domain.PropertyPage, error)
}

type ListAmenitiesUseCase interface {
	Execute(ctx context.Context) (version string, items []domain.AmenityItem)
}
