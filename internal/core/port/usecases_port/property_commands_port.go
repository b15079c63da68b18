package usecases_port

import (
	"context"
	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

type CreatePropertyUseCase interface {
	Execute(ctx context.Context, input domain.CreatePropertyInput) (*domain.Property, error)
}

type UpdatePropertyUseCase interface {
	Execute(ctx context.Context, id uuid.UUID, input domain.UpdatePropertyInput) (*domain.Property, error)
}

type DeletePropertyUseCase interface {
	Execute(ctx context.Context, id uuid.UUID) error
}

type UpdateAvailabilityUseCase interface {
	Execute(ctx context.Context, id uuid.UUID, ranges []domain.AvailabilityRange) (*domain.Property, error)
}

type UpdateStatusUseCase interface {
	Execute(ctx context.Context, id uuid.UUID, status domain.PropertyStatus) (*domain.Property, error)
}

type RemoveOwnerPropertiesUseCase interface {
	Execute(ctx context.Context, ownerID uuid.UUID) (int, error)
}
