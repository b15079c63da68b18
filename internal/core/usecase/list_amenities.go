package usecase

import (
	"context"

	"listing-service/internal/core/domain"
)

type ListAmenitiesUseCase struct {
	catalog domain.AmenityCatalog
}

func NewListAmenitiesUseCase(catalog domain.AmenityCatalog) *ListAmenitiesUseCase {
	return &ListAmenitiesUseCase{catalog: catalog}
}

func (uc *ListAmenitiesUseCase) Execute(ctx context.Context) (string, []domain.AmenityItem) {
	return uc.catalog.Version(), uc.catalog.Items()
}
