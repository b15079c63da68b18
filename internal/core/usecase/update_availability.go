package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// UpdateAvailabilityUseCase заменяет весь набор интервалов доступности.
// Набор проверяется заново при каждой записи.
type UpdateAvailabilityUseCase struct {
	update usecases_port.UpdatePropertyUseCase
}

func NewUpdateAvailabilityUseCase(update usecases_port.UpdatePropertyUseCase) *UpdateAvailabilityUseCase {
	return &UpdateAvailabilityUseCase{update: update}
}

func (uc *UpdateAvailabilityUseCase) Execute(ctx context.Context, id uuid.UUID, ranges []domain.AvailabilityRange) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	logger.WithFields(port.Fields{
		"use_case":    "UpdateAvailability",
		"property_id": id.String(),
		"ranges":      len(ranges),
	}).Info("Use case started", nil)

	if ranges == nil {
		ranges = []domain.AvailabilityRange{}
	}
	return uc.update.Execute(ctx, id, domain.UpdatePropertyInput{Availability: &ranges})
}
