package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

type UpdateStatusUseCase struct {
	update usecases_port.UpdatePropertyUseCase
}

func NewUpdateStatusUseCase(update usecases_port.UpdatePropertyUseCase) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{update: update}
}

func (uc *UpdateStatusUseCase) Execute(ctx context.Context, id uuid.UUID, status domain.PropertyStatus) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	logger.WithFields(port.Fields{
		"use_case":    "UpdateStatus",
		"property_id": id.String(),
		"status":      string(status),
	}).Info("Use case started", nil)

	if !status.Valid() {
		return nil, domain.NewValidationError(domain.FieldError{
			Field:   "status",
			Message: "must be one of: available booked maintenance",
		})
	}
	return uc.update.Execute(ctx, id, domain.UpdatePropertyInput{Status: &status})
}
