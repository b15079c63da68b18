package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/validation"

	"github.com/google/uuid"
)

type CreatePropertyUseCase struct {
	repo        port.PropertyRepositoryPort
	uploader    *ImageUploadCoordinator
	compensator port.CompensatorPort
	validator   *validation.Validator
	events      port.PropertyEventsPort
}

func NewCreatePropertyUseCase(
	repo port.PropertyRepositoryPort,
	uploader *ImageUploadCoordinator,
	compensator port.CompensatorPort,
	validator *validation.Validator,
	events port.PropertyEventsPort,
) *CreatePropertyUseCase {
	return &CreatePropertyUseCase{
		repo:        repo,
		uploader:    uploader,
		compensator: compensator,
		validator:   validator,
		events:      events,
	}
}

// Execute: валидация -> загрузка изображений -> проверка владельца -> запись.
// Запись появляется только после успешной загрузки всех изображений.
func (uc *CreatePropertyUseCase) Execute(ctx context.Context, input domain.CreatePropertyInput) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "CreateProperty",
		"owner_id": input.OwnerID.String(),
		"images":   len(input.Images),
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.validator.ValidateCreate(input); err != nil {
		ucLogger.Warn("Input rejected", port.Fields{"error": err.Error()})
		return nil, err
	}

	property := newPropertyFromInput(input)
	ucLogger = ucLogger.WithFields(port.Fields{"property_id": property.ID.String()})

	uploaded := []domain.StoredObject{}
	if len(input.Images) > 0 {
		batch, err := uc.uploader.Upload(ctx, property.ID, input.Images, nil)
		if err != nil {
			ucLogger.Error("Image upload failed, record not written", err, nil)
			return nil, err
		}
		property.Images = batch.Images
		uploaded = batch.Uploaded
	}

	exists, err := uc.repo.OwnerExists(ctx, input.OwnerID)
	if err != nil {
		uc.rollback(ctx, property.ID, domain.ReasonRecordWriteFailed, uploaded)
		ucLogger.Error("Owner lookup failed", err, nil)
		return nil, storeFailure("owner lookup", err)
	}
	if !exists {
		uc.rollback(ctx, property.ID, domain.ReasonOwnerNotFound, uploaded)
		ucLogger.Warn("Owner not found", nil)
		return nil, domain.ErrOwnerNotFound
	}

	if err := uc.repo.Insert(ctx, property); err != nil {
		uc.rollback(ctx, property.ID, domain.ReasonRecordWriteFailed, uploaded)
		ucLogger.Error("Failed to insert property", err, nil)
		return nil, storeFailure("insert property", err)
	}

	publishEvent(ctx, uc.events, ucLogger, domain.EventPropertyCreated, &property)

	ucLogger.Info("Use case finished successfully", nil)
	return &property, nil
}

func (uc *CreatePropertyUseCase) rollback(ctx context.Context, id uuid.UUID, reason domain.CompensationReason, uploaded []domain.StoredObject) {
	if len(uploaded) == 0 {
		return
	}
	uc.compensator.Compensate(ctx, domain.Compensation{Reason: reason, PropertyID: id, Objects: uploaded})
}

func newPropertyFromInput(input domain.CreatePropertyInput) domain.Property {
	now := nowUTC()
	status := input.Status
	if status == "" {
		status = domain.StatusAvailable
	}

	p := domain.Property{
		ID:                 uuid.New(),
		Title:              input.Title,
		Description:        input.Description,
		Price:              input.Price,
		Address:            input.Address,
		City:               input.City,
		Country:            input.Country,
		Latitude:           input.Latitude,
		Longitude:          input.Longitude,
		Amenities:          append([]string{}, input.Amenities...),
		Images:             []domain.Image{},
		Bedrooms:           input.Bedrooms,
		Bathrooms:          input.Bathrooms,
		MaxGuests:          input.MaxGuests,
		OwnerID:            input.OwnerID,
		Status:             status,
		Availability:       append([]domain.AvailabilityRange{}, input.Availability...),
		SecurityDeposit:    input.SecurityDeposit,
		CancellationPolicy: input.CancellationPolicy.ToDomain(),
		PropertyToken:      input.PropertyToken,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	p.RefreshGeohash()
	return p
}
