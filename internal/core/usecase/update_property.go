package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/validation"

	"github.com/google/uuid"
)

type UpdatePropertyUseCase struct {
	repo        port.PropertyRepositoryPort
	uploader    *ImageUploadCoordinator
	compensator port.CompensatorPort
	validator   *validation.Validator
	cache       port.PropertyCachePort
	events      port.PropertyEventsPort
}

func NewUpdatePropertyUseCase(
	repo port.PropertyRepositoryPort,
	uploader *ImageUploadCoordinator,
	compensator port.CompensatorPort,
	validator *validation.Validator,
	cache port.PropertyCachePort,
	events port.PropertyEventsPort,
) *UpdatePropertyUseCase {
	return &UpdatePropertyUseCase{
		repo:        repo,
		uploader:    uploader,
		compensator: compensator,
		validator:   validator,
		cache:       cache,
		events:      events,
	}
}

// Execute применяет частичное обновление.
// Изображения, исчезнувшие из записи, удаляются только после успешной записи,
// чтобы сохраненная запись никогда не ссылалась на удаленный объект.
func (uc *UpdatePropertyUseCase) Execute(ctx context.Context, id uuid.UUID, input domain.UpdatePropertyInput) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "UpdateProperty",
		"property_id": id.String(),
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.validator.ValidatePatch(input); err != nil {
		ucLogger.Warn("Patch rejected", port.Fields{"error": err.Error()})
		return nil, err
	}

	existing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		ucLogger.Error("Failed to load property", err, nil)
		return nil, storeFailure("load property", err)
	}

	updated := existing.Clone()
	uploaded := []domain.StoredObject{}
	if input.Images != nil {
		batch, err := uc.uploader.Upload(ctx, id, *input.Images, existing.Images)
		if err != nil {
			ucLogger.Error("Image upload failed, record left unchanged", err, nil)
			return nil, err
		}
		updated.Images = batch.Images
		uploaded = batch.Uploaded
	}

	input.Apply(&updated)
	updated.UpdatedAt = nowUTC()

	if err := uc.repo.Update(ctx, updated); err != nil {
		if len(uploaded) > 0 {
			uc.compensator.Compensate(ctx, domain.Compensation{
				Reason:     domain.ReasonRecordWriteFailed,
				PropertyID: id,
				Objects:    uploaded,
			})
		}
		ucLogger.Error("Failed to update property", err, nil)
		return nil, storeFailure("update property", err)
	}

	if input.Images != nil {
		if orphans := orphanedImages(existing.Images, updated.Images); len(orphans) > 0 {
			ucLogger.Info("Removing replaced images", port.Fields{"count": len(orphans)})
			uc.compensator.Compensate(ctx, domain.Compensation{
				Reason:     domain.ReasonImagesReplaced,
				PropertyID: id,
				Objects:    orphans,
			})
		}
	}

	invalidateCache(ctx, uc.cache, id)
	publishEvent(ctx, uc.events, ucLogger, domain.EventPropertyUpdated, &updated)

	ucLogger.Info("Use case finished successfully", port.Fields{"new_images": len(uploaded)})
	return &updated, nil
}

// orphanedImages - размещенные у нас изображения старой записи, которых нет в новой.
func orphanedImages(before, after []domain.Image) []domain.StoredObject {
	kept := make(map[string]struct{}, len(after))
	for _, img := range after {
		kept[img.Key] = struct{}{}
	}
	orphans := make([]domain.StoredObject, 0)
	for _, img := range before {
		if img.Key == "" {
			continue
		}
		if _, ok := kept[img.Key]; ok {
			continue
		}
		orphans = append(orphans, domain.StoredObject{Key: img.Key, URL: img.URL})
	}
	return orphans
}
