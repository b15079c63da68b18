package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

type DeletePropertyUseCase struct {
	repo        port.PropertyRepositoryPort
	store       port.ObjectStorePort
	uploader    *ImageUploadCoordinator
	compensator port.CompensatorPort
	cache       port.PropertyCachePort
	events      port.PropertyEventsPort
}

func NewDeletePropertyUseCase(
	repo port.PropertyRepositoryPort,
	store port.ObjectStorePort,
	uploader *ImageUploadCoordinator,
	compensator port.CompensatorPort,
	cache port.PropertyCachePort,
	events port.PropertyEventsPort,
) *DeletePropertyUseCase {
	return &DeletePropertyUseCase{
		repo:        repo,
		store:       store,
		uploader:    uploader,
		compensator: compensator,
		cache:       cache,
		events:      events,
	}
}

// Execute удаляет запись, затем все ее изображения.
// Успех определяется удалением записи, сбои удаления изображений только логируются.
func (uc *DeletePropertyUseCase) Execute(ctx context.Context, id uuid.UUID) error {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "DeleteProperty",
		"property_id": id.String(),
	})
	ucLogger.Info("Use case started", nil)

	existing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		ucLogger.Error("Failed to load property", err, nil)
		return storeFailure("load property", err)
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		ucLogger.Error("Failed to delete property", err, nil)
		return storeFailure("delete property", err)
	}
	invalidateCache(ctx, uc.cache, id)

	objects := uc.collectObjects(ctx, ucLogger, existing)
	uc.compensator.Compensate(ctx, domain.Compensation{
		Reason:     domain.ReasonPropertyDeleted,
		PropertyID: id,
		Objects:    objects,
	})

	publishEvent(ctx, uc.events, ucLogger, domain.EventPropertyDeleted, existing)

	ucLogger.Info("Use case finished successfully", port.Fields{"images_scheduled": len(objects)})
	return nil
}

// collectObjects объединяет изображения записи с объектами под префиксом объявления,
// чтобы убрать и то, что осталось после прерванных загрузок.
func (uc *DeletePropertyUseCase) collectObjects(ctx context.Context, logger port.LoggerPort, p *domain.Property) []domain.StoredObject {
	seen := make(map[string]struct{}, len(p.Images))
	objects := make([]domain.StoredObject, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Key == "" {
			continue
		}
		seen[img.Key] = struct{}{}
		objects = append(objects, domain.StoredObject{Key: img.Key, URL: img.URL})
	}

	strays, err := uc.store.ListByPrefix(ctx, uc.uploader.Prefix(p.ID))
	if err != nil {
		logger.Warn("Failed to list objects by prefix", port.Fields{"error": err.Error()})
		return objects
	}
	for _, obj := range strays {
		if _, ok := seen[obj.Key]; ok {
			continue
		}
		seen[obj.Key] = struct{}{}
		objects = append(objects, obj)
	}
	return objects
}
