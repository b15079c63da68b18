package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

type GetPropertyByIDUseCase struct {
	repo  port.PropertyRepositoryPort
	cache port.PropertyCachePort
}

func NewGetPropertyByIDUseCase(repo port.PropertyRepositoryPort, cache port.PropertyCachePort) *GetPropertyByIDUseCase {
	return &GetPropertyByIDUseCase{repo: repo, cache: cache}
}

func (uc *GetPropertyByIDUseCase) Execute(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case":    "GetPropertyByID",
		"property_id": id.String(),
	})

	if uc.cache != nil {
		if cached, ok := uc.cache.Get(ctx, id); ok {
			ucLogger.Debug("Cache hit", nil)
			return cached, nil
		}
	}

	property, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		ucLogger.Warn("Property lookup failed", port.Fields{"error": err.Error()})
		return nil, storeFailure("load property", err)
	}

	if uc.cache != nil {
		uc.cache.Set(ctx, property)
	}
	ucLogger.Debug("Property loaded from repository", nil)
	return property, nil
}
