package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/validation"

	"github.com/google/uuid"
)

// GetPropertiesByOwnerUseCase - тот же поиск, но только по владельцу и без публичных фильтров.
type GetPropertiesByOwnerUseCase struct {
	repo      port.PropertyRepositoryPort
	validator *validation.Validator
}

func NewGetPropertiesByOwnerUseCase(repo port.PropertyRepositoryPort, validator *validation.Validator) *GetPropertiesByOwnerUseCase {
	return &GetPropertiesByOwnerUseCase{repo: repo, validator: validator}
}

func (uc *GetPropertiesByOwnerUseCase) Execute(ctx context.Context, ownerID uuid.UUID, pagination domain.Pagination, sort domain.Sort) (*domain.PropertyPage, error) {
	query := domain.PropertyQuery{
		Filters:    domain.SearchFilters{OwnerID: &ownerID},
		Pagination: pagination,
		Sort:       sort,
	}.WithDefaults()

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "GetPropertiesByOwner",
		"owner_id": ownerID.String(),
		"page":     query.Pagination.Page,
		"limit":    query.Pagination.Limit,
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.validator.ValidateQuery(query); err != nil {
		return nil, err
	}

	page, err := uc.repo.Query(ctx, query)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, storeFailure("query owner properties", err)
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"total_found": page.Total})
	return page, nil
}
