package usecase

import (
	"context"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	"listing-service/internal/core/validation"
)

type SearchPropertiesUseCase struct {
	repo      port.PropertyRepositoryPort
	validator *validation.Validator
}

func NewSearchPropertiesUseCase(repo port.PropertyRepositoryPort, validator *validation.Validator) *SearchPropertiesUseCase {
	return &SearchPropertiesUseCase{repo: repo, validator: validator}
}

func (uc *SearchPropertiesUseCase) Execute(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, error) {
	query = query.WithDefaults()
	// Фильтр по владельцу доступен только через отдельный сценарий
	query.Filters.OwnerID = nil

	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SearchProperties",
		"filters":  query.Filters,
		"page":     query.Pagination.Page,
		"limit":    query.Pagination.Limit,
		"sort_by":  string(query.Sort.By),
	})
	ucLogger.Info("Use case started", nil)

	if err := uc.validator.ValidateQuery(query); err != nil {
		ucLogger.Warn("Query rejected", port.Fields{"error": err.Error()})
		return nil, err
	}

	page, err := uc.repo.Query(ctx, query)
	if err != nil {
		ucLogger.Error("Storage returned an error", err, nil)
		return nil, storeFailure("query properties", err)
	}

	ucLogger.Info("Use case finished successfully", port.Fields{
		"total_found":   page.Total,
		"items_on_page": len(page.Properties),
	})
	return page, nil
}
