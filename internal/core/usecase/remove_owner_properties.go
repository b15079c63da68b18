package usecase

import (
	"context"
	"errors"
	"fmt"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	usecases_port "listing-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

// RemoveOwnerPropertiesUseCase удаляет все объявления владельца,
// когда сервис пользователей сообщает об удалении учетной записи.
type RemoveOwnerPropertiesUseCase struct {
	repo   port.PropertyRepositoryPort
	delete usecases_port.DeletePropertyUseCase
}

func NewRemoveOwnerPropertiesUseCase(repo port.PropertyRepositoryPort, deleteUC usecases_port.DeletePropertyUseCase) *RemoveOwnerPropertiesUseCase {
	return &RemoveOwnerPropertiesUseCase{repo: repo, delete: deleteUC}
}

// Execute возвращает число удаленных объявлений. Каждая запись удаляется
// обычным сценарием удаления, поэтому изображения и события обрабатываются так же.
func (uc *RemoveOwnerPropertiesUseCase) Execute(ctx context.Context, ownerID uuid.UUID) (int, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "RemoveOwnerProperties",
		"owner_id": ownerID.String(),
	})
	ucLogger.Info("Use case started", nil)

	// после удаления первая страница сдвигается, поэтому всегда читаем ее
	query := domain.PropertyQuery{
		Filters:    domain.SearchFilters{OwnerID: &ownerID},
		Pagination: domain.Pagination{Page: 1, Limit: domain.MaxLimit},
		Sort:       domain.Sort{By: domain.SortByCreatedAt, Order: domain.SortAsc},
	}

	removed := 0
	for {
		page, err := uc.repo.Query(ctx, query)
		if err != nil {
			ucLogger.Error("Failed to load owner properties", err, port.Fields{"removed": removed})
			return removed, storeFailure("query owner properties", err)
		}
		if len(page.Properties) == 0 {
			break
		}

		progressed := false
		for _, p := range page.Properties {
			err := uc.delete.Execute(ctx, p.ID)
			switch {
			case err == nil:
				removed++
				progressed = true
			case errors.Is(err, domain.ErrPropertyNotFound):
				// удалено параллельно
				progressed = true
			default:
				ucLogger.Error("Failed to delete owner property", err, port.Fields{"property_id": p.ID.String()})
			}
		}
		if !progressed {
			return removed, fmt.Errorf("no owner properties could be deleted: %w", domain.ErrStoreFailure)
		}
	}

	ucLogger.Info("Use case finished successfully", port.Fields{"removed": removed})
	return removed, nil
}
