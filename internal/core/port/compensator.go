package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// CompensatorPort выполняет компенсирующие удаления объектов.
// Вызов не блокирует сценарий и никогда не возвращает ошибку: сбои только логируются.
type CompensatorPort interface {
	Compensate(ctx context.Context, c domain.Compensation)
}
