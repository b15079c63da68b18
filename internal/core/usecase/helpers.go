package usecase

import (
	"context"
	"errors"
	"time"

	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/google/uuid"
)

// publishEvent не влияет на результат сценария: запись уже сохранена.
func publishEvent(ctx context.Context, events port.PropertyEventsPort, logger port.LoggerPort, eventType domain.PropertyEventType, p *domain.Property) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, domain.NewPropertyEvent(eventType, p)); err != nil {
		logger.Warn("Failed to publish property event", port.Fields{"event_type": string(eventType), "error": err.Error()})
	}
}

func invalidateCache(ctx context.Context, cache port.PropertyCachePort, id uuid.UUID) {
	if cache != nil {
		cache.Invalidate(ctx, id)
	}
}

// storeFailure оборачивает неклассифицированную ошибку хранилища в *domain.StoreError.
// Доменные ошибки (например, ErrPropertyNotFound) проходят без изменений.
func storeFailure(op string, err error) error {
	if domain.KindOf(err) != domain.KindStoreFailure {
		return err
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return domain.NewStoreError(op, err)
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
