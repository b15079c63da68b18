package port

import (
	"context"
	"listing-service/internal/core/domain"
)

type PropertyEventsPort interface {
	Publish(ctx context.Context, event domain.PropertyEvent) error
}
