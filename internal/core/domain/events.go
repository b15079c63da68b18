package domain

import (
	"time"

	"github.com/google/uuid"
)

type PropertyEventType string

const (
	EventPropertyCreated PropertyEventType = "property.created"
	EventPropertyUpdated PropertyEventType = "property.updated"
	EventPropertyDeleted PropertyEventType = "property.deleted"
)

// PropertyEvent - уведомление об изменении объявления для соседних сервисов
type PropertyEvent struct {
	Type       PropertyEventType
	PropertyID uuid.UUID
	OwnerID    uuid.UUID
	Status     PropertyStatus
	OccurredAt time.Time
}

func NewPropertyEvent(t PropertyEventType, p *Property) PropertyEvent {
	return PropertyEvent{
		Type:       t,
		PropertyID: p.ID,
		OwnerID:    p.OwnerID,
		Status:     p.Status,
		OccurredAt: time.Now().UTC(),
	}
}
