package constants

const (
	// События объявлений, которые публикует сервис
	PropertyEventsExchange     = "property_events"
	PropertyEventsExchangeType = "topic"

	// События сервиса пользователей, которые сервис слушает
	UserEventsExchange     = "user_events"
	UserEventsExchangeType = "topic"
	RoutingKeyUserDeleted  = "user.deleted"
	UserDeletedQueue       = "listing-service.user-deleted"
	UserDeletedDLX         = "listing-service.dlx"
)
