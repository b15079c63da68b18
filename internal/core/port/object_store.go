package port

import (
	"context"
	"listing-service/internal/core/domain"
)

// ObjectStorePort - хранилище изображений.
// Сервис работает только с ключами, разбор URL остается внутри адаптера.
type ObjectStorePort interface {
	// Upload загружает источник под префиксом и возвращает ключ и публичный URL.
	Upload(ctx context.Context, prefix string, source domain.ImageSource) (domain.StoredObject, error)
	// Delete удаляет объект по ключу. Отсутствующий объект не считается ошибкой.
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) ([]domain.StoredObject, error)
	// Recognize сообщает, принадлежит ли URL этому хранилищу, и восстанавливает ключ.
	Recognize(url string) (domain.StoredObject, bool)
}
