package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// StoredObject - объект в хранилище изображений
type StoredObject struct {
	Key string
	URL string
}

// ToImage переводит объект хранилища в изображение записи.
func (o StoredObject) ToImage() Image {
	return Image{URL: o.URL, Key: o.Key}
}

// ImageSource - то, что требуется загрузить: inline-данные или внешняя ссылка.
type ImageSource struct {
	Raw string
}

// CompensationReason - причина компенсирующего удаления
type CompensationReason string

const (
	ReasonUploadPartialFailure CompensationReason = "upload_partial_failure"
	ReasonOwnerNotFound        CompensationReason = "owner_not_found"
	ReasonRecordWriteFailed    CompensationReason = "record_write_failed"
	ReasonImagesReplaced       CompensationReason = "images_replaced"
	ReasonPropertyDeleted      CompensationReason = "property_deleted"
)

// Compensation - набор объектов, которые нужно удалить без повторных попыток.
type Compensation struct {
	Reason     CompensationReason
	PropertyID uuid.UUID
	Objects    []StoredObject
}

// PropertyPrefix - общий префикс всех объектов одного объявления
func PropertyPrefix(root string, propertyID uuid.UUID) string {
	if root == "" {
		return fmt.Sprintf("%s/", propertyID)
	}
	return fmt.Sprintf("%s/%s/", root, propertyID)
}
