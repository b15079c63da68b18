package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind - категория ошибки, по которой транспорт выбирает код ответа.
type ErrorKind string

const (
	KindValidationFailed ErrorKind = "ValidationFailed"
	KindNotFound         ErrorKind = "NotFound"
	KindUploadFailed     ErrorKind = "UploadFailed"
	KindStoreFailure     ErrorKind = "StoreFailure"
	KindPermissionDenied ErrorKind = "PermissionDenied"
)

// Определяем переменные-ошибки, которые могут быть возвращены из Use Cases.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrPropertyNotFound = errors.New("property not found")
	ErrOwnerNotFound    = errors.New("owner not found")
	ErrUploadFailed     = errors.New("image upload failed")
	ErrStoreFailure     = errors.New("store failure")
	ErrPermissionDenied = errors.New("permission denied")
)

// FieldError - одна ошибка конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError перечисляет все найденные нарушения.
// Details несет дополнительные данные для клиента (например, список разрешенных удобств).
type ValidationError struct {
	Fields  []FieldError
	Details map[string]interface{}
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidationFailed.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// UploadError - часть изображений не загрузилась.
type UploadError struct {
	Failed int
	Total  int
	Err    error // первая из ошибок загрузки
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %d of %d images failed: %v", ErrUploadFailed, e.Failed, e.Total, e.Err)
	}
	return fmt.Sprintf("%s: %d of %d images failed", ErrUploadFailed, e.Failed, e.Total)
}

func (e *UploadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUploadFailed, e.Err}
	}
	return []error{ErrUploadFailed}
}

// StoreError - сбой ввода-вывода хранилища записей или объектов.
type StoreError struct {
	Op  string
	Err error
}

func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreFailure, e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStoreFailure, e.Err} }

// KindOf классифицирует ошибку. Неизвестные ошибки считаются сбоем хранилища.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidationFailed):
		return KindValidationFailed
	case errors.Is(err, ErrPropertyNotFound), errors.Is(err, ErrOwnerNotFound):
		return KindNotFound
	case errors.Is(err, ErrUploadFailed):
		return KindUploadFailed
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	default:
		return KindStoreFailure
	}
}
