package domain

import "github.com/google/uuid"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// SortField - поле сортировки из белого списка
type SortField string

const (
	SortByPrice     SortField = "price"
	SortByCreatedAt SortField = "created_at"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SearchFilters - фильтры поиска. Все поля необязательны и объединяются через AND.
type SearchFilters struct {
	City          string          `json:"city,omitempty"`
	Country       string          `json:"country,omitempty"`
	MinPrice      *float64        `json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice      *float64        `json:"max_price,omitempty" validate:"omitempty,gte=0"`
	Bedrooms      *int            `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms     *int            `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	MaxGuests     *int            `json:"max_guests,omitempty" validate:"omitempty,gte=0"`
	Amenities     []string        `json:"amenities,omitempty"`
	Status        *PropertyStatus `json:"status,omitempty" validate:"omitempty,oneof=available booked maintenance"`
	GeohashPrefix string          `json:"geohash,omitempty" validate:"omitempty,max=12,alphanum"`
	OwnerID       *uuid.UUID      `json:"-"`
}

type Pagination struct {
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

// Offset - смещение первой записи страницы
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

type Sort struct {
	By    SortField `json:"sort_by" validate:"oneof=price created_at title"`
	Order SortOrder `json:"sort_order" validate:"oneof=asc desc"`
}

// PropertyQuery - полный запрос к репозиторию
type PropertyQuery struct {
	Filters    SearchFilters
	Pagination Pagination
	Sort       Sort
}

// WithDefaults подставляет значения по умолчанию для незаданных параметров.
func (q PropertyQuery) WithDefaults() PropertyQuery {
	if q.Pagination.Page == 0 {
		q.Pagination.Page = DefaultPage
	}
	if q.Pagination.Limit == 0 {
		q.Pagination.Limit = DefaultLimit
	}
	if q.Sort.By == "" {
		q.Sort.By = SortByCreatedAt
	}
	if q.Sort.Order == "" {
		q.Sort.Order = SortDesc
	}
	return q
}

// PropertyPage - страница результатов. Total не зависит от номера страницы.
type PropertyPage struct {
	Properties []Property
	Total      int
	Page       int
	Limit      int
}

// TotalPages - количество страниц при текущем лимите
func (p PropertyPage) TotalPages() int {
	if p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}
