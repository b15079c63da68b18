package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mmcloughlin/geohash"
)

// PropertyStatus - состояние объявления
type PropertyStatus string

const (
	StatusAvailable   PropertyStatus = "available"
	StatusBooked      PropertyStatus = "booked"
	StatusMaintenance PropertyStatus = "maintenance"
)

// Valid проверяет, что статус входит в допустимый набор.
func (s PropertyStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusMaintenance:
		return true
	}
	return false
}

// GeohashPrecision - точность геохеша, сохраняемого вместе с координатами (~5 м)
const GeohashPrecision = 9

// Image - загруженное изображение: публичный URL и ключ объекта в хранилище.
// Ключ наружу не отдается, он нужен только для удаления.
type Image struct {
	URL string `json:"url"`
	Key string `json:"-"`
}

// AvailabilityRange - интервал доступности. Даты хранятся в исходном виде,
// проверка формата делается слоем валидации.
type AvailabilityRange struct {
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	IsAvailable bool   `json:"is_available"`
}

type CancellationPolicy struct {
	PolicyType          string  `json:"policy_type"`
	RefundableUntilDays int     `json:"refundable_until_days"`
	RefundPercentage    float64 `json:"refund_percentage"`
	Description         *string `json:"description,omitempty"`
}

// Property - объявление об аренде
type Property struct {
	ID                 uuid.UUID
	Title              string
	Description        string
	Price              float64
	Address            string
	City               string
	Country            string
	Latitude           *float64
	Longitude          *float64
	Geohash            string
	Amenities          []string
	Images             []Image
	Bedrooms           int
	Bathrooms          int
	MaxGuests          int
	OwnerID            uuid.UUID
	Status             PropertyStatus
	Availability       []AvailabilityRange
	SecurityDeposit    float64
	CancellationPolicy *CancellationPolicy
	PropertyToken      *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ImageURLs возвращает публичные адреса изображений в исходном порядке.
func (p *Property) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.URL)
	}
	return urls
}

// RefreshGeohash пересчитывает геохеш по координатам.
// Если хотя бы одна координата не задана, геохеш сбрасывается.
func (p *Property) RefreshGeohash() {
	if p.Latitude == nil || p.Longitude == nil {
		p.Geohash = ""
		return
	}
	p.Geohash = geohash.EncodeWithPrecision(*p.Latitude, *p.Longitude, GeohashPrecision)
}

// Clone возвращает глубокую копию записи, чтобы хранилища в памяти
// и кэш не делили срезы с вызывающим кодом.
func (p Property) Clone() Property {
	out := p
	if p.Latitude != nil {
		lat := *p.Latitude
		out.Latitude = &lat
	}
	if p.Longitude != nil {
		lon := *p.Longitude
		out.Longitude = &lon
	}
	out.Amenities = append([]string{}, p.Amenities...)
	out.Images = append([]Image{}, p.Images...)
	out.Availability = append([]AvailabilityRange{}, p.Availability...)
	if p.CancellationPolicy != nil {
		cp := *p.CancellationPolicy
		if cp.Description != nil {
			d := *cp.Description
			cp.Description = &d
		}
		out.CancellationPolicy = &cp
	}
	if p.PropertyToken != nil {
		t := *p.PropertyToken
		out.PropertyToken = &t
	}
	return out
}

// CreatePropertyInput - данные для создания объявления.
// Images содержит источники: http(s)-ссылки или data:image/...;base64 строки.
type CreatePropertyInput struct {
	Title              string                   `json:"title" validate:"required,min=1"`
	Description        string                   `json:"description" validate:"required,min=1"`
	Price              float64                  `json:"price" validate:"gt=0"`
	Address            string                   `json:"address" validate:"required,min=1"`
	City               string                   `json:"city" validate:"required,min=1"`
	Country            string                   `json:"country" validate:"required,min=1"`
	Latitude           *float64                 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude          *float64                 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Amenities          []string                 `json:"amenities"`
	Images             []string                 `json:"images" validate:"max=10"`
	Bedrooms           int                      `json:"bedrooms" validate:"gte=1"`
	Bathrooms          int                      `json:"bathrooms" validate:"gte=1"`
	MaxGuests          int                      `json:"max_guests" validate:"gte=1,lte=20"`
	OwnerID            uuid.UUID                `json:"owner_id" validate:"required"`
	Status             PropertyStatus           `json:"status" validate:"omitempty,oneof=available booked maintenance"`
	Availability       []AvailabilityRange      `json:"availability" validate:"dive"`
	SecurityDeposit    float64                  `json:"security_deposit" validate:"gte=0"`
	CancellationPolicy *CancellationPolicyInput `json:"cancellation_policy" validate:"omitempty"`
	PropertyToken      *string                  `json:"property_token"`
}

type CancellationPolicyInput struct {
	PolicyType          string  `json:"policy_type" validate:"required"`
	RefundableUntilDays int     `json:"refundable_until_days" validate:"gte=0"`
	RefundPercentage    float64 `json:"refund_percentage" validate:"gte=0,lte=100"`
	Description         *string `json:"description"`
}

// ToDomain переводит входные данные политики отмены в доменный тип.
func (c *CancellationPolicyInput) ToDomain() *CancellationPolicy {
	if c == nil {
		return nil
	}
	return &CancellationPolicy{
		PolicyType:          c.PolicyType,
		RefundableUntilDays: c.RefundableUntilDays,
		RefundPercentage:    c.RefundPercentage,
		Description:         c.Description,
	}
}

// UpdatePropertyInput - частичное обновление. nil означает "поле не передано".
type UpdatePropertyInput struct {
	Title              *string                  `json:"title" validate:"omitempty,min=1"`
	Description        *string                  `json:"description" validate:"omitempty,min=1"`
	Price              *float64                 `json:"price" validate:"omitempty,gt=0"`
	Address            *string                  `json:"address" validate:"omitempty,min=1"`
	City               *string                  `json:"city" validate:"omitempty,min=1"`
	Country            *string                  `json:"country" validate:"omitempty,min=1"`
	Latitude           *float64                 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude          *float64                 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Amenities          *[]string                `json:"amenities"`
	Images             *[]string                `json:"images" validate:"omitempty,max=10"`
	Bedrooms           *int                     `json:"bedrooms" validate:"omitempty,gte=1"`
	Bathrooms          *int                     `json:"bathrooms" validate:"omitempty,gte=1"`
	MaxGuests          *int                     `json:"max_guests" validate:"omitempty,gte=1,lte=20"`
	Status             *PropertyStatus          `json:"status" validate:"omitempty,oneof=available booked maintenance"`
	Availability       *[]AvailabilityRange     `json:"availability" validate:"omitempty,dive"`
	SecurityDeposit    *float64                 `json:"security_deposit" validate:"omitempty,gte=0"`
	CancellationPolicy *CancellationPolicyInput `json:"cancellation_policy" validate:"omitempty"`
	PropertyToken      *string                  `json:"property_token"`

	// Явный null в запросе сбрасывает координату
	ClearLatitude  bool `json:"-"`
	ClearLongitude bool `json:"-"`
}

// UnmarshalJSON отличает явный null у координат от отсутствующего поля.
func (in *UpdatePropertyInput) UnmarshalJSON(data []byte) error {
	type plain UpdatePropertyInput
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = UpdatePropertyInput(decoded)
	in.ClearLatitude = isJSONNull(raw, "latitude")
	in.ClearLongitude = isJSONNull(raw, "longitude")
	return nil
}

func isJSONNull(raw map[string]json.RawMessage, key string) bool {
	v, ok := raw[key]
	return ok && bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// IsEmpty сообщает, что в патче нет ни одного поля.
func (in UpdatePropertyInput) IsEmpty() bool {
	return in.Title == nil && in.Description == nil && in.Price == nil &&
		in.Address == nil && in.City == nil && in.Country == nil &&
		in.Latitude == nil && in.Longitude == nil && !in.ClearLatitude && !in.ClearLongitude &&
		in.Amenities == nil &&
		in.Images == nil && in.Bedrooms == nil && in.Bathrooms == nil &&
		in.MaxGuests == nil && in.Status == nil && in.Availability == nil &&
		in.SecurityDeposit == nil && in.CancellationPolicy == nil && in.PropertyToken == nil
}

// Apply накладывает патч на запись. Изображения сюда не входят:
// их подменяет сценарий обновления после загрузки.
func (in UpdatePropertyInput) Apply(p *Property) {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.City != nil {
		p.City = *in.City
	}
	if in.Country != nil {
		p.Country = *in.Country
	}
	if in.Latitude != nil {
		lat := *in.Latitude
		p.Latitude = &lat
	} else if in.ClearLatitude {
		p.Latitude = nil
	}
	if in.Longitude != nil {
		lon := *in.Longitude
		p.Longitude = &lon
	} else if in.ClearLongitude {
		p.Longitude = nil
	}
	if in.Amenities != nil {
		p.Amenities = append([]string{}, (*in.Amenities)...)
	}
	if in.Bedrooms != nil {
		p.Bedrooms = *in.Bedrooms
	}
	if in.Bathrooms != nil {
		p.Bathrooms = *in.Bathrooms
	}
	if in.MaxGuests != nil {
		p.MaxGuests = *in.MaxGuests
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Availability != nil {
		p.Availability = append([]AvailabilityRange{}, (*in.Availability)...)
	}
	if in.SecurityDeposit != nil {
		p.SecurityDeposit = *in.SecurityDeposit
	}
	if in.CancellationPolicy != nil {
		p.CancellationPolicy = in.CancellationPolicy.ToDomain()
	}
	if in.PropertyToken != nil {
		token := *in.PropertyToken
		p.PropertyToken = &token
	}
	p.RefreshGeohash()
}
