package rest

import (
	"time"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// PropertyResponse - представление объявления для клиента. Ключи объектов
// хранилища наружу не отдаются, только URL.
type PropertyResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	Title              string                     `json:"title"`
	Description        string                     `json:"description"`
	Price              float64                    `json:"price"`
	Address            string                     `json:"address"`
	City               string                     `json:"city"`
	Country            string                     `json:"country"`
	Latitude           *float64                   `json:"latitude"`
	Longitude          *float64                   `json:"longitude"`
	Geohash            string                     `json:"geohash,omitempty"`
	Amenities          []string                   `json:"amenities"`
	Images             []string                   `json:"images"`
	Bedrooms           int                        `json:"bedrooms"`
	Bathrooms          int                        `json:"bathrooms"`
	MaxGuests          int                        `json:"max_guests"`
	OwnerID            uuid.UUID                  `json:"owner_id"`
	Status             domain.PropertyStatus      `json:"status"`
	Availability       []domain.AvailabilityRange `json:"availability"`
	SecurityDeposit    float64                    `json:"security_deposit"`
	CancellationPolicy *domain.CancellationPolicy `json:"cancellation_policy"`
	PropertyToken      *string                    `json:"property_token,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type PropertyListResponse struct {
	Properties []PropertyResponse `json:"properties"`
	Pagination PaginationResponse `json:"pagination"`
}

type AmenitiesResponse struct {
	Version   string               `json:"version"`
	Amenities []domain.AmenityItem `json:"amenities"`
}

type updateAvailabilityRequest struct {
	Availability []domain.AvailabilityRange `json:"availability"`
}

type updateStatusRequest struct {
	Status domain.PropertyStatus `json:"status"`
}

func toPropertyResponse(p *domain.Property) PropertyResponse {
	availability := p.Availability
	if availability == nil {
		availability = []domain.AvailabilityRange{}
	}
	amenities := p.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return PropertyResponse{
		ID:                 p.ID,
		Title:              p.Title,
		Description:        p.Description,
		Price:              p.Price,
		Address:            p.Address,
		City:               p.City,
		Country:            p.Country,
		Latitude:           p.Latitude,
		Longitude:          p.Longitude,
		Geohash:            p.Geohash,
		Amenities:          amenities,
		Images:             p.ImageURLs(),
		Bedrooms:           p.Bedrooms,
		Bathrooms:          p.Bathrooms,
		MaxGuests:          p.MaxGuests,
		OwnerID:            p.OwnerID,
		Status:             p.Status,
		Availability:       availability,
		SecurityDeposit:    p.SecurityDeposit,
		CancellationPolicy: p.CancellationPolicy,
		PropertyToken:      p.PropertyToken,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func toPropertyListResponse(page *domain.PropertyPage) PropertyListResponse {
	resp := PropertyListResponse{
		Properties: make([]PropertyResponse, len(page.Properties)),
		Pagination: PaginationResponse{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages(),
		},
	}
	for i := range page.Properties {
		resp.Properties[i] = toPropertyResponse(&page.Properties[i])
	}
	return resp
}
