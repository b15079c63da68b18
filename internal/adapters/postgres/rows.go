package postgres

import (
	"encoding/json"
	"fmt"

	"listing-service/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// propertyRow - поля записи в представлении, удобном для параметров запроса.
// Изображения хранятся двумя параллельными массивами: URL и ключи.
type propertyRow struct {
	amenities    []string
	imageURLs    []string
	imageKeys    []string
	availability []byte
	policy       []byte
}

func toRow(p domain.Property) (propertyRow, error) {
	row := propertyRow{
		amenities: p.Amenities,
		imageURLs: make([]string, 0, len(p.Images)),
		imageKeys: make([]string, 0, len(p.Images)),
	}
	if row.amenities == nil {
		row.amenities = []string{}
	}
	for _, img := range p.Images {
		row.imageURLs = append(row.imageURLs, img.URL)
		row.imageKeys = append(row.imageKeys, img.Key)
	}

	availability := p.Availability
	if availability == nil {
		availability = []domain.AvailabilityRange{}
	}
	var err error
	if row.availability, err = json.Marshal(availability); err != nil {
		return propertyRow{}, fmt.Errorf("failed to marshal availability: %w", err)
	}
	if p.CancellationPolicy != nil {
		if row.policy, err = json.Marshal(p.CancellationPolicy); err != nil {
			return propertyRow{}, fmt.Errorf("failed to marshal cancellation policy: %w", err)
		}
	}
	return row, nil
}

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var p domain.Property
	var status string
	var imageURLs, imageKeys []string
	var availability, policy []byte

	if err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Price, &p.Address, &p.City, &p.Country,
		&p.Latitude, &p.Longitude, &p.Geohash, &p.Amenities, &imageURLs, &imageKeys,
		&p.Bedrooms, &p.Bathrooms, &p.MaxGuests, &p.OwnerID, &status, &availability,
		&p.SecurityDeposit, &policy, &p.PropertyToken, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	p.Status = domain.PropertyStatus(status)
	if p.Amenities == nil {
		p.Amenities = []string{}
	}

	p.Images = make([]domain.Image, 0, len(imageURLs))
	for i, u := range imageURLs {
		img := domain.Image{URL: u}
		if i < len(imageKeys) {
			img.Key = imageKeys[i]
		}
		p.Images = append(p.Images, img)
	}

	p.Availability = []domain.AvailabilityRange{}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &p.Availability); err != nil {
			return nil, fmt.Errorf("failed to unmarshal availability: %w", err)
		}
	}
	if len(policy) > 0 {
		var cp domain.CancellationPolicy
		if err := json.Unmarshal(policy, &cp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cancellation policy: %w", err)
		}
		p.CancellationPolicy = &cp
	}

	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}
