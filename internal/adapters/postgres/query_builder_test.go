package postgres

import (
	"testing"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestApplyFilters_Empty(t *testing.T) {
	where, args := applyFilters(domain.SearchFilters{})
	require.Equal(t, "", where)
	require.Empty(t, args)
}

func TestApplyFilters_AllFilters(t *testing.T) {
	status := domain.StatusAvailable
	where, args := applyFilters(domain.SearchFilters{
		City:          "Luj",
		Country:       "arg",
		MinPrice:      ptr(100.0),
		MaxPrice:      ptr(250.0),
		Bedrooms:      ptr(2),
		Bathrooms:     ptr(1),
		MaxGuests:     ptr(4),
		Status:        &status,
		Amenities:     []string{"wifi", "pool"},
		GeohashPrefix: "69y7",
	})

	require.Equal(t,
		"WHERE p.city ILIKE $1 AND p.country ILIKE $2 AND p.price >= $3 AND p.price <= $4"+
			" AND p.bedrooms = $5 AND p.bathrooms = $6 AND p.max_guests >= $7 AND p.status = $8"+
			" AND p.amenities @> $9 AND p.geohash LIKE $10",
		where)
	require.Equal(t, []interface{}{
		"%Luj%", "%arg%", 100.0, 250.0, 2, 1, 4, "available", []string{"wifi", "pool"}, "69y7%",
	}, args)
}

func TestApplyFilters_OwnerScope(t *testing.T) {
	owner := uuid.New()
	where, args := applyFilters(domain.SearchFilters{OwnerID: &owner})
	require.Equal(t, "WHERE p.owner_id = $1", where)
	require.Equal(t, []interface{}{owner}, args)
}

func TestApplyFilters_EscapesLikePatterns(t *testing.T) {
	_, args := applyFilters(domain.SearchFilters{City: `50%_off\`})
	require.Equal(t, []interface{}{`%50\%\_off\\%`}, args)
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		sort domain.Sort
		want string
	}{
		{domain.Sort{By: domain.SortByPrice, Order: domain.SortAsc}, "ORDER BY p.price ASC, p.id ASC"},
		{domain.Sort{By: domain.SortByTitle, Order: domain.SortDesc}, "ORDER BY p.title DESC, p.id ASC"},
		{domain.Sort{By: domain.SortByCreatedAt, Order: domain.SortDesc}, "ORDER BY p.created_at DESC, p.id ASC"},
		{domain.Sort{By: "price; DROP TABLE properties", Order: "sideways"}, "ORDER BY p.created_at DESC, p.id ASC"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, orderClause(tt.sort))
	}
}

func TestToRowAndBack(t *testing.T) {
	desc := "free cancellation"
	p := domain.Property{
		Images: []domain.Image{{URL: "https://cdn/a.jpg", Key: "properties/x/a.jpg"}},
		Availability: []domain.AvailabilityRange{
			{StartDate: "2025-01-01", EndDate: "2025-01-05", IsAvailable: true},
		},
		CancellationPolicy: &domain.CancellationPolicy{PolicyType: "flexible", RefundPercentage: 100, Description: &desc},
	}

	row, err := toRow(p)
	require.NoError(t, err)
	require.Equal(t, []string{"https://cdn/a.jpg"}, row.imageURLs)
	require.Equal(t, []string{"properties/x/a.jpg"}, row.imageKeys)
	require.Equal(t, []string{}, row.amenities)
	require.JSONEq(t, `[{"start_date":"2025-01-01","end_date":"2025-01-05","is_available":true}]`, string(row.availability))
	require.JSONEq(t, `{"policy_type":"flexible","refundable_until_days":0,"refund_percentage":100,"description":"free cancellation"}`, string(row.policy))

	empty, err := toRow(domain.Property{})
	require.NoError(t, err)
	require.Nil(t, empty.policy)
	require.Equal(t, "[]", string(empty.availability))
}
