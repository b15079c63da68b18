package memory

import (
	"context"
	"testing"
	"time"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func property(owner uuid.UUID, title string, price float64, created time.Time) domain.Property {
	return domain.Property{
		ID:        uuid.New(),
		Title:     title,
		Price:     price,
		City:      "Lujan",
		Country:   "Argentina",
		Amenities: []string{"wifi"},
		Images:    []domain.Image{{URL: "https://cdn.test/a.jpg", Key: "a.jpg"}},
		OwnerID:   owner,
		Status:    domain.StatusAvailable,
		CreatedAt: created,
	}
}

func TestPropertyRepository_CRUD(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	p := property(uuid.New(), "A", 100, time.Now())

	require.NoError(t, repo.Insert(ctx, p))
	require.ErrorIs(t, repo.Insert(ctx, p), domain.ErrStoreFailure)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "A", got.Title)

	// возвращается копия
	got.Images[0].URL = "changed"
	again, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/a.jpg", again.Images[0].URL)

	p.Title = "B"
	require.NoError(t, repo.Update(ctx, p))
	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "B", got.Title)

	require.NoError(t, repo.Delete(ctx, p.ID))
	require.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrPropertyNotFound)
	require.ErrorIs(t, repo.Update(ctx, p), domain.ErrPropertyNotFound)
	_, err = repo.GetByID(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)
}

func TestPropertyRepository_OwnerExists(t *testing.T) {
	repo := NewPropertyRepository()
	owner := uuid.New()
	repo.AddOwner(owner)

	ok, err := repo.OwnerExists(context.Background(), owner)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.OwnerExists(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPropertyRepository_QueryTieBreakByID(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		require.NoError(t, repo.Insert(ctx, property(uuid.New(), "same", 100, created)))
	}

	var seen []uuid.UUID
	for page := 1; page <= 3; page++ {
		res, err := repo.Query(ctx, domain.PropertyQuery{
			Pagination: domain.Pagination{Page: page, Limit: 2},
			Sort:       domain.Sort{By: domain.SortByPrice, Order: domain.SortDesc},
		})
		require.NoError(t, err)
		require.Equal(t, 6, res.Total)
		for _, p := range res.Properties {
			seen = append(seen, p.ID)
		}
	}
	require.Len(t, seen, 6)
	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1].String(), seen[i].String())
	}
}

func TestPropertyRepository_QueryFilters(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	owner := uuid.New()
	now := time.Now()

	a := property(owner, "Alpha", 50, now)
	a.Geohash = "69y7pkxfc"
	b := property(uuid.New(), "Beta", 150, now)
	b.Amenities = []string{"wifi", "pool"}
	b.Status = domain.StatusBooked
	require.NoError(t, repo.Insert(ctx, a))
	require.NoError(t, repo.Insert(ctx, b))

	booked := domain.StatusBooked
	tests := []struct {
		name    string
		filters domain.SearchFilters
		want    []string
	}{
		{"owner", domain.SearchFilters{OwnerID: &owner}, []string{"Alpha"}},
		{"status", domain.SearchFilters{Status: &booked}, []string{"Beta"}},
		{"amenities", domain.SearchFilters{Amenities: []string{"pool", "wifi"}}, []string{"Beta"}},
		{"geohash prefix", domain.SearchFilters{GeohashPrefix: "69y7"}, []string{"Alpha"}},
		{"country", domain.SearchFilters{Country: "ARGENT"}, []string{"Alpha", "Beta"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.Query(ctx, domain.PropertyQuery{
				Filters: tt.filters,
				Sort:    domain.Sort{By: domain.SortByTitle, Order: domain.SortAsc},
			})
			require.NoError(t, err)
			titles := make([]string, 0, len(res.Properties))
			for _, p := range res.Properties {
				titles = append(titles, p.Title)
			}
			require.Equal(t, tt.want, titles)
		})
	}
}

func TestObjectStore(t *testing.T) {
	store := NewObjectStore("https://cdn.test/")
	ctx := context.Background()

	inline, err := store.Upload(ctx, "properties/p1/", domain.ImageSource{Raw: "data:image/png;base64,iVBORw0KGgo="})
	require.NoError(t, err)
	require.Regexp(t, `^properties/p1/[0-9a-f-]{36}\.png$`, inline.Key)
	require.Equal(t, "https://cdn.test/"+inline.Key, inline.URL)

	linked, err := store.Upload(ctx, "properties/p1/", domain.ImageSource{Raw: "https://img.test/photo.jpeg"})
	require.NoError(t, err)
	require.True(t, store.Has(linked.Key))

	_, err = store.Upload(ctx, "properties/p1/", domain.ImageSource{Raw: "https://img.test/doc.pdf"})
	require.Error(t, err)

	listed, err := store.ListByPrefix(ctx, "properties/p1/")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	recognized, ok := store.Recognize(inline.URL)
	require.True(t, ok)
	require.Equal(t, inline.Key, recognized.Key)
	_, ok = store.Recognize("https://elsewhere.test/x.png")
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, inline.Key))
	require.NoError(t, store.Delete(ctx, inline.Key))
	require.Equal(t, 1, store.Len())
}

func TestObjectStore_CancelledContext(t *testing.T) {
	store := NewObjectStore("https://cdn.test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Upload(ctx, "p/", domain.ImageSource{Raw: "https://img.test/a.png"})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, store.Len())
}
