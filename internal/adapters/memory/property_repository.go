package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"listing-service/internal/core/domain"

	"github.com/google/uuid"
)

// PropertyRepository - хранилище записей в памяти. Семантика фильтров,
// сортировки и пагинации совпадает с PostgreSQL-адаптером.
type PropertyRepository struct {
	mu         sync.RWMutex
	properties map[uuid.UUID]domain.Property
	owners     map[uuid.UUID]struct{}
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{
		properties: make(map[uuid.UUID]domain.Property),
		owners:     make(map[uuid.UUID]struct{}),
	}
}

// AddOwner регистрирует пользователя, которому разрешено создавать объявления.
func (r *PropertyRepository) AddOwner(ownerID uuid.UUID) {
	r.mu.Lock()
	r.owners[ownerID] = struct{}{}
	r.mu.Unlock()
}

func (r *PropertyRepository) Insert(ctx context.Context, property domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.properties[property.ID]; exists {
		return domain.NewStoreError("insert property", errDuplicateID)
	}
	r.properties[property.ID] = property.Clone()
	return nil
}

func (r *PropertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.properties[id]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (r *PropertyRepository) Update(ctx context.Context, property domain.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.properties[property.ID]; !ok {
		return domain.ErrPropertyNotFound
	}
	r.properties[property.ID] = property.Clone()
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.properties[id]; !ok {
		return domain.ErrPropertyNotFound
	}
	delete(r.properties, id)
	return nil
}

func (r *PropertyRepository) OwnerExists(ctx context.Context, ownerID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owners[ownerID]
	return ok, nil
}

func (r *PropertyRepository) Query(ctx context.Context, query domain.PropertyQuery) (*domain.PropertyPage, error) {
	query = query.WithDefaults()

	r.mu.RLock()
	matched := make([]domain.Property, 0)
	for _, p := range r.properties {
		if matches(p, query.Filters) {
			matched = append(matched, p.Clone())
		}
	}
	r.mu.RUnlock()

	sortProperties(matched, query.Sort)

	total := len(matched)
	start := query.Pagination.Offset()
	if start > total {
		start = total
	}
	end := start + query.Pagination.Limit
	if end > total {
		end = total
	}

	return &domain.PropertyPage{
		Properties: matched[start:end],
		Total:      total,
		Page:       query.Pagination.Page,
		Limit:      query.Pagination.Limit,
	}, nil
}

func matches(p domain.Property, f domain.SearchFilters) bool {
	if f.OwnerID != nil && p.OwnerID != *f.OwnerID {
		return false
	}
	if f.City != "" && !containsFold(p.City, f.City) {
		return false
	}
	if f.Country != "" && !containsFold(p.Country, f.Country) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Bedrooms != nil && p.Bedrooms != *f.Bedrooms {
		return false
	}
	if f.Bathrooms != nil && p.Bathrooms != *f.Bathrooms {
		return false
	}
	if f.MaxGuests != nil && p.MaxGuests < *f.MaxGuests {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.GeohashPrefix != "" && !strings.HasPrefix(p.Geohash, f.GeohashPrefix) {
		return false
	}
	if len(f.Amenities) > 0 {
		have := make(map[string]struct{}, len(p.Amenities))
		for _, a := range p.Amenities {
			have[a] = struct{}{}
		}
		for _, want := range f.Amenities {
			if _, ok := have[want]; !ok {
				return false
			}
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// sortProperties сортирует по выбранному полю; при равенстве порядок задает id по возрастанию.
func sortProperties(items []domain.Property, s domain.Sort) {
	desc := s.Order == domain.SortDesc
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var cmp int
		switch s.By {
		case domain.SortByPrice:
			cmp = compareFloat(a.Price, b.Price)
		case domain.SortByTitle:
			cmp = strings.Compare(a.Title, b.Title)
		default:
			cmp = a.CreatedAt.Compare(b.CreatedAt)
		}
		if cmp != 0 {
			if desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
