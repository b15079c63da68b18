package rest

import (
	"net/http"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	usecases_port "listing-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SearchHandler struct {
	searchUC    usecases_port.SearchPropertiesUseCase
	byOwnerUC   usecases_port.GetPropertiesByOwnerUseCase
	amenitiesUC usecases_port.ListAmenitiesUseCase
}

func NewSearchHandler(
	searchUC usecases_port.SearchPropertiesUseCase,
	byOwnerUC usecases_port.GetPropertiesByOwnerUseCase,
	amenitiesUC usecases_port.ListAmenitiesUseCase,
) *SearchHandler {
	return &SearchHandler{searchUC: searchUC, byOwnerUC: byOwnerUC, amenitiesUC: amenitiesUC}
}

// SearchProperties обрабатывает GET /api/v1/properties
func (h *SearchHandler) SearchProperties(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "SearchProperties")

	q := newQueryParser(r)
	query := domain.PropertyQuery{
		Filters: domain.SearchFilters{
			City:          q.String("city"),
			Country:       q.String("country"),
			MinPrice:      q.Float("min_price"),
			MaxPrice:      q.Float("max_price"),
			Bedrooms:      q.Int("bedrooms"),
			Bathrooms:     q.Int("bathrooms"),
			MaxGuests:     q.Int("max_guests"),
			Amenities:     q.List("amenities"),
			GeohashPrefix: q.String("geohash"),
		},
		Pagination: q.Pagination(),
		Sort:       q.Sort(),
	}
	if status := q.String("status"); status != "" {
		s := domain.PropertyStatus(status)
		query.Filters.Status = &s
	}
	if err := q.Err(); err != nil {
		WriteDomainError(w, logger, err)
		return
	}

	page, err := h.searchUC.Execute(r.Context(), query)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyListResponse(page), "")
}

// GetPropertiesByOwner обрабатывает GET /api/v1/properties/owner/{ownerId}.
// Владелец видит и неактивные объявления, поэтому чужой список недоступен.
func (h *SearchHandler) GetPropertiesByOwner(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetPropertiesByOwner")

	ownerID, err := uuid.Parse(chi.URLParam(r, "ownerId"))
	if err != nil {
		WriteDomainError(w, logger, domain.NewValidationError(domain.FieldError{Field: "ownerId", Message: "must be a valid UUID"}))
		return
	}
	if userID, _ := contextkeys.UserIDFromContext(r.Context()); userID != ownerID {
		WriteDomainError(w, logger, domain.ErrPermissionDenied)
		return
	}

	q := newQueryParser(r)
	pagination, sort := q.Pagination(), q.Sort()
	if err := q.Err(); err != nil {
		WriteDomainError(w, logger, err)
		return
	}

	page, err := h.byOwnerUC.Execute(r.Context(), ownerID, pagination, sort)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyListResponse(page), "")
}

// ListAmenities обрабатывает GET /api/v1/properties/amenities
func (h *SearchHandler) ListAmenities(w http.ResponseWriter, r *http.Request) {
	version, items := h.amenitiesUC.Execute(r.Context())
	RespondWithJSON(w, http.StatusOK, AmenitiesResponse{Version: version, Amenities: items}, "")
}
