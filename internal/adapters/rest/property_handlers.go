package rest

import (
	"context"
	"net/http"

	"listing-service/internal/contextkeys"
	"listing-service/internal/contracts"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
	usecases_port "listing-service/internal/core/port/usecases_port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PropertyHandler обслуживает изменяющие операции и чтение одного объявления.
type PropertyHandler struct {
	createUC       usecases_port.CreatePropertyUseCase
	updateUC       usecases_port.UpdatePropertyUseCase
	deleteUC       usecases_port.DeletePropertyUseCase
	availabilityUC usecases_port.UpdateAvailabilityUseCase
	statusUC       usecases_port.UpdateStatusUseCase
	getByIDUC      usecases_port.GetPropertyByIDUseCase
}

func NewPropertyHandler(
	createUC usecases_port.CreatePropertyUseCase,
	updateUC usecases_port.UpdatePropertyUseCase,
	deleteUC usecases_port.DeletePropertyUseCase,
	availabilityUC usecases_port.UpdateAvailabilityUseCase,
	statusUC usecases_port.UpdateStatusUseCase,
	getByIDUC usecases_port.GetPropertyByIDUseCase,
) *PropertyHandler {
	return &PropertyHandler{
		createUC:       createUC,
		updateUC:       updateUC,
		deleteUC:       deleteUC,
		availabilityUC: availabilityUC,
		statusUC:       statusUC,
		getByIDUC:      getByIDUC,
	}
}

func handlerLogger(r *http.Request, name string) port.LoggerPort {
	return contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": name})
}

func propertyIDParam(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(domain.FieldError{Field: "id", Message: "must be a valid UUID"})
	}
	return id, nil
}

// authorizeOwner загружает объявление и проверяет, что его владелец - текущий пользователь.
func (h *PropertyHandler) authorizeOwner(ctx context.Context, id uuid.UUID) error {
	userID, ok := contextkeys.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrPermissionDenied
	}
	existing, err := h.getByIDUC.Execute(ctx, id)
	if err != nil {
		return err
	}
	if existing.OwnerID != userID {
		return domain.ErrPermissionDenied
	}
	return nil
}

// CreateProperty обрабатывает POST /api/v1/properties
func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "CreateProperty")

	var input domain.CreatePropertyInput
	if err := decodeBody(r, w, contracts.CreatePropertyRequest, &input); err != nil {
		WriteDomainError(w, logger, err)
		return
	}

	// владелец объявления - только тот, кто его создает
	if userID, _ := contextkeys.UserIDFromContext(r.Context()); input.OwnerID != uuid.Nil && input.OwnerID != userID {
		logger.Warn("Owner mismatch on create", port.Fields{"owner_id": input.OwnerID.String(), "user_id": userID.String()})
		WriteDomainError(w, logger, domain.ErrPermissionDenied)
		return
	}

	property, err := h.createUC.Execute(r.Context(), input)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusCreated, toPropertyResponse(property), "Property created successfully")
}

// GetPropertyByID обрабатывает GET /api/v1/properties/{id}
func (h *PropertyHandler) GetPropertyByID(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "GetPropertyByID")

	id, err := propertyIDParam(r)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	property, err := h.getByIDUC.Execute(r.Context(), id)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property), "")
}

// UpdateProperty обрабатывает PUT /api/v1/properties/{id}
func (h *PropertyHandler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "UpdateProperty")

	id, err := propertyIDParam(r)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	var input domain.UpdatePropertyInput
	if err := decodeBody(r, w, contracts.UpdatePropertyRequest, &input); err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	if err := h.authorizeOwner(r.Context(), id); err != nil {
		WriteDomainError(w, logger, err)
		return
	}

	property, err := h.updateUC.Execute(r.Context(), id, input)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property), "Property updated successfully")
}

// DeleteProperty обрабатывает DELETE /api/v1/properties/{id}
func (h *PropertyHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "DeleteProperty")

	id, err := propertyIDParam(r)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	if err := h.authorizeOwner(r.Context(), id); err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	if err := h.deleteUC.Execute(r.Context(), id); err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, nil, "Property deleted successfully")
}

// UpdateAvailability обрабатывает PATCH /api/v1/properties/{id}/availability
func (h *PropertyHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "UpdateAvailability")

	id, err := propertyIDParam(r)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	var req updateAvailabilityRequest
	if err := decodeBody(r, w, contracts.UpdateAvailabilityRequest, &req); err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	if err := h.authorizeOwner(r.Context(), id); err != nil {
		WriteDomainError(w, logger, err)
		return
	}

	property, err := h.availabilityUC.Execute(r.Context(), id, req.Availability)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property), "Availability updated successfully")
}

// UpdateStatus обрабатывает PATCH /api/v1/properties/{id}/status
func (h *PropertyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r, "UpdateStatus")

	id, err := propertyIDParam(r)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	var req updateStatusRequest
	if err := decodeBody(r, w, contracts.UpdateStatusRequest, &req); err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	if err := h.authorizeOwner(r.Context(), id); err != nil {
		WriteDomainError(w, logger, err)
		return
	}

	property, err := h.statusUC.Execute(r.Context(), id, req.Status)
	if err != nil {
		WriteDomainError(w, logger, err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toPropertyResponse(property), "Status updated successfully")
}
