package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"listing-service/internal/contracts"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"
)

// maxBodyBytes покрывает 10 изображений по 5 МиБ в base64 и остальные поля.
const maxBodyBytes = 80 << 20

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
	Details interface{}      `json:"details,omitempty"`
}

var statusByKind = map[domain.ErrorKind]int{
	domain.KindValidationFailed: http.StatusBadRequest,
	domain.KindNotFound:         http.StatusNotFound,
	domain.KindPermissionDenied: http.StatusForbidden,
	domain.KindUploadFailed:     http.StatusBadGateway,
	domain.KindStoreFailure:     http.StatusInternalServerError,
}

var kindByStatus = map[int]domain.ErrorKind{
	http.StatusBadRequest:            domain.KindValidationFailed,
	http.StatusUnauthorized:          domain.KindPermissionDenied,
	http.StatusForbidden:             domain.KindPermissionDenied,
	http.StatusNotFound:              domain.KindNotFound,
	http.StatusMethodNotAllowed:      domain.KindValidationFailed,
	http.StatusRequestEntityTooLarge: domain.KindValidationFailed,
}

// RespondWithJSON отправляет успешный ответ в общем конверте.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}, message string) {
	writeEnvelope(w, code, apiResponse{Success: true, Data: payload, Message: message})
}

// WriteJSONError отправляет ошибку транспорта (заголовки, путь, тело запроса).
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	kind, ok := kindByStatus[statusCode]
	if !ok {
		kind = domain.KindStoreFailure
	}
	writeEnvelope(w, statusCode, apiResponse{Error: &apiError{Kind: kind, Message: message}})
}

// WriteDomainError переводит ошибку сценария в ответ. Подробности сбоев
// хранилища остаются в логах: клиент видит только категорию.
func WriteDomainError(w http.ResponseWriter, logger port.LoggerPort, err error) {
	kind := domain.KindOf(err)
	body := &apiError{Kind: kind, Message: err.Error()}

	var ve *domain.ValidationError
	var ue *domain.UploadError
	switch {
	case errors.As(err, &ve):
		body.Message = "validation failed"
		details := map[string]interface{}{"fields": ve.Fields}
		for k, v := range ve.Details {
			details[k] = v
		}
		body.Details = details
	case errors.As(err, &ue):
		body.Message = "one or more images failed to upload"
		body.Details = map[string]int{"failed": ue.Failed, "total": ue.Total}
	case kind == domain.KindNotFound:
		if errors.Is(err, domain.ErrOwnerNotFound) {
			body.Message = domain.ErrOwnerNotFound.Error()
		} else {
			body.Message = domain.ErrPropertyNotFound.Error()
		}
	case kind == domain.KindPermissionDenied:
		body.Message = domain.ErrPermissionDenied.Error()
	case kind == domain.KindStoreFailure:
		logger.Error("Request failed with store failure", err, nil)
		body.Message = "internal error"
	}

	writeEnvelope(w, statusByKind[kind], apiResponse{Error: body})
}

func writeEnvelope(w http.ResponseWriter, code int, resp apiResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// decodeBody читает тело, проверяет его по JSON-схеме и разбирает в dst.
func decodeBody(r *http.Request, w http.ResponseWriter, schemaKey string, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.NewValidationError(domain.FieldError{Field: "body", Message: "request body is too large"})
		}
		return domain.NewValidationError(domain.FieldError{Field: "body", Message: "must be a valid JSON document"})
	}

	if err := contracts.Validate(schemaKey, raw); err != nil {
		var se *contracts.SchemaError
		if errors.As(err, &se) {
			fields := make([]domain.FieldError, 0, len(se.Violations))
			for _, v := range se.Violations {
				fields = append(fields, domain.FieldError{Field: v.Field, Message: v.Message})
			}
			return domain.NewValidationError(fields...)
		}
		return domain.NewValidationError(domain.FieldError{Field: "body", Message: err.Error()})
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.NewValidationError(domain.FieldError{Field: "body", Message: err.Error()})
	}
	return nil
}

// queryParser собирает ошибки разбора query-параметров в одну ValidationError.
type queryParser struct {
	values map[string][]string
	errs   []domain.FieldError
}

func newQueryParser(r *http.Request) *queryParser {
	return &queryParser{values: r.URL.Query()}
}

func (p *queryParser) get(key string) string {
	if v := p.values[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (p *queryParser) String(key string) string {
	return p.get(key)
}

func (p *queryParser) Int(key string) *int {
	raw := p.get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, domain.FieldError{Field: key, Message: "must be an integer"})
		return nil
	}
	return &v
}

func (p *queryParser) Float(key string) *float64 {
	raw := p.get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.errs = append(p.errs, domain.FieldError{Field: key, Message: "must be a number"})
		return nil
	}
	return &v
}

// List разбирает значения через запятую; повторяющийся параметр тоже допустим.
func (p *queryParser) List(key string) []string {
	var out []string
	for _, raw := range p.values[key] {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func (p *queryParser) Err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return domain.NewValidationError(p.errs...)
}

// Pagination: отсутствующий параметр получает значение по умолчанию,
// явно переданный ноль или отрицательное число отклоняются.
func (p *queryParser) Pagination() domain.Pagination {
	var pg domain.Pagination
	if v := p.Int("page"); v != nil {
		if *v < 1 {
			p.errs = append(p.errs, domain.FieldError{Field: "page", Message: "must be at least 1"})
		}
		pg.Page = *v
	}
	if v := p.Int("limit"); v != nil {
		if *v < 1 || *v > domain.MaxLimit {
			p.errs = append(p.errs, domain.FieldError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", domain.MaxLimit)})
		}
		pg.Limit = *v
	}
	return pg
}

func (p *queryParser) Sort() domain.Sort {
	return domain.Sort{
		By:    domain.SortField(p.get("sort_by")),
		Order: domain.SortOrder(strings.ToLower(p.get("sort_order"))),
	}
}
