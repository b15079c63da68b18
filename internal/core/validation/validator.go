package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"listing-service/internal/core/domain"

	"github.com/go-playground/validator/v10"
)

// Validator объединяет проверки полей (struct-теги) с доменными правилами.
type Validator struct {
	v       *validator.Validate
	catalog domain.AmenityCatalog
}

func New(catalog domain.AmenityCatalog) *Validator {
	v := validator.New()
	// В ошибках используем имена полей из JSON, а не из Go
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v, catalog: catalog}
}

func (v *Validator) Catalog() domain.AmenityCatalog { return v.catalog }

// ValidateCreate проверяет данные нового объявления.
func (v *Validator) ValidateCreate(in domain.CreatePropertyInput) error {
	if err := v.structErr(in); err != nil {
		return err
	}
	return v.validateComposite(in.Images, in.Amenities, in.Availability)
}

// ValidatePatch проверяет только присутствующие поля.
func (v *Validator) ValidatePatch(in domain.UpdatePropertyInput) error {
	if in.IsEmpty() {
		return domain.NewValidationError(domain.FieldError{Field: "body", Message: "no fields to update"})
	}
	if err := v.structErr(in); err != nil {
		return err
	}
	var images, amenities []string
	var ranges []domain.AvailabilityRange
	if in.Images != nil {
		images = *in.Images
	}
	if in.Amenities != nil {
		amenities = *in.Amenities
	}
	if in.Availability != nil {
		ranges = *in.Availability
	}
	return v.validateComposite(images, amenities, ranges)
}

// ValidateQuery проверяет параметры поиска после подстановки значений по умолчанию.
func (v *Validator) ValidateQuery(q domain.PropertyQuery) error {
	if err := v.structErr(q); err != nil {
		return err
	}
	f := q.Filters
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return domain.NewValidationError(domain.FieldError{Field: "min_price", Message: "must not exceed max_price"})
	}
	return nil
}

func (v *Validator) validateComposite(images, amenities []string, ranges []domain.AvailabilityRange) error {
	if !ValidateImageSources(images) {
		return domain.NewValidationError(domain.FieldError{
			Field:   "images",
			Message: "each image must be an http(s) URL ending in .jpg, .jpeg, .png, .gif or .webp, or an inline base64 image",
		})
	}

	if res := ValidateAmenities(v.catalog, amenities); !res.Valid {
		verr := domain.NewValidationError(domain.FieldError{
			Field:   "amenities",
			Message: fmt.Sprintf("invalid amenities: %s", strings.Join(res.InvalidAmenities, ", ")),
		})
		verr.Details = map[string]interface{}{
			"invalid_amenities": res.InvalidAmenities,
			"allowed_amenities": v.catalog.Names(),
		}
		return verr
	}

	if !ValidateAvailabilityRanges(ranges) {
		return domain.NewValidationError(domain.FieldError{
			Field:   "availability",
			Message: "each range needs parseable dates with start_date before end_date",
		})
	}
	return nil
}

func (v *Validator) structErr(s interface{}) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidationFailed, err)
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{
			Field:   fieldPath(fe),
			Message: describe(fe),
		})
	}
	return domain.NewValidationError(fields...)
}

// fieldPath отрезает имя корневой структуры: "CreatePropertyInput.cancellation_policy.policy_type" -> "cancellation_policy.policy_type".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have length at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s in length", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
