package validation

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"listing-service/internal/core/domain"
)

// AmenitiesResult - результат проверки удобств по справочнику
type AmenitiesResult struct {
	Valid            bool
	InvalidAmenities []string
}

// ValidateAmenities проверяет каждое имя по справочнику.
// Сравнение точное и регистрозависимое, порядок недопустимых имен сохраняется.
func ValidateAmenities(catalog domain.AmenityCatalog, names []string) AmenitiesResult {
	invalid := make([]string, 0)
	for _, n := range names {
		if !catalog.Contains(n) {
			invalid = append(invalid, n)
		}
	}
	return AmenitiesResult{Valid: len(invalid) == 0, InvalidAmenities: invalid}
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseDate разбирает календарную дату в одном из поддерживаемых форматов.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidateAvailabilityRanges - все интервалы разбираются и начало строго раньше конца.
// Одного плохого интервала достаточно, чтобы отклонить весь набор. Пересечения не проверяются.
func ValidateAvailabilityRanges(ranges []domain.AvailabilityRange) bool {
	for _, r := range ranges {
		start, ok := ParseDate(r.StartDate)
		if !ok {
			return false
		}
		end, ok := ParseDate(r.EndDate)
		if !ok {
			return false
		}
		if !start.Before(end) {
			return false
		}
	}
	return true
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
}

// IsImageReference - абсолютный http(s) URL, путь которого оканчивается разрешенным расширением.
func IsImageReference(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	path := strings.ToLower(u.Path)
	dot := strings.LastIndex(path, ".")
	if dot < 0 || strings.Contains(path[dot:], "/") {
		return false
	}
	_, ok := imageExtensions[path[dot:]]
	return ok
}

// ValidateImageReferences - каждый элемент должен быть ссылкой на изображение.
func ValidateImageReferences(urls []string) bool {
	for _, u := range urls {
		if !IsImageReference(u) {
			return false
		}
	}
	return true
}

var dataURIPattern = regexp.MustCompile(`(?i)^data:image/(jpeg|jpg|png|gif|webp);base64,[A-Za-z0-9+/]+={0,2}$`)

// IsInlineImage - изображение, переданное прямо в запросе в виде data URI.
func IsInlineImage(raw string) bool {
	return dataURIPattern.MatchString(raw)
}

// ValidateImageSources допускает ссылки на изображения и inline-данные.
func ValidateImageSources(sources []string) bool {
	for _, s := range sources {
		if !IsImageReference(s) && !IsInlineImage(s) {
			return false
		}
	}
	return true
}
