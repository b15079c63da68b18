package postgres

import (
	"fmt"
	"strings"

	"listing-service/internal/core/domain"
)

type queryBuilder struct {
	conditions []string
	args       []interface{}
	argId      int
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		argId:      1,
		conditions: make([]string, 0),
		args:       make([]interface{}, 0),
	}
}

func (qb *queryBuilder) addCondition(condition string, fieldName string, arg interface{}) {
	qb.conditions = append(qb.conditions, fmt.Sprintf(condition, fieldName, qb.argId))
	qb.args = append(qb.args, arg)
	qb.argId++
}

// AddFloatFilter - включительный диапазон, любая из границ может отсутствовать
func (qb *queryBuilder) AddFloatFilter(fieldName string, min *float64, max *float64) {
	if min != nil {
		qb.addCondition("%s >= $%d", fieldName, *min)
	}
	if max != nil {
		qb.addCondition("%s <= $%d", fieldName, *max)
	}
}

// AddSubstringFilter - регистронезависимый поиск подстроки
func (qb *queryBuilder) AddSubstringFilter(fieldName string, value string) {
	if value == "" {
		return
	}
	qb.addCondition("%s ILIKE $%d", fieldName, "%"+escapeLike(value)+"%")
}

// build возвращает WHERE-часть и аргументы
func (qb *queryBuilder) build() (string, []interface{}) {
	whereClause := ""
	if len(qb.conditions) > 0 {
		whereClause = "WHERE " + strings.Join(qb.conditions, " AND ")
	}
	return whereClause, qb.args
}

// applyFilters разбирает фильтры поиска в условия запроса
func applyFilters(filters domain.SearchFilters) (string, []interface{}) {
	qb := newQueryBuilder()

	if filters.OwnerID != nil {
		qb.addCondition("%s = $%d", "p.owner_id", *filters.OwnerID)
	}

	qb.AddSubstringFilter("p.city", filters.City)
	qb.AddSubstringFilter("p.country", filters.Country)
	qb.AddFloatFilter("p.price", filters.MinPrice, filters.MaxPrice)

	if filters.Bedrooms != nil {
		qb.addCondition("%s = $%d", "p.bedrooms", *filters.Bedrooms)
	}
	if filters.Bathrooms != nil {
		qb.addCondition("%s = $%d", "p.bathrooms", *filters.Bathrooms)
	}
	if filters.MaxGuests != nil {
		qb.addCondition("%s >= $%d", "p.max_guests", *filters.MaxGuests)
	}
	if filters.Status != nil {
		qb.addCondition("%s = $%d", "p.status", string(*filters.Status))
	}

	// Объявление должно содержать все запрошенные удобства
	if len(filters.Amenities) > 0 {
		qb.addCondition("%s @> $%d", "p.amenities", filters.Amenities)
	}

	if filters.GeohashPrefix != "" {
		qb.addCondition("%s LIKE $%d", "p.geohash", escapeLike(filters.GeohashPrefix)+"%")
	}

	return qb.build()
}

var sortColumns = map[domain.SortField]string{
	domain.SortByPrice:     "p.price",
	domain.SortByCreatedAt: "p.created_at",
	domain.SortByTitle:     "p.title",
}

// orderClause строит ORDER BY только из белого списка; id обеспечивает стабильные страницы.
func orderClause(sort domain.Sort) string {
	column, ok := sortColumns[sort.By]
	if !ok {
		column = sortColumns[domain.SortByCreatedAt]
	}
	direction := "DESC"
	if sort.Order == domain.SortAsc {
		direction = "ASC"
	}
	return fmt.Sprintf("ORDER BY %s %s, p.id ASC", column, direction)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
