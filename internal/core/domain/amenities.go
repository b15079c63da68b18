package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultAmenitiesVersion - версия встроенного справочника удобств
const DefaultAmenitiesVersion = "2024-06"

var defaultAmenities = []string{
	"wifi", "kitchen", "washing_machine", "air_conditioning", "heating", "tv",
	"parking", "pool", "gym", "balcony", "garden", "fireplace", "hot_tub", "bbq",
	"dishwasher", "microwave", "coffee_machine", "iron", "hair_dryer", "towels",
	"bed_linen", "soap", "toilet_paper", "shampoo", "first_aid_kit",
	"fire_extinguisher", "smoke_alarm", "carbon_monoxide_alarm",
}

// AmenityCatalog - версионированный справочник допустимых удобств.
// Передается в сервис как конфигурация, а не хранится в коде сценариев.
type AmenityCatalog struct {
	version string
	names   []string
	index   map[string]struct{}
}

// AmenityItem - элемент справочника для клиента
type AmenityItem struct {
	SystemName  string `json:"system_name"`
	DisplayName string `json:"display_name"`
}

func NewAmenityCatalog(version string, names []string) AmenityCatalog {
	c := AmenityCatalog{
		version: version,
		names:   make([]string, 0, len(names)),
		index:   make(map[string]struct{}, len(names)),
	}
	for _, n := range names {
		if _, dup := c.index[n]; dup || n == "" {
			continue
		}
		c.index[n] = struct{}{}
		c.names = append(c.names, n)
	}
	return c
}

func DefaultAmenityCatalog() AmenityCatalog {
	return NewAmenityCatalog(DefaultAmenitiesVersion, defaultAmenities)
}

func (c AmenityCatalog) Version() string { return c.version }

// Contains - точное, регистрозависимое сравнение.
func (c AmenityCatalog) Contains(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names возвращает копию списка в порядке справочника.
func (c AmenityCatalog) Names() []string {
	return append([]string{}, c.names...)
}

// Items строит человекочитаемые названия: "hot_tub" -> "Hot Tub".
func (c AmenityCatalog) Items() []AmenityItem {
	caser := cases.Title(language.English)
	items := make([]AmenityItem, 0, len(c.names))
	for _, n := range c.names {
		items = append(items, AmenityItem{
			SystemName:  n,
			DisplayName: caser.String(strings.ReplaceAll(n, "_", " ")),
		})
	}
	return items
}
