// Package schemas содержит JSON-схемы тел запросов и событий сервиса.
package schemas

import "embed"

//go:embed requests events common
var SchemasFS embed.FS
