package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"listing-service/schemas"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ключи схем: путь "requests/create-property/v1.json" -> "CreatePropertyRequest/1.0.0".
const (
	CreatePropertyRequest     = "CreatePropertyRequest/1.0.0"
	UpdatePropertyRequest     = "UpdatePropertyRequest/1.0.0"
	UpdateAvailabilityRequest = "UpdateAvailabilityRequest/1.0.0"
	UpdateStatusRequest       = "UpdateStatusRequest/1.0.0"

	UserDeletedEvent     = "UserDeletedEvent/1.0.0"
	PropertyChangedEvent = "PropertyChangedEvent/1.0.0"
)

var (
	ErrUnknownSchema = errors.New("schema not found")
	ErrInvalidJSON   = errors.New("body is not valid JSON")
)

// Violation - одно нарушение схемы; Field - путь в документе через точку.
type Violation struct {
	Field   string
	Message string
}

// SchemaError возвращается, если документ не соответствует схеме.
type SchemaError struct {
	Schema     string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("%s schema validation failed: %s", e.Schema, strings.Join(parts, "; "))
}

var compiledSchemas map[string]*jsonschema.Schema

func init() {
	var err error
	compiledSchemas, err = compileAll(schemas.SchemasFS, "requests", "events")
	if err != nil {
		panic(fmt.Sprintf("contracts: %v", err))
	}
}

// compileAll сначала регистрирует все файлы как ресурсы, чтобы работали $ref
// между ними, затем компилирует схемы из перечисленных каталогов.
func compileAll(fsys fs.FS, roots ...string) (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
			return err
		}
		file, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := compiler.AddResource(path, file); err != nil {
			return fmt.Errorf("failed to add schema resource %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	compiled := make(map[string]*jsonschema.Schema)
	for _, root := range roots {
		err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !strings.HasSuffix(path, ".json") {
				return err
			}
			key := generateKeyFromPath(path)
			if key == "" {
				return fmt.Errorf("unexpected schema path %s", path)
			}
			schema, err := compiler.Compile(path)
			if err != nil {
				return fmt.Errorf("could not compile schema %s: %w", path, err)
			}
			compiled[key] = schema
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return compiled, nil
}

var kindSuffix = map[string]string{
	"requests": "Request",
	"events":   "Event",
}

// generateKeyFromPath: "events/user-deleted/v1.json" -> "UserDeletedEvent/1.0.0"
func generateKeyFromPath(path string) string {
	parts := strings.Split(strings.TrimSuffix(path, ".json"), "/")
	if len(parts) != 3 || !strings.HasPrefix(parts[2], "v") {
		return ""
	}
	suffix, ok := kindSuffix[parts[0]]
	if !ok {
		return ""
	}

	caser := cases.Title(language.English)
	var name strings.Builder
	for _, p := range strings.Split(parts[1], "-") {
		name.WriteString(caser.String(p))
	}
	name.WriteString(suffix)

	return fmt.Sprintf("%s/%s.0.0", name.String(), strings.TrimPrefix(parts[2], "v"))
}

// Validate проверяет тело по схеме с ключом key.
func Validate(key string, body []byte) error {
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, key)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &SchemaError{Schema: key, Violations: violations(ve)}
		}
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}

// violations собирает листовые ошибки; корневые сообщения вида
// "doesn't validate with ..." не несут информации о поле.
func violations(ve *jsonschema.ValidationError) []Violation {
	var out []Violation
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, Violation{Field: fieldFromPointer(e.InstanceLocation), Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}

// "/availability/0/start_date" -> "availability[0].start_date", "" -> "body"
func fieldFromPointer(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "body"
	}
	var b strings.Builder
	for i, seg := range strings.Split(ptr, "/") {
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
