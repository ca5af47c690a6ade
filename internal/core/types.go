package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Platform names understood by the registries of this module.
const (
	PlatformMySQL      = "mysql"
	PlatformMariaDB    = "mariadb"
	PlatformPostgreSQL = "postgresql"
	PlatformSQLServer  = "sqlserver"
	PlatformSQLite     = "sqlite"
	PlatformDB2        = "db2"
)

// DataType is the logical category of a column type.
type DataType string

const (
	DataTypeInteger    DataType = "integer"
	DataTypeSmallInt   DataType = "smallint"
	DataTypeBigInt     DataType = "bigint"
	DataTypeBoolean    DataType = "boolean"
	DataTypeString     DataType = "string"
	DataTypeText       DataType = "text"
	DataTypeBlob       DataType = "blob"
	DataTypeBinary     DataType = "binary"
	DataTypeDecimal    DataType = "decimal"
	DataTypeFloat      DataType = "float"
	DataTypeDate       DataType = "date"
	DataTypeDateTime   DataType = "datetime"
	DataTypeDateTimeTz DataType = "datetimetz"
	DataTypeTime       DataType = "time"
	DataTypeGUID       DataType = "guid"
	DataTypeJSON       DataType = "json"

	// DataTypeCustom is used by registered types whose storage is described
	// entirely by their per-platform declarations.
	DataTypeCustom DataType = "custom"
)

// IsNumeric reports whether values of the category are numbers.
func (d DataType) IsNumeric() bool {
	switch d {
	case DataTypeInteger, DataTypeSmallInt, DataTypeBigInt, DataTypeDecimal, DataTypeFloat:
		return true
	}
	return false
}

// IsCharacter reports whether values of the category carry a charset and collation.
func (d DataType) IsCharacter() bool {
	return d == DataTypeString || d == DataTypeText
}

// IsLOB reports whether the category is stored in length tiers on some platforms.
func (d DataType) IsLOB() bool {
	return d == DataTypeText || d == DataTypeBlob
}

// TypeDescriptor describes a named type: its logical category and the rules
// used to declare it on each platform.
type TypeDescriptor struct {
	Name     string   `json:"name"`
	Category DataType `json:"category"`

	// DefaultLength is applied when a column of this type has no length.
	DefaultLength int `json:"defaultLength,omitempty"`

	// Declarations maps a platform name to the SQL type used to store the
	// type there, e.g. {"mysql": "POINT"}. Built-in types leave it empty and
	// let the platform derive the declaration from the category.
	Declarations map[string]string `json:"declarations,omitempty"`
}

// Declaration returns the explicit declaration of the type on platform.
func (d TypeDescriptor) Declaration(platform string) (string, bool) {
	decl, ok := d.Declarations[strings.ToLower(platform)]
	return decl, ok && decl != ""
}

// TypeRegistry maps type names to descriptors. It is open: applications
// register their own types before building snapshots. Lookups are resolved
// once when a column is constructed and never during comparison.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]TypeDescriptor
}

// NewTypeRegistry returns a registry loaded with the built-in types.
func NewTypeRegistry() *TypeRegistry {
	r := &TypeRegistry{types: make(map[string]TypeDescriptor, len(builtinTypes))}
	for _, d := range builtinTypes {
		r.types[d.Name] = d
	}
	return r
}

var builtinTypes = []TypeDescriptor{
	{Name: "integer", Category: DataTypeInteger},
	{Name: "smallint", Category: DataTypeSmallInt},
	{Name: "bigint", Category: DataTypeBigInt},
	{Name: "boolean", Category: DataTypeBoolean},
	{Name: "string", Category: DataTypeString, DefaultLength: 255},
	{Name: "text", Category: DataTypeText},
	{Name: "blob", Category: DataTypeBlob},
	{Name: "binary", Category: DataTypeBinary, DefaultLength: 255},
	{Name: "decimal", Category: DataTypeDecimal},
	{Name: "float", Category: DataTypeFloat},
	{Name: "date", Category: DataTypeDate},
	{Name: "datetime", Category: DataTypeDateTime},
	{Name: "datetimetz", Category: DataTypeDateTimeTz},
	{Name: "time", Category: DataTypeTime},
	{Name: "guid", Category: DataTypeGUID},
	{Name: "json", Category: DataTypeJSON},
}

// Register adds a descriptor. Registering a name twice is an error.
func (r *TypeRegistry) Register(d TypeDescriptor) error {
	name := strings.ToLower(strings.TrimSpace(d.Name))
	if name == "" {
		return fmt.Errorf("register type: empty name")
	}
	if d.Category == "" {
		return fmt.Errorf("register type %q: empty category", d.Name)
	}
	d.Name = name
	if len(d.Declarations) > 0 {
		decls := make(map[string]string, len(d.Declarations))
		for p, decl := range d.Declarations {
			decls[strings.ToLower(p)] = strings.ToUpper(strings.TrimSpace(decl))
		}
		d.Declarations = decls
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[name]; ok {
		return fmt.Errorf("register type %q: already registered", name)
	}
	r.types[name] = d
	return nil
}

// Lookup returns the descriptor registered under name (case-insensitive).
func (r *TypeRegistry) Lookup(name string) (TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Names returns all registered type names in sorted order.
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// NewColumn builds a NOT NULL column of the named type with the type's
// default length applied.
func (r *TypeRegistry) NewColumn(name, typeName string) (*Column, error) {
	d, ok := r.Lookup(typeName)
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	return &Column{Name: name, Type: d, Length: d.DefaultLength}, nil
}

// byDeclaration finds a registered custom type declared as decl on platform.
func (r *TypeRegistry) byDeclaration(platform, decl string) (TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.types {
		if have, ok := d.Declaration(platform); ok && strings.EqualFold(have, decl) {
			return d, true
		}
	}
	return TypeDescriptor{}, false
}

// UnknownTypeError is returned when a type name or raw declaration cannot be
// resolved through the registry.
type UnknownTypeError struct {
	Platform string
	Type     string
}

func (e *UnknownTypeError) Error() string {
	if e.Platform != "" {
		return fmt.Sprintf("unknown %s type %q", e.Platform, e.Type)
	}
	return fmt.Sprintf("unknown type %q", e.Type)
}
