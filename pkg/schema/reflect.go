package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	invopop "github.com/invopop/jsonschema"
)

// Draft07 is the meta-schema URL written into reflected schemas.
const Draft07 = "http://json-schema.org/draft-07/schema#"

type reflectConfig struct {
	title       string
	description string
	id          string
}

// ReflectOption customises Reflect.
type ReflectOption func(*reflectConfig)

// WithTitle sets the schema title.
func WithTitle(title string) ReflectOption {
	return func(c *reflectConfig) { c.title = title }
}

// WithDescription sets the schema description.
func WithDescription(description string) ReflectOption {
	return func(c *reflectConfig) { c.description = description }
}

// WithID sets the $id of the schema.
func WithID(id string) ReflectOption {
	return func(c *reflectConfig) { c.id = id }
}

// Reflect generates a draft-07 JSON Schema for the struct type of v.
// Property names follow json tags and constraints come from jsonschema
// tags; only properties tagged jsonschema:"required" are required.
// Unknown properties are rejected.
func Reflect(v any, opts ...ReflectOption) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("schema: reflect nil value")
	}
	var cfg reflectConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &invopop.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(v)
	s.Version = Draft07
	if cfg.title != "" {
		s.Title = cfg.title
	}
	if cfg.description != "" {
		s.Description = cfg.description
	}
	if cfg.id != "" {
		s.ID = invopop.ID(cfg.id)
	}

	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("schema: marshal %T: %w", v, err)
	}
	return raw, nil
}

// MustCompileStruct reflects v and compiles the result. It panics on error
// and is meant for package-level schemas of known types.
func MustCompileStruct(v any, opts ...ReflectOption) *Schema {
	raw, err := Reflect(v, opts...)
	if err != nil {
		panic(err)
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s, err := Compile("mem://schemas/"+t.PkgPath()+"/"+t.Name()+".json", raw)
	if err != nil {
		panic(err)
	}
	return s
}
