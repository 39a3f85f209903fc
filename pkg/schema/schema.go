package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrCompile is returned when a schema document cannot be compiled.
var ErrCompile = errors.New("schema: compile failed")

// Schema is a compiled JSON Schema together with its source document.
// It is safe for concurrent use.
type Schema struct {
	url      string
	raw      []byte
	compiled *jsonschema.Schema
}

// Compile parses raw and compiles it under url.
func Compile(url string, raw []byte) (*Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: unmarshal %s: %v", ErrCompile, url, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)
	compiler.AssertFormat()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("%w: add resource %s: %v", ErrCompile, url, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCompile, url, err)
	}

	return &Schema{
		url:      url,
		raw:      append([]byte(nil), raw...),
		compiled: compiled,
	}, nil
}

// URL returns the location the schema was compiled under.
func (s *Schema) URL() string {
	return s.url
}

// Raw returns a copy of the schema document.
func (s *Schema) Raw() []byte {
	return append([]byte(nil), s.raw...)
}

// Issue is a single validation failure.
type Issue struct {
	// Field is the dotted instance path, "" for the document root.
	Field   string `json:"field"`
	Keyword string `json:"keyword"`
	Message string `json:"message"`
}

// Validate checks a decoded JSON document (as produced by encoding/json or
// jsonschema.UnmarshalJSON) and returns one issue per failing leaf.
// Missing required properties are reported on the property itself.
func (s *Schema) Validate(doc any) []Issue {
	err := s.compiled.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []Issue{{Message: err.Error()}}
	}

	var issues []Issue
	collectIssues(verr, &issues)
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Field != issues[j].Field {
			return issues[i].Field < issues[j].Field
		}
		return issues[i].Keyword < issues[j].Keyword
	})
	return issues
}

// ValidateValue encodes v as JSON and validates the result.
func (s *Schema) ValidateValue(v any) ([]Issue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("schema: encode %T: %w", v, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("schema: decode %T: %w", v, err)
	}
	return s.Validate(doc), nil
}

// ValidateJSON decodes raw JSON and validates it.
func (s *Schema) ValidateJSON(raw []byte) ([]Issue, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema: decode document: %w", err)
	}
	return s.Validate(doc), nil
}

// collectIssues walks the cause tree and appends its leaves.
func collectIssues(verr *jsonschema.ValidationError, out *[]Issue) {
	if len(verr.Causes) > 0 {
		for _, cause := range verr.Causes {
			collectIssues(cause, out)
		}
		return
	}

	field := strings.Join(verr.InstanceLocation, ".")
	switch k := verr.ErrorKind.(type) {
	case *kind.Required:
		for _, missing := range k.Missing {
			*out = append(*out, Issue{
				Field:   joinField(field, missing),
				Keyword: "required",
				Message: "This field is required",
			})
		}
	case *kind.AdditionalProperties:
		for _, prop := range k.Properties {
			*out = append(*out, Issue{
				Field:   joinField(field, prop),
				Keyword: "additionalProperties",
				Message: fmt.Sprintf("Unknown field %q", prop),
			})
		}
	default:
		*out = append(*out, Issue{
			Field:   field,
			Keyword: keyword(verr.ErrorKind),
			Message: defaultMessage(verr.ErrorKind),
		})
	}
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func keyword(k jsonschema.ErrorKind) string {
	path := k.KeywordPath()
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// defaultMessage renders a user-facing message for the common string
// keywords and falls back to the library's English text.
func defaultMessage(k jsonschema.ErrorKind) string {
	switch k := k.(type) {
	case *kind.MinLength:
		return fmt.Sprintf("Must be at least %d characters", k.Want)
	case *kind.MaxLength:
		return fmt.Sprintf("Must be at most %d characters", k.Want)
	case *kind.Pattern:
		return "Invalid format"
	case *kind.Format:
		if k.Want == "email" {
			return "Invalid email address"
		}
		return fmt.Sprintf("Must be a valid %s", k.Want)
	default:
		return k.LocalizedString(message.NewPrinter(language.English))
	}
}
