package form

import (
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vango-dev/signup/pkg/reactive"
)

// SchemaValidator validates a complete value set and returns messages keyed
// by field name. Messages that belong to no known field are stored under "".
type SchemaValidator interface {
	ValidateValues(values any) (map[string][]string, error)
}

// Sanitizer cleans untrusted text before it is stored in the form.
type Sanitizer interface {
	Sanitize(s string) string
}

// Getter is the read access cross-field validators get to the form.
type Getter interface {
	Get(field string) any
}

// Option configures a Form.
type Option func(*options)

type options struct {
	schema     SchemaValidator
	sanitizer  Sanitizer
	validators map[string][]Validator
	messages   map[string]string
}

// WithSchema runs s on every Validate and ValidateField.
func WithSchema(s SchemaValidator) Option {
	return func(o *options) { o.schema = s }
}

// WithSanitizer applies s to string fields tagged sanitize:"strict".
func WithSanitizer(s Sanitizer) Option {
	return func(o *options) { o.sanitizer = s }
}

// WithValidators adds validators for a field on top of its struct tags.
func WithValidators(field string, validators ...Validator) Option {
	return func(o *options) {
		if o.validators == nil {
			o.validators = make(map[string][]Validator)
		}
		o.validators[field] = append(o.validators[field], validators...)
	}
}

// WithMessages overrides the default messages of tag rules. Keys are
// "field/rule" (e.g., "confirmPassword/eqfield") or a bare rule name.
func WithMessages(messages map[string]string) Option {
	return func(o *options) {
		if o.messages == nil {
			o.messages = make(map[string]string)
		}
		for k, v := range messages {
			o.messages[k] = v
		}
	}
}

// Form is a type-safe form context with validation support.
// All state lives in signals sharing one scope, so Subscribe observers see
// one notification per logical operation.
type Form[T any] struct {
	initial T
	scope   *reactive.Scope

	values      *reactive.Signal[T]
	errors      *reactive.Signal[map[string][]string]
	touched     *reactive.Signal[map[string]bool]
	dirty       *reactive.Signal[map[string]bool]
	submitting  *reactive.Signal[bool]
	submitCount *reactive.Signal[int]
	submitError *reactive.Signal[string]

	schema    SchemaValidator
	sanitizer Sanitizer

	// fields lists leaf field names in declaration order.
	fields     []string
	fieldMeta  map[string]fieldMeta
	validators map[string][]Validator
	mu         sync.RWMutex

	inFlight atomic.Bool
}

// fieldMeta stores metadata extracted from struct tags.
type fieldMeta struct {
	label     string
	index     []int
	fieldType reflect.Type
	secret    bool
	sanitize  bool
}

// New creates a Form bound to the struct type of initial.
// The initial value is used as the default state and for Reset.
func New[T any](initial T, opts ...Option) *Form[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	scope := reactive.NewScope()
	f := &Form[T]{
		initial:     initial,
		scope:       scope,
		values:      reactive.Scoped(scope, initial),
		errors:      reactive.Scoped(scope, map[string][]string{}),
		touched:     reactive.Scoped(scope, map[string]bool{}),
		dirty:       reactive.Scoped(scope, map[string]bool{}),
		submitting:  reactive.Scoped(scope, false),
		submitCount: reactive.Scoped(scope, 0),
		submitError: reactive.Scoped(scope, ""),
		schema:      o.schema,
		sanitizer:   o.sanitizer,
		fieldMeta:   make(map[string]fieldMeta),
		validators:  make(map[string][]Validator),
	}

	f.parseStructTags(reflect.TypeOf(initial), "", nil, o.messages)
	for field, vs := range o.validators {
		f.validators[field] = append(f.validators[field], vs...)
	}
	return f
}

// parseStructTags extracts form, validate, label and sanitize tags.
func (f *Form[T]) parseStructTags(t reflect.Type, prefix string, index []int, messages map[string]string) {
	if t == nil {
		return
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name, secret := parseFormTag(field)
		if name == "-" {
			continue
		}
		fullPath := name
		if prefix != "" {
			fullPath = prefix + "." + name
		}
		fieldIndex := append(append([]int(nil), index...), i)

		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}

		nested := field.Type.Kind() == reflect.Struct
		f.fieldMeta[fullPath] = fieldMeta{
			label:     label,
			index:     fieldIndex,
			fieldType: field.Type,
			secret:    secret,
			sanitize:  field.Tag.Get("sanitize") == "strict",
		}

		if rules := field.Tag.Get("validate"); rules != "" {
			f.validators[fullPath] = parseValidateTag(rules, field.Type, func(rule string) string {
				if msg, ok := messages[fullPath+"/"+rule]; ok {
					return msg
				}
				return messages[rule]
			})
		}

		if nested {
			f.parseStructTags(field.Type, fullPath, fieldIndex, messages)
			continue
		}
		f.fields = append(f.fields, fullPath)
	}
}

// parseFormTag returns the field name and whether the field is secret.
// The name defaults to the lower-cased Go field name.
func parseFormTag(field reflect.StructField) (string, bool) {
	tag := field.Tag.Get("form")
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name, opts == "secret"
}

// Fields returns the leaf field names in declaration order.
func (f *Form[T]) Fields() []string {
	out := make([]string, len(f.fields))
	copy(out, f.fields)
	return out
}

// Label returns the label tag of a field, or its Go name.
func (f *Form[T]) Label(field string) string {
	if meta, ok := f.fieldMeta[field]; ok {
		return meta.label
	}
	return field
}

// Subscribe registers fn to run after any change to the form state.
// It returns a function that removes the subscription.
func (f *Form[T]) Subscribe(fn func()) func() {
	l := reactive.NewListener(fn)
	unsubs := []func(){
		f.values.Watch(l),
		f.errors.Watch(l),
		f.touched.Watch(l),
		f.dirty.Watch(l),
		f.submitting.Watch(l),
		f.submitCount.Watch(l),
		f.submitError.Watch(l),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Reset restores the form to its initial values and clears all state.
func (f *Form[T]) Reset() {
	f.scope.Batch(func() {
		f.values.Set(f.initial)
		f.errors.Set(map[string][]string{})
		f.touched.Set(map[string]bool{})
		f.dirty.Set(map[string]bool{})
		f.submitting.Set(false)
		f.submitCount.Set(0)
		f.submitError.Set("")
	})
}

// Touch marks a field as interacted with.
func (f *Form[T]) Touch(field string) {
	f.touched.Update(func(m map[string]bool) map[string]bool {
		return withFlag(m, field)
	})
}

// IsTouched returns true if the field has been interacted with.
func (f *Form[T]) IsTouched(field string) bool {
	return f.touched.Get()[field]
}

// touchAll marks every leaf field as touched.
func (f *Form[T]) touchAll() {
	all := make(map[string]bool, len(f.fields))
	for _, field := range f.fields {
		all[field] = true
	}
	f.touched.Set(all)
}

// IsDirty returns true if any field has been modified.
func (f *Form[T]) IsDirty() bool {
	return len(f.dirty.Get()) > 0
}

// FieldDirty returns true if the specific field has been modified.
func (f *Form[T]) FieldDirty(field string) bool {
	return f.dirty.Get()[field]
}

// IsSubmitting returns true while a Submit call is running.
func (f *Form[T]) IsSubmitting() bool {
	return f.submitting.Get()
}

// SubmitCount returns how many submissions passed validation.
func (f *Form[T]) SubmitCount() int {
	return f.submitCount.Get()
}

// SubmitError returns the form-level error of the last submission.
func (f *Form[T]) SubmitError() string {
	return f.submitError.Get()
}

// State is a serialisable snapshot of the form.
type State struct {
	Values      map[string]any      `json:"values"`
	Errors      map[string][]string `json:"errors"`
	Touched     map[string]bool     `json:"touched"`
	Dirty       bool                `json:"dirty"`
	Submitting  bool                `json:"submitting"`
	SubmitCount int                 `json:"submitCount"`
	SubmitError string              `json:"submitError,omitempty"`
	Valid       bool                `json:"valid"`
}

// State returns a snapshot of the form. Secret fields are left out of
// Values.
func (f *Form[T]) State() State {
	values := make(map[string]any, len(f.fields))
	for _, field := range f.fields {
		if f.fieldMeta[field].secret {
			continue
		}
		values[field] = f.Get(field)
	}

	errs := f.Errors()
	touched := make(map[string]bool)
	for k, v := range f.touched.Get() {
		touched[k] = v
	}

	return State{
		Values:      values,
		Errors:      errs,
		Touched:     touched,
		Dirty:       f.IsDirty(),
		Submitting:  f.IsSubmitting(),
		SubmitCount: f.SubmitCount(),
		SubmitError: f.SubmitError(),
		Valid:       len(errs) == 0,
	}
}

// withFlag returns a copy of m with key set.
func withFlag(m map[string]bool, key string) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = true
	return out
}
