package signup

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/schema"
	"github.com/vango-dev/signup/pkg/submit"
)

// SchemaID is the $id of the signup JSON Schema.
const SchemaID = "https://signup.vango.dev/schema/signup.json"

// UsernamePattern restricts usernames to letters, digits and underscores.
const UsernamePattern = `^[A-Za-z0-9_]+$`

// Values are the fields of the signup form.
type Values struct {
	Username        string `json:"username,omitempty" form:"username" label:"Username" sanitize:"strict" jsonschema:"required,minLength=3,maxLength=20,pattern=^[A-Za-z0-9_]+$,title=Username"`
	Email           string `json:"email,omitempty" form:"email" label:"Email" sanitize:"strict" jsonschema:"required,format=email,maxLength=254,title=Email"`
	Password        string `json:"password,omitempty" form:"password,secret" label:"Password" jsonschema:"required,minLength=8,maxLength=64,title=Password"`
	ConfirmPassword string `json:"confirmPassword,omitempty" form:"confirmPassword,secret" label:"Confirm password" validate:"required,eqfield=password" jsonschema:"title=Confirm password"`
	AcceptTerms     bool   `json:"acceptTerms,omitempty" form:"acceptTerms" label:"I accept the terms of service" validate:"checked" jsonschema:"title=Accept terms"`
}

// Request converts the values into a submission request.
func (v Values) Request() submit.Request {
	return submit.Request{
		Username: v.Username,
		Email:    v.Email,
		Password: v.Password,
	}
}

// Messages are the user-facing texts for schema issues.
var Messages = schema.Messages{
	"required":           "This field is required",
	"username/minLength": "Username must be at least 3 characters",
	"username/maxLength": "Username must be at most 20 characters",
	"username/pattern":   "Username may only contain letters, numbers and underscores",
	"email/format":       "Enter a valid email address",
	"email/maxLength":    "Email must be at most 254 characters",
	"password/minLength": "Password must be at least 8 characters",
	"password/maxLength": "Password must be at most 64 characters",
}

// ruleMessages are the user-facing texts for validate tag rules.
var ruleMessages = map[string]string{
	"required":                "This field is required",
	"confirmPassword/eqfield": "Passwords do not match",
	"acceptTerms/checked":     "You must accept the terms to continue",
}

var (
	schemaOnce sync.Once
	compiled   *schema.Schema

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

// Schema returns the compiled signup schema. It is built once.
func Schema() *schema.Schema {
	schemaOnce.Do(func() {
		compiled = schema.MustCompileStruct(Values{},
			schema.WithID(SchemaID),
			schema.WithTitle("Signup"),
			schema.WithDescription("Account creation form"),
		)
	})
	return compiled
}

// NewForm returns a fresh form context wired to the signup schema and the
// strict input sanitizer.
func NewForm() *form.Form[Values] {
	return form.New(Values{},
		form.WithSchema(schema.FormValidator(Schema(), Messages)),
		form.WithSanitizer(Sanitizer()),
		form.WithMessages(ruleMessages),
	)
}

// StrictSanitizer strips all markup from text input. The result is plain
// text; escaping is left to the renderer.
type StrictSanitizer struct {
	policy *bluemonday.Policy
}

// Sanitizer returns the shared strict sanitizer.
func Sanitizer() StrictSanitizer {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return StrictSanitizer{policy: policy}
}

// Sanitize removes tags and surrounding whitespace from s.
func (s StrictSanitizer) Sanitize(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(trimmed)))
}
