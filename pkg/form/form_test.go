package form

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testSignup struct {
	Username string `form:"username" validate:"required,minlen=3" sanitize:"strict"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password,secret" validate:"required,minlen=8"`
	Confirm  string `form:"confirmPassword,secret" validate:"required,eqfield=password" label:"Confirm password"`
	Terms    bool   `form:"acceptTerms" validate:"checked"`
}

type testProfile struct {
	Name    string      `form:"name" validate:"required"`
	Age     int         `form:"age" validate:"min=18"`
	Address testAddress `form:"address"`
	note    string
}

type testAddress struct {
	City string `form:"city" validate:"required"`
	Zip  string `form:"zip" validate:"numeric"`
}

type stripTags struct{}

func (stripTags) Sanitize(s string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(s)
}

type fakeSchema struct {
	issues map[string][]string
	err    error
}

func (s fakeSchema) ValidateValues(any) (map[string][]string, error) {
	return s.issues, s.err
}

func validSignup() testSignup {
	return testSignup{
		Username: "ada",
		Email:    "ada@example.com",
		Password: "correct horse",
		Confirm:  "correct horse",
		Terms:    true,
	}
}

func TestNewParsesFields(t *testing.T) {
	f := New(testProfile{})

	want := []string{"name", "age", "address.city", "address.zip"}
	if diff := cmp.Diff(want, f.Fields()); diff != "" {
		t.Errorf("Fields() mismatch (-want +got):\n%s", diff)
	}
	if got := New(testSignup{}).Label("confirmPassword"); got != "Confirm password" {
		t.Errorf("Label = %q", got)
	}
	if got := f.Label("name"); got != "Name" {
		t.Errorf("Label default = %q, want Go field name", got)
	}
}

func TestGetSet(t *testing.T) {
	f := New(testProfile{Name: "Ada"})

	if got := f.GetString("name"); got != "Ada" {
		t.Errorf("GetString(name) = %q", got)
	}
	if f.IsDirty() {
		t.Error("new form should not be dirty")
	}

	f.Set("address.city", "London")
	f.Set("age", "42")
	f.Set("unknown", "x")

	if got := f.Values().Address.City; got != "London" {
		t.Errorf("nested Set: City = %q", got)
	}
	if got := f.Get("age"); got != 0 {
		t.Errorf("string should not convert into int field, got %v", got)
	}
	f.Set("age", 42)
	if got := f.Get("age"); got != 42 {
		t.Errorf("age = %v", got)
	}
	if !f.FieldDirty("address.city") || f.FieldDirty("name") {
		t.Errorf("dirty state wrong: %v", f.State())
	}
	if f.Get("unknown") != nil {
		t.Error("unknown field should be nil")
	}
}

func TestSetSanitizes(t *testing.T) {
	f := New(testSignup{}, WithSanitizer(stripTags{}))

	f.Set("username", "<b>ada</b>")
	f.Set("email", "<b>x")

	if got := f.GetString("username"); got != "bada/b" {
		t.Errorf("username = %q", got)
	}
	if got := f.GetString("email"); got != "<b>x" {
		t.Errorf("untagged field should not be sanitized, got %q", got)
	}
}

func TestSetValuesSanitizes(t *testing.T) {
	f := New(testSignup{}, WithSanitizer(stripTags{}))

	v := validSignup()
	v.Username = "<b>ada</b>"
	v.Email = "<b>x"
	f.SetValues(v)

	if got := f.GetString("username"); got != "bada/b" {
		t.Errorf("username = %q", got)
	}
	if got := f.GetString("email"); got != "<b>x" {
		t.Errorf("untagged field should not be sanitized, got %q", got)
	}
}

func TestSetValuesMatchesBind(t *testing.T) {
	bound := New(testSignup{}, WithSanitizer(stripTags{}))
	set := New(testSignup{}, WithSanitizer(stripTags{}))

	v := validSignup()
	v.Username = "<ada>"
	if err := bound.Bind(url.Values{
		"username":        {v.Username},
		"email":           {v.Email},
		"password":        {v.Password},
		"confirmPassword": {v.Confirm},
		"acceptTerms":     {"on"},
	}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	set.SetValues(v)

	if diff := cmp.Diff(bound.Values(), set.Values()); diff != "" {
		t.Errorf("SetValues and Bind disagree (-bind +set):\n%s", diff)
	}
	if bound.Validate() != set.Validate() {
		t.Error("SetValues and Bind should validate the same")
	}
}

func TestSetValuesAndReset(t *testing.T) {
	f := New(testSignup{Username: "initial"})

	f.SetValues(validSignup())
	if !f.FieldDirty("acceptTerms") {
		t.Error("SetValues should mark fields dirty")
	}
	f.Validate()
	f.Touch("username")

	f.Reset()
	if diff := cmp.Diff(testSignup{Username: "initial"}, f.Values()); diff != "" {
		t.Errorf("Reset values mismatch (-want +got):\n%s", diff)
	}
	if f.IsDirty() || f.IsTouched("username") || !f.IsValid() {
		t.Errorf("Reset left state behind: %+v", f.State())
	}
}

func TestValidateEmptyForm(t *testing.T) {
	f := New(testSignup{})

	if f.Validate() {
		t.Fatal("empty form should be invalid")
	}

	want := map[string][]string{
		"username":        {"This field is required"},
		"email":           {"This field is required"},
		"password":        {"This field is required"},
		"confirmPassword": {"This field is required"},
		"acceptTerms":     {"This box must be checked"},
	}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Errorf("Errors() mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateValidForm(t *testing.T) {
	f := New(validSignup())
	if !f.Validate() {
		t.Errorf("expected valid form, errors: %v", f.Errors())
	}
}

func TestEqualToUsesFormValues(t *testing.T) {
	v := validSignup()
	v.Confirm = "something else"
	f := New(v)

	if f.Validate() {
		t.Fatal("mismatched confirmation should fail")
	}
	want := map[string][]string{"confirmPassword": {"Must match password"}}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Errorf("Errors() mismatch (-want +got):\n%s", diff)
	}

	f.Set("confirmPassword", v.Password)
	if !f.ValidateField("confirmPassword") {
		t.Errorf("matching confirmation should pass: %v", f.FieldErrors("confirmPassword"))
	}
}

func TestNotEqualTo(t *testing.T) {
	type change struct {
		Old string `form:"old"`
		New string `form:"new" validate:"nefield=old"`
	}
	f := New(change{Old: "secret", New: "secret"})
	if f.Validate() {
		t.Fatal("equal fields should fail nefield")
	}
	f.Set("new", "fresh")
	if !f.Validate() {
		t.Errorf("different fields should pass: %v", f.Errors())
	}
}

func TestValidateFieldIsolation(t *testing.T) {
	f := New(testSignup{})
	f.SetError("email", "kept")

	if f.ValidateField("username") {
		t.Fatal("empty username should fail")
	}
	if !f.IsTouched("username") || f.IsTouched("email") {
		t.Error("ValidateField should only touch its field")
	}
	if diff := cmp.Diff([]string{"kept"}, f.FieldErrors("email")); diff != "" {
		t.Errorf("other field errors changed (-want +got):\n%s", diff)
	}

	f.Set("username", "ada")
	if !f.ValidateField("username") {
		t.Errorf("username should pass: %v", f.FieldErrors("username"))
	}
	if f.HasError("username") {
		t.Error("errors should be cleared for a now-valid field")
	}
}

func TestWithValidators(t *testing.T) {
	reserved := Custom(func(v any) error {
		if v == "admin" {
			return errors.New("reserved")
		}
		return nil
	})
	f := New(validSignup(), WithValidators("username", reserved))

	f.Set("username", "admin")
	if f.ValidateField("username") {
		t.Fatal("custom validator should reject admin")
	}
	if diff := cmp.Diff([]string{"reserved"}, f.FieldErrors("username")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaValidator(t *testing.T) {
	schema := fakeSchema{issues: map[string][]string{
		"username": {"Username may only contain letters, digits and underscores", "This field is required"},
		"nickname": {"unexpected property"},
	}}
	f := New(testSignup{}, WithSchema(schema))

	f.Validate()

	// schema messages come first and duplicates with tag messages collapse
	wantUser := []string{"Username may only contain letters, digits and underscores", "This field is required"}
	if diff := cmp.Diff(wantUser, f.FieldErrors("username")); diff != "" {
		t.Errorf("username errors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"unexpected property"}, f.FieldErrors("")); diff != "" {
		t.Errorf("form-level errors (-want +got):\n%s", diff)
	}

	f.ClearErrors()
	f.ValidateField("email")
	if f.HasError("") || f.HasError("username") {
		t.Errorf("ValidateField should ignore other schema issues: %v", f.Errors())
	}
}

func TestSchemaValidatorError(t *testing.T) {
	f := New(validSignup(), WithSchema(fakeSchema{err: errors.New("schema unavailable")}))
	if f.Validate() {
		t.Fatal("schema failure should invalidate the form")
	}
	if diff := cmp.Diff([]string{"schema unavailable"}, f.FieldErrors("")); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSetErrors(t *testing.T) {
	f := New(testSignup{})
	f.SetErrors(map[string][]string{"email": {"taken"}, "username": nil})

	want := map[string][]string{"email": {"taken"}}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	f.SetError("email", "second")
	if got := len(f.FieldErrors("email")); got != 2 {
		t.Errorf("SetError should append, got %d errors", got)
	}
}

func TestBind(t *testing.T) {
	f := New(testSignup{Terms: true}, WithSanitizer(stripTags{}))

	err := f.Bind(url.Values{
		"username":        {"<i>ada</i>"},
		"email":           {"ada@example.com"},
		"password":        {"pw"},
		"confirmPassword": {"pw"},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	want := testSignup{
		Username: "iada/i",
		Email:    "ada@example.com",
		Password: "pw",
		Confirm:  "pw",
		Terms:    false,
	}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Errorf("Bind mismatch (-want +got):\n%s", diff)
	}

	if err := f.Bind(url.Values{"acceptTerms": {"on"}}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !f.GetBool("acceptTerms") || f.GetString("email") != "ada@example.com" {
		t.Errorf("second Bind: %+v", f.Values())
	}
}

func TestBindConversionError(t *testing.T) {
	f := New(testProfile{Age: 30})

	err := f.Bind(url.Values{"name": {"Ada"}, "age": {"thirty"}})
	if err == nil {
		t.Fatal("expected conversion error")
	}
	if f.GetString("name") != "Ada" {
		t.Error("valid fields should still bind")
	}
	if f.Get("age") != 30 {
		t.Errorf("failed field should keep its value, got %v", f.Get("age"))
	}

	if err := f.Bind(url.Values{"age": {" 21 "}}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if f.Get("age") != 21 {
		t.Errorf("age = %v", f.Get("age"))
	}
}

func TestStateOmitsSecrets(t *testing.T) {
	f := New(validSignup())
	f.Touch("email")

	s := f.State()
	want := map[string]any{
		"username":    "ada",
		"email":       "ada@example.com",
		"acceptTerms": true,
	}
	if diff := cmp.Diff(want, s.Values); diff != "" {
		t.Errorf("State().Values mismatch (-want +got):\n%s", diff)
	}
	if !s.Valid || s.Submitting || !s.Touched["email"] {
		t.Errorf("unexpected state: %+v", s)
	}
}

func TestSubscribeBatchesNotifications(t *testing.T) {
	f := New(testSignup{})
	calls := 0
	unsubscribe := f.Subscribe(func() { calls++ })

	f.Set("username", "ada")
	if calls != 1 {
		t.Errorf("Set notified %d times, want 1", calls)
	}

	calls = 0
	f.ValidateField("email")
	if calls != 1 {
		t.Errorf("ValidateField notified %d times, want 1", calls)
	}

	calls = 0
	f.Reset()
	if calls != 1 {
		t.Errorf("Reset notified %d times, want 1", calls)
	}

	unsubscribe()
	calls = 0
	f.Set("username", "bob")
	if calls != 0 {
		t.Errorf("notified after unsubscribe")
	}
}

func TestWithMessages(t *testing.T) {
	v := validSignup()
	v.Confirm = "nope"
	v.Terms = false
	f := New(v, WithMessages(map[string]string{
		"confirmPassword/eqfield": "Passwords do not match",
		"checked":                 "You must accept the terms",
	}))

	f.Validate()
	want := map[string][]string{
		"confirmPassword": {"Passwords do not match"},
		"acceptTerms":     {"You must accept the terms"},
	}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Errorf("Errors() mismatch (-want +got):\n%s", diff)
	}
}
