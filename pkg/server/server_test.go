package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/middleware"
	"github.com/vango-dev/signup/pkg/submit"
)

func newTestServer(t *testing.T, opts ...func(*Config)) *Server {
	t.Helper()
	sim := submit.NewSimulator(submit.NewMemoryStore())
	sim.Delay = 0
	sim.Reserved = []string{"admin"}
	sim.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	config := Config{
		Submitter: sim,
		Metrics:   middleware.NewMetrics(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&config)
	}
	s, err := New(config)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, s *Server, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, s, http.MethodPost, "/signup", strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func postJSON(t *testing.T, s *Server, target string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	switch v := v.(type) {
	case string:
		body = []byte(v)
	default:
		var err error
		body, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	return do(t, s, http.MethodPost, target, bytes.NewReader(body), "application/json")
}

func validForm() url.Values {
	return url.Values{
		"username":        {"ada_lovelace"},
		"email":           {"ada@example.com"},
		"password":        {"analytical-engine"},
		"confirmPassword": {"analytical-engine"},
		"acceptTerms":     {"on"},
	}
}

func validJSON() map[string]any {
	return map[string]any{
		"username":        "ada_lovelace",
		"email":           "ada@example.com",
		"password":        "analytical-engine",
		"confirmPassword": "analytical-engine",
		"acceptTerms":     true,
	}
}

func TestNew_RequiresSubmitter(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoSubmitter) {
		t.Fatalf("err = %v, want ErrNoSubmitter", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Live: LiveConfig{ReadTimeout: 10 * time.Second, PingInterval: time.Minute}}.withDefaults()
	if c.Address != ":8080" || c.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if c.Live.PingInterval != 9*time.Second {
		t.Errorf("PingInterval = %v, want 9s", c.Live.PingInterval)
	}
	if c.Live.CheckOrigin == nil || c.Logger == nil {
		t.Error("CheckOrigin and Logger should be set")
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"http://evil.com", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://example.com/live", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := SameOriginCheck(r); got != tt.want {
			t.Errorf("SameOriginCheck(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestRootRedirects(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/signup" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestSignupPage(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/signup", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<form action="/signup"`,
		`<script defer src="/static/live.js">`,
		"Create account",
		`id="signup-notice"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestSignupPost(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(url.Values)
		status int
		want   string
	}{
		{"valid", func(url.Values) {}, http.StatusOK, "created"},
		{"missing terms", func(v url.Values) { v.Del("acceptTerms") }, http.StatusUnprocessableEntity, "You must accept the terms to continue"},
		{"mismatch", func(v url.Values) { v.Set("confirmPassword", "other-password") }, http.StatusUnprocessableEntity, "Passwords do not match"},
		{"reserved", func(v url.Values) { v.Set("username", "admin") }, http.StatusConflict, submit.ErrUsernameTaken.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			values := validForm()
			tt.edit(values)

			rec := postForm(t, s, values)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			body := rec.Body.String()
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
			if strings.Contains(body, "analytical-engine") {
				t.Error("password echoed in page")
			}
		})
	}
}

func TestSignupPost_DuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	if rec := postForm(t, s, validForm()); rec.Code != http.StatusOK {
		t.Fatalf("first signup status = %d", rec.Code)
	}
	values := validForm()
	values.Set("username", "ADA_LOVELACE")
	if rec := postForm(t, s, values); rec.Code != http.StatusConflict {
		t.Fatalf("second signup status = %d, want 409", rec.Code)
	}
}

func TestAPIValidate(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body any
		want validateResponse
	}{
		{
			name: "single field",
			body: map[string]any{"field": "email", "values": map[string]any{"email": "nope", "username": "x"}},
			want: validateResponse{Errors: map[string][]string{"email": {"Enter a valid email address"}}},
		},
		{
			name: "single valid field",
			body: map[string]any{"field": "username", "values": map[string]any{"username": "ada"}},
			want: validateResponse{Valid: true, Errors: map[string][]string{}},
		},
		{
			name: "whole form",
			body: map[string]any{"values": validJSON()},
			want: validateResponse{Valid: true, Errors: map[string][]string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s, "/api/signup/validate", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body)
			}
			var got validateResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("response mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAPIValidate_BadRequests(t *testing.T) {
	s := newTestServer(t)
	for name, body := range map[string]string{
		"malformed":     `{"values":`,
		"unknown field": `{"field":"nickname","values":{}}`,
		"unknown value": `{"values":{"nickname":"x"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			if rec := postJSON(t, s, "/api/signup/validate", body); rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAPISubmit(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/api/signup", validJSON())
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var created struct {
		Receipt submit.Receipt `json:"receipt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Receipt.ID == "" || created.Receipt.Username != "ada_lovelace" {
		t.Errorf("unexpected receipt %+v", created.Receipt)
	}
	if strings.Contains(rec.Body.String(), "analytical-engine") {
		t.Error("password leaked into response")
	}

	rec = postJSON(t, s, "/api/signup", validJSON())
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", rec.Code)
	}

	invalid := validJSON()
	delete(invalid, "email")
	rec = postJSON(t, s, "/api/signup", invalid)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid status = %d, want 422", rec.Code)
	}
	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(map[string][]string{"email": {"This field is required"}}, resp.Errors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestAPISubmit_SanitizesLikePagePost(t *testing.T) {
	s := newTestServer(t)

	values := validJSON()
	values["username"] = " ada_l "
	values["email"] = "ada@example.com "

	rec := postJSON(t, s, "/api/signup/validate", map[string]any{"values": values})
	var checked validateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &checked); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !checked.Valid {
		t.Errorf("validate rejected padded input: %v", checked.Errors)
	}

	rec = postJSON(t, s, "/api/signup", values)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var created struct {
		Receipt submit.Receipt `json:"receipt"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Receipt.Username != "ada_l" || created.Receipt.Email != "ada@example.com" {
		t.Errorf("receipt not sanitized: %+v", created.Receipt)
	}
}

func TestOversizedBody(t *testing.T) {
	s := newTestServer(t)
	big := strings.Repeat("a", maxBodyBytes+1)

	post := validForm()
	post.Set("username", big)
	if rec := postForm(t, s, post); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("form post status = %d, want 413", rec.Code)
	}

	values := validJSON()
	values["username"] = big
	for _, target := range []string{"/api/signup", "/api/signup/validate"} {
		body := any(values)
		if target == "/api/signup/validate" {
			body = map[string]any{"values": values}
		}
		if rec := postJSON(t, s, target, body); rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("%s status = %d, want 413", target, rec.Code)
		}
	}
}

func TestAPISchema(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/signup/schema", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/schema+json" {
		t.Errorf("content type = %q", ct)
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := doc["properties"]; !ok {
		t.Errorf("schema has no properties: %v", doc)
	}
}

func TestStaticAndProbes(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}

	rec = do(t, s, http.MethodGet, "/static/live.js", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "WebSocket") {
		t.Errorf("live.js = %d", rec.Code)
	}

	postForm(t, s, validForm())
	rec = do(t, s, http.MethodGet, "/metrics", nil, "")
	if !strings.Contains(rec.Body.String(), `signup_form_submissions_total{result="success"} 1`) {
		t.Errorf("metrics missing submission counter:\n%s", rec.Body)
	}
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.Metrics = nil })
	if rec := do(t, s, http.MethodGet, "/metrics", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404", rec.Code)
	}
	if rec := postForm(t, s, validForm()); rec.Code != http.StatusOK {
		t.Errorf("signup without metrics status = %d", rec.Code)
	}
}

func TestSubmitResult(t *testing.T) {
	tests := []struct {
		err    error
		result string
		status int
	}{
		{nil, resultSuccess, http.StatusOK},
		{form.ErrInvalid, resultInvalid, http.StatusUnprocessableEntity},
		{form.ErrSubmitInProgress, resultBusy, http.StatusConflict},
		{&submit.FieldError{Field: "username", Err: submit.ErrUsernameTaken}, resultConflict, http.StatusConflict},
		{fmt.Errorf("wait: %w", context.Canceled), resultCancelled, http.StatusServiceUnavailable},
		{errors.New("boom"), resultError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		result := submitResult(tt.err)
		if result != tt.result {
			t.Errorf("submitResult(%v) = %q, want %q", tt.err, result, tt.result)
		}
		if got := statusFor(result); got != tt.status {
			t.Errorf("statusFor(%q) = %d, want %d", result, got, tt.status)
		}
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
