package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/signup/internal/signup"
	"github.com/vango-dev/signup/pkg/form"
	"github.com/vango-dev/signup/pkg/middleware"
	"github.com/vango-dev/signup/pkg/render"
)

// maxBodyBytes limits form posts and JSON bodies.
const maxBodyBytes = 64 * 1024

// Submission results, used as metric labels.
const (
	resultSuccess   = "success"
	resultInvalid   = "invalid"
	resultConflict  = "conflict"
	resultBusy      = "busy"
	resultCancelled = "cancelled"
	resultError     = "error"
)

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, http.StatusOK, signup.NewForm(), signup.Notice{})
}

func (s *Server) handleSignupPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		if status := bodyStatus(err); status != http.StatusBadRequest {
			http.Error(w, http.StatusText(status), status)
			return
		}
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	f := signup.NewForm()
	if err := f.Bind(r.PostForm); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	notice, err := s.submit(r.Context(), f, s.config.Submitter)
	status := statusFor(submitResult(err))
	if err == nil {
		// A fresh form so the page does not echo the created account.
		f = signup.NewForm()
	}
	s.writePage(w, r, status, f, notice)
}

// validateRequest is the body of POST /api/signup/validate.
type validateRequest struct {
	Field  string          `json:"field,omitempty"`
	Values json.RawMessage `json:"values"`
}

// validateResponse is the reply of POST /api/signup/validate.
type validateResponse struct {
	Valid  bool                `json:"valid"`
	Errors map[string][]string `json:"errors"`
}

func (s *Server) handleAPIValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, bodyStatus(err), err.Error())
		return
	}

	var values signup.Values
	if len(req.Values) > 0 {
		if err := decodeStrict(req.Values, &values); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("values: %v", err))
			return
		}
	}

	f := signup.NewForm()
	f.SetValues(values)

	resp := validateResponse{Errors: map[string][]string{}}
	if req.Field == "" {
		resp.Valid = f.Validate()
		resp.Errors = f.Errors()
	} else {
		if !knownField(f, req.Field) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown field %q", req.Field))
			return
		}
		resp.Valid = f.ValidateField(req.Field)
		if errs := f.FieldErrors(req.Field); len(errs) > 0 {
			resp.Errors[req.Field] = errs
		}
	}
	if !resp.Valid {
		s.metrics.RecordValidation(resp.Errors)
	}
	writeJSON(w, http.StatusOK, resp)
}

// submitResponse is the reply of POST /api/signup.
type submitResponse struct {
	Message string              `json:"message"`
	Receipt any                 `json:"receipt,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	var values signup.Values
	if err := decodeJSON(w, r, &values); err != nil {
		writeError(w, bodyStatus(err), err.Error())
		return
	}

	f := signup.NewForm()
	f.SetValues(values)

	notice, err := s.submit(r.Context(), f, s.config.Submitter)
	result := submitResult(err)
	resp := submitResponse{Message: notice.Message}

	switch result {
	case resultSuccess:
		resp.Receipt = notice.Receipt
		writeJSON(w, http.StatusCreated, resp)
		return
	case resultInvalid, resultConflict:
		resp.Errors = f.Errors()
	}
	writeJSON(w, statusFor(result), resp)
}

func (s *Server) handleAPISchema(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	_, _ = w.Write(signup.Schema().Raw())
}

// submit runs the signup submission inside a span and records metrics.
func (s *Server) submit(ctx context.Context, f *form.Form[signup.Values], submitter signup.Submitter) (signup.Notice, error) {
	ctx, span := middleware.StartSpan(ctx, "signup.submit",
		attribute.String("signup.username", f.GetString("username")),
	)

	notice, err := signup.Submit(ctx, f, submitter)
	result := submitResult(err)
	span.SetAttributes(attribute.String("signup.result", result))

	switch result {
	case resultInvalid:
		s.metrics.RecordValidation(f.Errors())
	case resultError:
		s.logger.Error("submission failed", "error", err)
	}
	s.metrics.RecordSubmission(result)

	if result == resultError {
		middleware.EndSpan(span, err)
	} else {
		middleware.EndSpan(span, nil)
	}
	return notice, err
}

// submitResult classifies the error returned by signup.Submit.
func submitResult(err error) string {
	var fe form.FieldError
	switch {
	case err == nil:
		return resultSuccess
	case errors.Is(err, form.ErrInvalid):
		return resultInvalid
	case errors.Is(err, form.ErrSubmitInProgress):
		return resultBusy
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resultCancelled
	case errors.As(err, &fe):
		return resultConflict
	default:
		return resultError
	}
}

// statusFor maps a submission result to an HTTP status.
func statusFor(result string) int {
	switch result {
	case resultSuccess:
		return http.StatusOK
	case resultInvalid:
		return http.StatusUnprocessableEntity
	case resultConflict, resultBusy:
		return http.StatusConflict
	case resultCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writePage renders the signup page.
func (s *Server) writePage(w http.ResponseWriter, r *http.Request, status int, f *form.Form[signup.Values], notice signup.Notice) {
	var buf bytes.Buffer
	err := s.renderer.RenderPage(&buf, render.PageData{
		Title:       "Create your account",
		Description: "Sign up for an account.",
		Styles:      []string{pageCSS},
		Scripts:     []string{"/static/live.js"},
		Body:        signup.View(f, notice),
	})
	if err != nil {
		s.logger.Error("render failed", "error", err, "path", r.URL.Path)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// knownField reports whether name is a field of f.
func knownField(f *form.Form[signup.Values], name string) bool {
	for _, field := range f.Fields() {
		if field == name {
			return true
		}
	}
	return false
}

// decodeJSON decodes a single JSON object from the request body and
// rejects unknown properties.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return decodeStrict(body, dst)
}

// bodyStatus maps a request body error to 413 when the body hit the size
// limit and to 400 otherwise.
func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func decodeStrict(data []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	if dec.More() {
		return errors.New("decode json: trailing data")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
