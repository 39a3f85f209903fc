// Package middleware provides the HTTP observability layer of the signup
// service.
//
// This package includes:
//   - OpenTelemetry tracing middleware
//   - Prometheus metrics middleware and form counters
//
// # OpenTelemetry Middleware
//
// Tracing starts a server span for every request, named after the method
// and the matched chi route pattern. Responses with a 5xx status mark the
// span as failed. The span is stored in the request context, so handlers
// can start child spans with StartSpan:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Tracing(middleware.WithTracerName("signup")))
//
//	ctx, span := middleware.StartSpan(r.Context(), "signup.submit")
//	defer span.End()
//
// The tracer comes from the global OpenTelemetry provider unless
// WithTracerProvider is given.
//
// # Prometheus Metrics
//
// Metrics collected (with the default "signup" namespace):
//   - signup_http_requests_total{route,method,status}
//   - signup_http_request_duration_seconds{route}
//   - signup_form_validation_failures_total{field}
//   - signup_form_submissions_total{result}
//   - signup_live_sessions
//
// Mount the collector and its exposition handler on the router:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("signup"))
//	r.Use(m.Handler)
//	r.Handle("/metrics", m.Exposition())
package middleware
