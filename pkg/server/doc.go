// Package server is the HTTP surface of the signup service.
//
// It serves the signup page with progressive enhancement: the form works
// as a plain HTML post, and the embedded live.js script upgrades it to a
// WebSocket live session that validates fields as the user types.
//
// # Routes
//
//	GET  /                      redirect to /signup
//	GET  /signup                empty form
//	POST /signup                bind, validate, submit, re-render
//	POST /api/signup/validate   {field?, values} -> {valid, errors}
//	POST /api/signup            JSON submission
//	GET  /api/signup/schema     JSON Schema document
//	GET  /live                  WebSocket live session
//	GET  /static/live.js        client script
//	GET  /healthz               liveness probe
//	GET  /metrics               Prometheus exposition
//
// # Live Sessions
//
// Each WebSocket connection owns one form context. Frames are JSON text
// messages:
//
//	-> {"type":"input","field":"email","value":"a@b"}
//	<- {"type":"field","field":"email","errors":["Enter a valid email address"]}
//	-> {"type":"blur","field":"email"}
//	-> {"type":"submit","values":{...}}
//	<- {"type":"state","state":{...,"submitting":true}}
//	<- {"type":"state","state":{...}}
//	<- {"type":"toast","event":"signup:toast","data":{...}}
//
// The connection has a read deadline refreshed by pongs, a maximum
// message size, and periodic pings. It is closed when the server shuts
// down.
package server
