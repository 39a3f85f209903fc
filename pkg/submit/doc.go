// Package submit simulates the asynchronous account-creation call behind
// the signup form.
//
// A Simulator waits a configurable delay, rejects reserved or already
// registered usernames with a FieldError, and records a Receipt in a
// Store. Passwords are never stored; receipts keep a salted SHA-256
// fingerprint only.
//
//	sim := submit.NewSimulator(submit.NewMemoryStore())
//	receipt, err := sim.Submit(ctx, submit.Request{Username: "ada", Email: "ada@example.com", Password: "..."})
package submit
