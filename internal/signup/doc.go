// Package signup is the signup form component: the form values and their
// rules, the markup, and the submission flow.
//
// Single-field rules (required, length, format, pattern) live in the JSON
// Schema reflected from Values. Rules that need more than one field or a
// boolean (password confirmation, accepting the terms) live in validate
// struct tags and run in the form context.
package signup
