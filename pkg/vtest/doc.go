// Package vtest provides testing helpers for markup built with vdom.
//
// # Render Assertions
//
// Assert on rendered HTML output:
//
//	vtest.ExpectContains(t, signup.View(f, signup.Notice{}), "Create account")
//	vtest.ExpectNotContains(t, node, "field-invalid")
//	vtest.ExpectAttribute(t, node, "role", "status")
//
// # Tree Assertions
//
// Look up elements by id and check their properties without going
// through HTML:
//
//	input := vtest.ExpectID(t, node, form.FieldID("email"))
//	vtest.ExpectProp(t, input, "aria-invalid", true)
//	vtest.ExpectFieldErrors(t, node, "email", "Invalid email address")
package vtest
