// Package schema reflects JSON Schemas from Go structs and validates
// documents against them, reporting failures as per-field issues.
//
// Schemas are generated as draft-07 with github.com/invopop/jsonschema and
// compiled with github.com/santhosh-tekuri/jsonschema/v6, which asserts
// the format keyword.
package schema
