// Package errors provides structured, actionable error messages for the
// signup command line tool.
//
// Each error has a unique code that maps to a short message, a longer
// explanation and a category:
//   - config (E1xx): loading and validating signup.yaml or signup.json
//   - validation (E2xx): values files checked with "signup validate"
//   - submission (E3xx): the simulated submission and its store
//   - cli (E4xx): command usage
//
// # Usage
//
//	err := errors.New("E201").
//	    WithLocation("values.yaml", 3, 0).
//	    WithSuggestion("Use letters, numbers and underscores only")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Values failed validation
//	//
//	//   values.yaml:3
//	//
//	//       2 │ email: ada@example.com
//	//   →   3 │ username: ada-lovelace
//	//       4 │ password: analytical-engine
//	//
//	//   Hint: Use letters, numbers and underscores only
package errors
