// Package errors provides coded, actionable errors for sweetstate.
//
// Every error carries a short code (e.g. "S101") that maps to a registered
// template with a category, message, and longer explanation. Library code
// builds errors from codes and decorates them with detail and hints:
//
//	err := errors.New("S201").
//	    WithDetail("no sweetstate.json found in " + dir).
//	    WithSuggestion("Create sweetstate.json or pass --config")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR S201: Configuration file not found
//	//
//	//   no sweetstate.json found in ./app
//	//
//	//   Hint: Create sweetstate.json or pass --config
//
// # Error Categories
//
//   - registry: store registry lifecycle problems (initial-state overrides, scopes)
//   - config: configuration loading and validation
//   - snapshot: snapshot capture, persistence and restore
//   - devtools: devtools transport failures
//   - cli: command line usage errors
//
// Errors support errors.Is by code and errors.Unwrap for wrapped causes.
package errors
