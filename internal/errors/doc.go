// Package errors provides coded, user-facing errors for the CLI.
//
// Each error carries a stable code (e.g. "E120"), a category, and
// optionally a detail paragraph and a fix suggestion. The Format method
// renders the error for terminal display.
//
// # Usage
//
//	return errors.New("E121").
//	    WithDetail("No crosstalk.json found in " + dir).
//	    WithSuggestion("Create crosstalk.json or pass --config")
package errors
