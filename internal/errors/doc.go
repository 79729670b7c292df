// Package errors provides structured, coded errors for signalscope's
// supporting packages and CLI.
//
// The scope runtime itself never fails; a missed attribution shows up as a
// missed re-render, not as an error. Configuration loading, the devtools
// server and the CLI report failures through this package so users get a
// code, a short message and a hint.
//
// # Usage
//
//	err := errors.New("S003").
//	    WithDetail("log.level must be one of debug, info, warn, error").
//	    WithSuggestion(`set "log": {"level": "info"}`)
//
//	fmt.Print(err.Format())
//	// ERROR S003: Invalid configuration value
//	//
//	//   log.level must be one of debug, info, warn, error
//	//
//	//   Hint: set "log": {"level": "info"}
package errors
