// Package errors provides structured error types for the installer.
//
// Every failure kind surfaced by checks, steps and adapters carries an
// ErrorCode so callers can decide on retry without string matching, and
// wrapped causes keep a stack trace that the orchestrator writes to the
// install log with %+v.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeChartInstallation,
//	    "failed to upsert release",
//	    runErr,
//	    map[string]any{
//	        "release":   "istiod",
//	        "namespace": "istio-system",
//	    },
//	)
package errors
