// Package logging provides structured logging for the installer.
//
// # Overview
//
// This package wraps log/slog with the installer's defaults: JSON output,
// module and version attributes on every record, and source locations for
// debug logs. Terminal output meant for the user goes through pkg/ux; slog
// records go to stderr or to the install log.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: diagnostic detail with source location
//   - INFO: general progress (default)
//   - WARN/WARNING: recoverable problems
//   - ERROR: failures
//
// # Usage
//
// Setting the default logger:
//
//	logging.SetDefaultStructuredLoggerWithLevel("platform-installer", version, "info")
//
// Redirecting a run to the install log, tagging every record with a run id:
//
//	sink, err := logging.OpenFileSink(defaults.InstallLogFilePath,
//	    "platform-installer", version, level, "run_id", uuid.NewString())
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
// The file is opened in append mode so consecutive runs share one log.
//
// # Environment Configuration
//
// LOG_LEVEL sets the level when no --log-level flag is given:
//
//	LOG_LEVEL=debug platform-installer install
//
// # Output Format
//
//	{
//	    "time": "2026-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "chart deployed",
//	    "module": "platform-installer",
//	    "version": "v1.0.0",
//	    "run_id": "0b6c...",
//	    "chart": "istiod"
//	}
package logging
