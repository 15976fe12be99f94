// Package logging provides structured logging utilities for xpdev components.
//
// # Overview
//
// This package wraps the standard library slog package with project-wide
// defaults and conventions for consistent logging across all components.
// It supports environment-based log level configuration, module/version
// context injection, and automatic source location tracking for debug logs.
//
// # Features
//
//   - Structured JSON logging to stderr
//   - Environment-based log level configuration (LOG_LEVEL)
//   - Automatic module and version context
//   - Source location tracking for debug logs
//   - Flexible log level parsing
//   - Integration with standard library log package
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: Detailed diagnostic information with source location
//   - INFO: General informational messages (default)
//   - WARN/WARNING: Warning messages for potentially problematic situations
//   - ERROR: Error messages for failures requiring attention
//
// # Usage
//
// Setting the default logger (recommended):
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("xpdev", "v1.0.0")
//
//	    // Use slog as normal
//	    slog.Info("syncing project", "path", projectDir)
//	    slog.Debug("detailed state", "data", complexObject)
//	    slog.Error("operation failed", "error", err)
//	}
//
// Creating a custom logger:
//
//	logger := logging.NewStructuredLogger("syncer", "v2.0.0", "debug")
//	logger.Info("registry ready", "endpoint", endpoint)
//
// Setting explicit log level:
//
//	logging.SetDefaultStructuredLoggerWithLevel("cli", "v1.0.0", "warn")
//
// Converting standard library logger:
//
//	stdLogger := logging.NewLogLogger(slog.LevelInfo, false)
//	stdLogger.Println("legacy log message")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls logging verbosity:
//
//	LOG_LEVEL=debug xpdev sync
//	LOG_LEVEL=error xpdev prune --name demo
//
// If LOG_LEVEL is not set, defaults to INFO level.
//
// # Output Format
//
// All logs are written to stderr in JSON format:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "pushed package image",
//	    "module": "xpdev",
//	    "version": "v1.0.0",
//	    "reference": "localhost:30500/demo:v1"
//	}
//
// Debug logs include source location:
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "DEBUG",
//	    "source": {
//	        "function": "syncer.Sync",
//	        "file": "syncer.go",
//	        "line": 45
//	    },
//	    "msg": "classified image",
//	    "module": "xpdev",
//	    "version": "v1.0.0"
//	}
//
// # Integration
//
// This package is used by:
//   - pkg/cli - CLI command logging
//   - pkg/syncer - Package synchronization logging
//   - pkg/gc - Garbage collection logging
//   - pkg/registry - Local registry management logging
//
// All components share consistent logging format and configuration.
package logging
