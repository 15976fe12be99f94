// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeExternalCommand,
//	    "failed to load package archive",
//	    cause,
//	    map[string]interface{}{
//	        "command": "docker",
//	        "archive": archivePath,
//	    },
//	)
package errors
