// Package kubectl wraps the kubectl invocations used to apply
// manifests and inspect Crossplane package resources.
//
// Mutations stream their output so users see what kubectl reports.
// Reads capture stdout for JSON decoding by the callers that own the
// resource shapes.
package kubectl
