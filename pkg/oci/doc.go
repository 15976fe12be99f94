// Package oci provides the loose reference algebra used to retarget
// locally built package images at the cluster-local registry.
//
// # Overview
//
// Images produced by a project build are addressed by whatever reference
// the local image store reports, which is frequently not a fully
// qualified registry reference: bare names, host-less paths, and
// registry hosts with ports all occur. Strict registry parsers reject
// several of those forms, so this package deliberately implements the
// minimal total algebra the synchronization flow needs:
//
//   - Parse: split a reference into path and tag on the last colon
//   - StripRegistry: drop a leading host segment, detected heuristically
//   - Reference.Rewrite: re-point a reference at another registry host
//   - Reference.IsConfiguration / IsRender: classify loaded images
//
// # Heuristics
//
// A first path segment is treated as a registry host iff it contains a
// dot or a colon, and a reference without a colon after the last slash
// is considered untagged. Both rules are intentionally simple: every
// reference handled here is produced either by the project build tool or
// by this tool itself, where the rules hold by construction. Validation
// of references that leave the process (push targets) is delegated to
// the strict distribution reference parser at the call site.
package oci
