// Package project handles XRD project sources: repository slugs,
// checkouts, builds, and the package archives a build leaves behind.
//
// A project is addressed either by a local directory or by a GitHub
// <org>/<repo> slug. Builds delegate to the up CLI and collect the
// .uppkg archives it writes under _output/.
package project
