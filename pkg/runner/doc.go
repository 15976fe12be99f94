// Package runner executes external commands for the tool collaborators.
//
// The synchronization flows delegate to docker, kubectl, git, and the
// project build tool rather than reimplementing them. This package is the
// single place those processes are spawned: streamed for interactive
// commands, captured when output must be parsed, or both when progress
// should stay visible while lines are scanned.
package runner
