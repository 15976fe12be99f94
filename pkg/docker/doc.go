// Package docker drives the local image store through the docker CLI.
//
// The sync flow leans on the CLI rather than a daemon client library
// because every operation it needs is a porcelain command whose output
// users expect to see: load progress, build steps, push layers. The
// one piece of machine-read output, the digest line of a push, is
// scanned out of the echoed stream.
package docker
