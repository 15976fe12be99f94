// Package gc removes locally applied Configurations and garbage-collects
// the package state they leave behind.
//
// Deleting a Configuration does not delete the Functions and Providers
// it pulled in, their revisions, or the image rewrite rules sync
// installed for render images. The teardown flow recovers them by
// diffing the package lock: snapshot the lock's (kind, source) pairs,
// delete the target Configurations, wait for the lock to converge,
// snapshot again, and prune every package resource whose source dropped
// out in between. When the target is a project directory, source hints
// read from its package archives widen the prune to resources the lock
// never converged away from.
package gc
