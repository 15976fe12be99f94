// Package registry manages the cluster-local package registry that
// sync pushes images into.
//
// The registry runs inside the cluster and is reachable on two
// addresses: a NodePort from the host for docker push, and the
// cluster-internal Service address that rewritten package references
// resolve to. Ensure deploys the packaged manifest when the
// deployment is absent, waits for an available replica, and then
// confirms the push endpoint answers OCI distribution requests before
// any push is attempted.
package registry
