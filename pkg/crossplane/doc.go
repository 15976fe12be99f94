// Package crossplane models the Crossplane package-manager resources
// that local syncing creates and prunes.
//
// The package covers three concerns:
//
//   - resource addressing: the pkg.crossplane.io kinds, their revision
//     resources, and the singleton lock
//   - manifest assembly: Configuration and ImageConfig documents
//     rendered for kubectl apply
//   - lock interpretation: decoding the package lock and reducing
//     package references to the tagless source form the lock records
//
// Everything here is plain data transformation. Talking to the cluster
// is left to callers so the models stay testable without one.
package crossplane
