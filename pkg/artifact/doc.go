// Package artifact inspects package archives produced by a project build.
//
// An archive is a docker-save tar: a manifest.json index describing one
// or more images, each with a config blob, repo tags, and gzip'd layer
// tars. The synchronization flow needs three things out of it: the image
// index itself, the package metadata document carried inside the
// Configuration image's base layer, and the set of image references the
// archive records (used to resolve garbage collection targets from a
// project directory).
//
// Archives are only ever read. Loading images out of them into the local
// image store is docker's job, not this package's.
package artifact
