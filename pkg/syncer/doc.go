// Package syncer pushes locally built Crossplane package images into the
// cluster-local registry and applies the resources that consume them.
//
// A sync run moves every image through the same pipeline: discover the
// project's package archives, load them into the container engine,
// classify the reported references, push them into the local registry,
// and apply one Configuration per package image. Render function images
// get two extra steps on the way: they are rebuilt to repair the image
// config the project build tool emits, and the digest reported on push
// is captured so dependency pins inside Configuration packages can be
// rewritten to the exact local content.
//
// The engine talks to its collaborators through narrow interfaces so
// runs can be exercised hermetically; production wiring hands it the
// docker, kubectl, registry, and project packages.
package syncer
