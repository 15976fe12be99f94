// Copyright (c) 2025, XPDEV LABS.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package oci

import (
	"strings"
)

// DefaultTag is applied when a reference carries no tag.
const DefaultTag = "latest"

// ConfigurationTag marks the package image a project build emits for the
// Configuration itself, as opposed to its embedded dependency images.
const ConfigurationTag = "configuration"

// renderSuffix marks embedded render function images that must be
// redirected through the cluster-local registry.
const renderSuffix = "_render"

// Reference is a loosely parsed image reference split into its repository
// path and tag. Unlike a registry-grade parser it accepts anything the
// local image store accepts, including bare names and host-less paths.
type Reference struct {
	// Path is everything before the tag separator, including any
	// registry host prefix.
	Path string
	// Tag is the text after the last colon, or DefaultTag when the
	// reference carried none.
	Tag string
}

// Parse splits a reference on its last colon. References without a tag
// get DefaultTag. Parse is total: it never rejects input. Digest
// references (name@sha256:...) are not given special treatment here;
// the loaded-image sources this package handles are always tag-form.
func Parse(ref string) Reference {
	idx := strings.LastIndex(ref, ":")
	if idx < 0 {
		return Reference{Path: ref, Tag: DefaultTag}
	}
	return Reference{Path: ref[:idx], Tag: ref[idx+1:]}
}

// String reassembles the reference as path:tag.
func (r Reference) String() string {
	return r.Path + ":" + r.Tag
}

// IsConfiguration reports whether the reference carries the tag the
// project build reserves for the Configuration package image.
func (r Reference) IsConfiguration() bool {
	return r.Tag == ConfigurationTag
}

// IsRender reports whether the reference's path names an embedded render
// function image.
func (r Reference) IsRender() bool {
	return IsRenderPath(r.Path)
}

// Rewrite returns a copy of the reference pointed at the given registry
// host: any existing registry prefix is stripped from the path and the
// tag is preserved.
func (r Reference) Rewrite(registry string) Reference {
	return Reference{
		Path: registry + "/" + StripRegistry(r.Path),
		Tag:  r.Tag,
	}
}

// StripRegistry removes a leading registry host from a repository path.
// The first path segment is treated as a host iff it contains a dot or a
// colon. That heuristic misreads paths whose first segment contains a
// dot for unrelated reasons; it is kept as is because every reference
// this tool rewrites was produced by the same convention.
func StripRegistry(path string) string {
	first, rest, found := strings.Cut(path, "/")
	if !found {
		return path
	}
	if strings.ContainsAny(first, ".:") {
		return rest
	}
	return path
}

// IsRenderPath reports whether a repository path (tag-less) names an
// embedded render function image.
func IsRenderPath(path string) bool {
	return strings.HasSuffix(path, renderSuffix)
}
