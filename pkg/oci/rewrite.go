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

// RenderRewrite records where a render function image ended up after
// being pushed through the local registry. Rewrites are accumulated in a
// map keyed by the image's original repository path and consumed twice:
// digests pin dependency versions in package metadata, and target
// prefixes become registry rewrite rules on the control plane.
type RenderRewrite struct {
	// Digest is the content digest reported by the registry on push,
	// in sha256:... form.
	Digest string
	// TargetPrefix is the pull-registry repository path the original
	// reference should be redirected to.
	TargetPrefix string
}
