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

package crossplane

import (
	"strings"
)

const (
	// Group is the API group of the Crossplane package manager.
	Group = "pkg.crossplane.io"

	// GroupVersion is the stable API version package resources are
	// applied with.
	GroupVersion = Group + "/v1"

	// GroupVersionBeta is the beta API version ImageConfig ships under.
	GroupVersionBeta = Group + "/v1beta1"

	// LockResource addresses the package dependency lock.
	LockResource = "lock." + Group

	// LockName is the fixed name of the singleton lock resource.
	LockName = "lock"

	// ImageConfigResource addresses ImageConfig resources.
	ImageConfigResource = "imageconfig." + Group

	// ImageConfigKind is the kind string of an ImageConfig manifest.
	ImageConfigKind = "ImageConfig"
)

// Kind identifies one of the package kinds the Crossplane package
// manager installs and records in its lock.
type Kind string

const (
	KindConfiguration Kind = "Configuration"
	KindFunction      Kind = "Function"
	KindProvider      Kind = "Provider"
)

// PackageKinds returns every package kind, in the order pruning walks
// them.
func PackageKinds() []Kind {
	return []Kind{KindConfiguration, KindFunction, KindProvider}
}

// Resource returns the fully qualified resource name for the kind,
// such as "configuration.pkg.crossplane.io". Qualified names keep
// kubectl from resolving ambiguous short names against other groups.
func (k Kind) Resource() string {
	return strings.ToLower(string(k)) + "." + Group
}

// RevisionResource returns the fully qualified resource name of the
// kind's revision type, such as
// "configurationrevision.pkg.crossplane.io".
func (k Kind) RevisionResource() string {
	return strings.ToLower(string(k)) + "revision." + Group
}
