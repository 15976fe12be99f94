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
	"encoding/json"
	"strings"

	"github.com/xpdev-labs/xpdev/pkg/errors"
)

// LockedPackage is one entry in the package dependency lock.
type LockedPackage struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Lock is the decoded shape of the singleton lock resource.
type Lock struct {
	Packages []LockedPackage `json:"packages"`
}

// ParseLock decodes the JSON form of the lock resource.
func ParseLock(raw []byte) (Lock, error) {
	var lock Lock
	if err := json.Unmarshal(raw, &lock); err != nil {
		return Lock{}, errors.Wrap(errors.ErrCodeParse, "decoding package lock", err)
	}
	return lock, nil
}

// SourceKey identifies a lock entry by kind and source, ignoring the
// revision-specific name. Two revisions of the same package collapse to
// one key.
type SourceKey struct {
	Kind   string
	Source string
}

// SourceSet reduces lock packages to their distinct source keys.
func SourceSet(packages []LockedPackage) map[SourceKey]struct{} {
	set := make(map[SourceKey]struct{}, len(packages))
	for _, p := range packages {
		set[SourceKey{Kind: p.Kind, Source: p.Source}] = struct{}{}
	}
	return set
}

// PackageSource reduces a package reference to the tagless source form
// the lock records. Digest references are cut at the "@". Tagged
// references drop the tag only when the reference has a path
// separator; a bare single-segment name keeps its tag because the
// colon cannot be distinguished from a port.
func PackageSource(packageRef string) string {
	trimmed := strings.TrimSpace(packageRef)

	if source, _, found := strings.Cut(trimmed, "@"); found {
		return source
	}

	if slash := strings.LastIndex(trimmed, "/"); slash >= 0 {
		if colon := strings.LastIndex(trimmed[slash+1:], ":"); colon >= 0 {
			return trimmed[:slash+1+colon]
		}
	}

	return trimmed
}

// PackageResource is the subset of an installed package resource that
// pruning inspects. The same shape decodes every package kind and its
// revisions.
type PackageResource struct {
	Metadata ObjectMeta           `json:"metadata"`
	Spec     *PackageResourceSpec `json:"spec"`
}

// PackageResourceSpec carries the package reference the resource pins.
type PackageResourceSpec struct {
	Package string `json:"package"`
}

// Source returns the tagless source of the resource's package
// reference, or "" when the resource carries none.
func (r PackageResource) Source() string {
	if r.Spec == nil || r.Spec.Package == "" {
		return ""
	}
	return PackageSource(r.Spec.Package)
}

type kubeList[T any] struct {
	Items []T `json:"items"`
}

// ParsePackageList decodes a kubectl JSON listing of package resources.
func ParsePackageList(raw []byte) ([]PackageResource, error) {
	return parseList[PackageResource](raw, "decoding package resource list")
}

// ParseImageConfigList decodes a kubectl JSON listing of ImageConfig
// resources.
func ParseImageConfigList(raw []byte) ([]ImageConfig, error) {
	return parseList[ImageConfig](raw, "decoding image config list")
}

func parseList[T any](raw []byte, message string) ([]T, error) {
	var list kubeList[T]
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, message, err)
	}
	return list.Items, nil
}
