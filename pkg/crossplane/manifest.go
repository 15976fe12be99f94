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
	"gopkg.in/yaml.v3"
	"k8s.io/utils/ptr"

	"github.com/xpdev-labs/xpdev/pkg/errors"
)

const (
	pullPolicyAlways = "Always"
	matchTypePrefix  = "Prefix"
)

// ObjectMeta carries the only metadata field sync and teardown consume.
type ObjectMeta struct {
	Name string `yaml:"name" json:"name"`
}

// Configuration is the subset of Crossplane's Configuration resource
// that local syncing manages.
type Configuration struct {
	APIVersion string            `yaml:"apiVersion"`
	Kind       string            `yaml:"kind"`
	Metadata   ObjectMeta        `yaml:"metadata"`
	Spec       ConfigurationSpec `yaml:"spec"`
}

// ConfigurationSpec holds the package pin and pull behavior.
type ConfigurationSpec struct {
	Package                  string `yaml:"package"`
	PackagePullPolicy        string `yaml:"packagePullPolicy"`
	SkipDependencyResolution *bool  `yaml:"skipDependencyResolution,omitempty"`
}

// NewConfiguration assembles a Configuration pinned to packageRef. The
// pull policy is always Always so re-syncing the same tag picks up the
// freshly pushed image. skipDependencyResolution is emitted only when
// set, leaving the field absent for the default resolution path.
func NewConfiguration(name, packageRef string, skipDependencyResolution bool) Configuration {
	cfg := Configuration{
		APIVersion: GroupVersion,
		Kind:       string(KindConfiguration),
		Metadata:   ObjectMeta{Name: name},
		Spec: ConfigurationSpec{
			Package:           packageRef,
			PackagePullPolicy: pullPolicyAlways,
		},
	}
	if skipDependencyResolution {
		cfg.Spec.SkipDependencyResolution = ptr.To(true)
	}
	return cfg
}

// YAML renders the Configuration for kubectl apply.
func (c Configuration) YAML() (string, error) {
	return renderManifest(c)
}

// ImageConfig is the subset of Crossplane's ImageConfig resource that
// local syncing manages. The same shape serves both manifest assembly
// and decoding cluster listings during teardown.
type ImageConfig struct {
	APIVersion string           `yaml:"apiVersion" json:"apiVersion"`
	Kind       string           `yaml:"kind" json:"kind"`
	Metadata   ObjectMeta       `yaml:"metadata" json:"metadata"`
	Spec       *ImageConfigSpec `yaml:"spec" json:"spec"`
}

// ImageConfigSpec pairs the matched pull prefixes with the rewrite
// target.
type ImageConfigSpec struct {
	MatchImages  []ImageMatch  `yaml:"matchImages" json:"matchImages"`
	RewriteImage *RewriteImage `yaml:"rewriteImage,omitempty" json:"rewriteImage,omitempty"`
}

// ImageMatch selects images whose reference starts with Prefix.
type ImageMatch struct {
	Type   string `yaml:"type" json:"type,omitempty"`
	Prefix string `yaml:"prefix" json:"prefix"`
}

// RewriteImage replaces the matched prefix on pull.
type RewriteImage struct {
	Prefix string `yaml:"prefix" json:"prefix"`
}

// NewImageConfig assembles the prefix rewrite that redirects pulls of
// source to targetPrefix. The resource name is derived from source so
// repeated syncs update the same ImageConfig instead of accumulating
// new ones.
func NewImageConfig(source, targetPrefix string) ImageConfig {
	return ImageConfig{
		APIVersion: GroupVersionBeta,
		Kind:       ImageConfigKind,
		Metadata:   ObjectMeta{Name: ImageConfigName(source)},
		Spec: &ImageConfigSpec{
			MatchImages:  []ImageMatch{{Type: matchTypePrefix, Prefix: source}},
			RewriteImage: &RewriteImage{Prefix: targetPrefix},
		},
	}
}

// YAML renders the ImageConfig for kubectl apply.
func (ic ImageConfig) YAML() (string, error) {
	return renderManifest(ic)
}

// MatchesAny reports whether any matched prefix of the config equals
// one of the given sources. Teardown uses exact prefix equality so a
// rewrite for a sibling package is never swept up by accident.
func (ic ImageConfig) MatchesAny(sources map[string]struct{}) bool {
	if ic.Spec == nil {
		return false
	}
	for _, m := range ic.Spec.MatchImages {
		if _, ok := sources[m.Prefix]; ok {
			return true
		}
	}
	return false
}

func renderManifest(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "rendering manifest", err)
	}
	return string(out), nil
}
