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
	"testing"

	"gopkg.in/yaml.v3"
)

func TestNewConfigurationYAML(t *testing.T) {
	cfg := NewConfiguration("hops-ops-stack", "ghcr.io/hops-ops/stack:v0.7.0", true)

	doc, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() failed: %v", err)
	}

	for _, want := range []string{
		"apiVersion: pkg.crossplane.io/v1",
		"kind: Configuration",
		"name: hops-ops-stack",
		"package: ghcr.io/hops-ops/stack:v0.7.0",
		"packagePullPolicy: Always",
		"skipDependencyResolution: true",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("manifest missing %q:\n%s", want, doc)
		}
	}
}

func TestNewConfigurationOmitsResolutionFlagByDefault(t *testing.T) {
	cfg := NewConfiguration("cfg", "ghcr.io/hops-ops/x:v1", false)

	doc, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML() failed: %v", err)
	}
	if strings.Contains(doc, "skipDependencyResolution") {
		t.Errorf("manifest should omit skipDependencyResolution:\n%s", doc)
	}
}

func TestNewImageConfigRoundTrip(t *testing.T) {
	source := "ghcr.io/hops-ops/helm-airflow_render"
	target := "registry.crossplane-system.svc.cluster.local:5000/hops-ops/helm-airflow_render"

	ic := NewImageConfig(source, target)

	doc, err := ic.YAML()
	if err != nil {
		t.Fatalf("YAML() failed: %v", err)
	}

	var got ImageConfig
	if err := yaml.Unmarshal([]byte(doc), &got); err != nil {
		t.Fatalf("rendered manifest does not parse: %v", err)
	}

	if got.APIVersion != "pkg.crossplane.io/v1beta1" {
		t.Errorf("apiVersion = %q, want pkg.crossplane.io/v1beta1", got.APIVersion)
	}
	if got.Kind != "ImageConfig" {
		t.Errorf("kind = %q, want ImageConfig", got.Kind)
	}
	if got.Metadata.Name != ImageConfigName(source) {
		t.Errorf("name = %q, want %q", got.Metadata.Name, ImageConfigName(source))
	}
	if got.Spec == nil || len(got.Spec.MatchImages) != 1 {
		t.Fatalf("spec.matchImages malformed: %+v", got.Spec)
	}
	if m := got.Spec.MatchImages[0]; m.Type != "Prefix" || m.Prefix != source {
		t.Errorf("matchImages[0] = %+v, want Prefix match on %q", m, source)
	}
	if got.Spec.RewriteImage == nil || got.Spec.RewriteImage.Prefix != target {
		t.Errorf("rewriteImage = %+v, want prefix %q", got.Spec.RewriteImage, target)
	}
}

func TestImageConfigMatchesAny(t *testing.T) {
	sources := map[string]struct{}{
		"ghcr.io/hops-ops/helm-airflow_render": {},
	}

	tests := []struct {
		name   string
		config ImageConfig
		want   bool
	}{
		{
			name:   "nil spec",
			config: ImageConfig{},
			want:   false,
		},
		{
			name: "exact prefix match",
			config: ImageConfig{Spec: &ImageConfigSpec{MatchImages: []ImageMatch{
				{Prefix: "ghcr.io/hops-ops/helm-airflow_render"},
			}}},
			want: true,
		},
		{
			name: "second entry matches",
			config: ImageConfig{Spec: &ImageConfigSpec{MatchImages: []ImageMatch{
				{Prefix: "ghcr.io/other/pkg"},
				{Prefix: "ghcr.io/hops-ops/helm-airflow_render"},
			}}},
			want: true,
		},
		{
			name: "prefix of a longer source does not match",
			config: ImageConfig{Spec: &ImageConfigSpec{MatchImages: []ImageMatch{
				{Prefix: "ghcr.io/hops-ops/helm-airflow"},
			}}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.MatchesAny(sources); got != tt.want {
				t.Errorf("MatchesAny() = %v, want %v", got, tt.want)
			}
		})
	}
}
