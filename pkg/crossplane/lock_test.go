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
	"testing"

	"github.com/xpdev-labs/xpdev/pkg/errors"
)

func TestParseLock(t *testing.T) {
	raw := []byte(`{
		"apiVersion": "pkg.crossplane.io/v1beta1",
		"kind": "Lock",
		"metadata": {"name": "lock"},
		"packages": [
			{"kind": "Configuration", "name": "hops-ops-stack-abc123", "source": "ghcr.io/hops-ops/stack"},
			{"kind": "Function", "name": "stack-render-def456", "source": "ghcr.io/hops-ops/stack_render"}
		]
	}`)

	lock, err := ParseLock(raw)
	if err != nil {
		t.Fatalf("ParseLock failed: %v", err)
	}
	if len(lock.Packages) != 2 {
		t.Fatalf("got %d packages, want 2", len(lock.Packages))
	}
	if p := lock.Packages[1]; p.Kind != "Function" || p.Source != "ghcr.io/hops-ops/stack_render" {
		t.Errorf("packages[1] = %+v", p)
	}
}

func TestParseLockWithoutPackages(t *testing.T) {
	lock, err := ParseLock([]byte(`{"kind": "Lock"}`))
	if err != nil {
		t.Fatalf("ParseLock failed: %v", err)
	}
	if len(lock.Packages) != 0 {
		t.Errorf("got %d packages, want 0", len(lock.Packages))
	}
}

func TestParseLockMalformed(t *testing.T) {
	_, err := ParseLock([]byte("not json"))
	if err == nil {
		t.Fatal("expected error for malformed lock")
	}
	if code := errors.CodeOf(err); code != errors.ErrCodeParse {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeParse)
	}
}

func TestSourceSetCollapsesRevisions(t *testing.T) {
	packages := []LockedPackage{
		{Kind: "Configuration", Name: "stack-rev-1", Source: "ghcr.io/hops-ops/stack"},
		{Kind: "Configuration", Name: "stack-rev-2", Source: "ghcr.io/hops-ops/stack"},
		{Kind: "Function", Name: "render-rev-1", Source: "ghcr.io/hops-ops/stack_render"},
	}

	set := SourceSet(packages)
	if len(set) != 2 {
		t.Fatalf("got %d keys, want 2", len(set))
	}
	if _, ok := set[SourceKey{Kind: "Configuration", Source: "ghcr.io/hops-ops/stack"}]; !ok {
		t.Error("missing configuration source key")
	}
	if _, ok := set[SourceKey{Kind: "Function", Source: "ghcr.io/hops-ops/stack_render"}]; !ok {
		t.Error("missing function source key")
	}
}

func TestPackageSource(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		want string
	}{
		{
			name: "tag stripped",
			ref:  "ghcr.io/hops-ops/aws-auto-eks-cluster:v0.7.0",
			want: "ghcr.io/hops-ops/aws-auto-eks-cluster",
		},
		{
			name: "registry port survives tag strip",
			ref:  "registry.crossplane-system.svc.cluster.local:5000/hops-ops/stack-aws-observe:configuration",
			want: "registry.crossplane-system.svc.cluster.local:5000/hops-ops/stack-aws-observe",
		},
		{
			name: "digest stripped",
			ref:  "ghcr.io/hops-ops/aws-auto-eks-cluster_render@sha256:abc",
			want: "ghcr.io/hops-ops/aws-auto-eks-cluster_render",
		},
		{
			name: "no separator keeps tag",
			ref:  "demo:configuration",
			want: "demo:configuration",
		},
		{
			name: "untagged unchanged",
			ref:  "ghcr.io/hops-ops/stack",
			want: "ghcr.io/hops-ops/stack",
		},
		{
			name: "surrounding whitespace trimmed",
			ref:  "  ghcr.io/hops-ops/stack:v1  ",
			want: "ghcr.io/hops-ops/stack",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PackageSource(tt.ref); got != tt.want {
				t.Errorf("PackageSource(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestPackageResourceSource(t *testing.T) {
	withSpec := PackageResource{
		Metadata: ObjectMeta{Name: "stack"},
		Spec:     &PackageResourceSpec{Package: "ghcr.io/hops-ops/stack:v1"},
	}
	if got := withSpec.Source(); got != "ghcr.io/hops-ops/stack" {
		t.Errorf("Source() = %q, want ghcr.io/hops-ops/stack", got)
	}

	if got := (PackageResource{}).Source(); got != "" {
		t.Errorf("Source() on empty resource = %q, want \"\"", got)
	}
}

func TestParsePackageList(t *testing.T) {
	raw := []byte(`{
		"items": [
			{"metadata": {"name": "stack"}, "spec": {"package": "ghcr.io/hops-ops/stack:v1"}},
			{"metadata": {"name": "bare"}}
		]
	}`)

	items, err := ParsePackageList(raw)
	if err != nil {
		t.Fatalf("ParsePackageList failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Metadata.Name != "stack" || items[0].Source() != "ghcr.io/hops-ops/stack" {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Spec != nil {
		t.Errorf("items[1].Spec = %+v, want nil", items[1].Spec)
	}
}

func TestParseImageConfigList(t *testing.T) {
	raw := []byte(`{
		"items": [
			{
				"metadata": {"name": "xpdev-rewrite-app-12345678"},
				"spec": {"matchImages": [{"type": "Prefix", "prefix": "ghcr.io/org/app_render"}]}
			}
		]
	}`)

	items, err := ParseImageConfigList(raw)
	if err != nil {
		t.Fatalf("ParseImageConfigList failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if !items[0].MatchesAny(map[string]struct{}{"ghcr.io/org/app_render": {}}) {
		t.Error("parsed config should match its own prefix")
	}

	if _, err := ParseImageConfigList([]byte("[]")); err == nil {
		t.Error("expected error for non-object listing")
	}
}
