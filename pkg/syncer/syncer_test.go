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

package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpdev-labs/xpdev/pkg/docker"
	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/project"
)

type fakeDocker struct {
	loadResults map[string][]string
	loadErr     error
	digest      string

	calls       []string
	patchedDocs []string
}

func (f *fakeDocker) Load(_ context.Context, archivePath string) ([]string, error) {
	f.calls = append(f.calls, "load "+filepath.Base(archivePath))
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.loadResults[filepath.Base(archivePath)], nil
}

func (f *fakeDocker) Tag(_ context.Context, source, target string) error {
	f.calls = append(f.calls, "tag "+source+" "+target)
	return nil
}

func (f *fakeDocker) Push(_ context.Context, image string) error {
	f.calls = append(f.calls, "push "+image)
	return nil
}

func (f *fakeDocker) PushCapturingDigest(_ context.Context, image string) (string, error) {
	f.calls = append(f.calls, "push-digest "+image)
	return f.digest, nil
}

func (f *fakeDocker) BuildFrom(_ context.Context, source, tag string) error {
	f.calls = append(f.calls, "build-from "+source+" "+tag)
	return nil
}

func (f *fakeDocker) BuildDir(_ context.Context, tag, dir string) error {
	f.calls = append(f.calls, "build-dir "+tag)
	doc, err := os.ReadFile(filepath.Join(dir, "package.yaml"))
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Join(dir, "Dockerfile")); err != nil {
		return err
	}
	f.patchedDocs = append(f.patchedDocs, string(doc))
	return nil
}

type fakeApplier struct {
	manifests []string
}

func (f *fakeApplier) Apply(_ context.Context, manifest string) error {
	f.manifests = append(f.manifests, manifest)
	return nil
}

type fakeRegistry struct {
	ensures int
	err     error
}

func (f *fakeRegistry) Ensure(context.Context) error {
	f.ensures++
	return f.err
}

type fakeProject struct {
	builds   []string
	cloned   []string
	cloneDir string
	cloneErr error
}

func (f *fakeProject) Build(_ context.Context, dir string) error {
	f.builds = append(f.builds, dir)
	return nil
}

func (f *fakeProject) Clone(_ context.Context, spec project.RepoSpec) (string, error) {
	f.cloned = append(f.cloned, spec.CloneURL())
	return f.cloneDir, f.cloneErr
}

func projectDir(t *testing.T, archives ...string) string {
	t.Helper()
	dir := t.TempDir()
	out := filepath.Join(dir, "_output")
	require.NoError(t, os.MkdirAll(out, 0o755))
	for _, name := range archives {
		require.NoError(t, os.WriteFile(filepath.Join(out, name), []byte("tar"), 0o644))
	}
	return dir
}

// otherArch returns a real platform tag that never matches the host.
func otherArch() string {
	if docker.Arch() == "arm64" {
		return "amd64"
	}
	return "arm64"
}

func newTestSyncer(d *fakeDocker, a *fakeApplier, r *fakeRegistry, p *fakeProject) *Syncer {
	return New(d, a, r, p, Config{})
}

func TestSyncPathEndToEnd(t *testing.T) {
	arch := docker.Arch()
	other := otherArch()
	dir := projectDir(t, "demo.uppkg", "extra.uppkg")

	d := &fakeDocker{
		digest: "sha256:f00dfeed",
		loadResults: map[string][]string{
			"demo.uppkg": {
				"ghcr.io/acme/demo:configuration",
				"ghcr.io/acme/demo_render:" + arch,
				"ghcr.io/acme/demo_render:" + other,
				"xpkg.crossplane.io/crossplane-contrib/function-auto-ready:v0.6.0",
			},
			"extra.uppkg": {
				"ghcr.io/acme/demo_render:" + arch,
			},
		},
	}
	a := &fakeApplier{}
	r := &fakeRegistry{}
	p := &fakeProject{}

	s := newTestSyncer(d, a, r, p)
	s.packageYAML = func(archivePath, imageRef string) (string, error) {
		assert.Equal(t, filepath.Join(dir, "_output", "demo.uppkg"), archivePath)
		assert.Equal(t, "ghcr.io/acme/demo:configuration", imageRef)
		return strings.Join([]string{
			"apiVersion: meta.pkg.crossplane.io/v1",
			"kind: Configuration",
			"spec:",
			"  dependsOn:",
			"  - kind: Function",
			"    package: ghcr.io/acme/demo_render",
			"    version: sha256:old",
			"",
		}, "\n"), nil
	}

	require.NoError(t, s.SyncPath(context.Background(), dir))

	assert.Equal(t, 1, r.ensures)
	assert.Equal(t, []string{dir}, p.builds)

	want := []string{
		"load demo.uppkg",
		"load extra.uppkg",
		"build-from ghcr.io/acme/demo_render:" + arch + " localhost:30500/acme/demo_render:" + arch,
		"push-digest localhost:30500/acme/demo_render:" + arch,
		"build-from ghcr.io/acme/demo_render:" + other + " localhost:30500/acme/demo_render:" + other,
		"push localhost:30500/acme/demo_render:" + other,
		"tag xpkg.crossplane.io/crossplane-contrib/function-auto-ready:v0.6.0 localhost:30500/crossplane-contrib/function-auto-ready:v0.6.0",
		"push localhost:30500/crossplane-contrib/function-auto-ready:v0.6.0",
	}
	require.GreaterOrEqual(t, len(d.calls), len(want)+3)
	assert.Equal(t, want, d.calls[:len(want)])

	// The patched configuration image is rebuilt under a disposable tag
	// and that tag is what gets pushed into the registry.
	assert.True(t, strings.HasPrefix(d.calls[len(want)], "build-dir xpdev/config-patched-"), d.calls[len(want)])
	assert.True(t, strings.HasPrefix(d.calls[len(want)+1], "tag xpdev/config-patched-"), d.calls[len(want)+1])
	assert.True(t, strings.HasSuffix(d.calls[len(want)+1], " localhost:30500/acme/demo:configuration"), d.calls[len(want)+1])
	assert.Equal(t, "push localhost:30500/acme/demo:configuration", d.calls[len(want)+2])

	require.Len(t, d.patchedDocs, 1)
	assert.Contains(t, d.patchedDocs[0], "version: sha256:f00dfeed")
	assert.Contains(t, d.patchedDocs[0], "package: ghcr.io/acme/demo_render")

	require.Len(t, a.manifests, 2)
	assert.Contains(t, a.manifests[0], "kind: ImageConfig")
	assert.Contains(t, a.manifests[0], "name: xpdev-rewrite-ghcr-io-acme-demo-render-")
	assert.Contains(t, a.manifests[0], "prefix: ghcr.io/acme/demo_render")
	assert.Contains(t, a.manifests[0], "prefix: registry.crossplane-system.svc.cluster.local:5000/acme/demo_render")

	assert.Contains(t, a.manifests[1], "kind: Configuration")
	assert.Contains(t, a.manifests[1], "name: demo")
	assert.Contains(t, a.manifests[1], "package: registry.crossplane-system.svc.cluster.local:5000/acme/demo:configuration")
	assert.Contains(t, a.manifests[1], "packagePullPolicy: Always")
	assert.NotContains(t, a.manifests[1], "skipDependencyResolution")
}

func TestSyncPathWithoutRenderImages(t *testing.T) {
	dir := projectDir(t, "demo.uppkg")

	d := &fakeDocker{
		loadResults: map[string][]string{
			"demo.uppkg": {"ghcr.io/acme/demo:configuration"},
		},
	}
	a := &fakeApplier{}

	s := newTestSyncer(d, a, &fakeRegistry{}, &fakeProject{})
	s.packageYAML = func(string, string) (string, error) {
		return "spec: {}\n", nil
	}

	require.NoError(t, s.SyncPath(context.Background(), dir))

	// No rewrites: the original image is tagged and pushed untouched.
	assert.Equal(t, []string{
		"load demo.uppkg",
		"tag ghcr.io/acme/demo:configuration localhost:30500/acme/demo:configuration",
		"push localhost:30500/acme/demo:configuration",
	}, d.calls)
	assert.Empty(t, d.patchedDocs)

	require.Len(t, a.manifests, 1)
	assert.Contains(t, a.manifests[0], "kind: Configuration")
}

func TestSyncPathSkipBuild(t *testing.T) {
	dir := projectDir(t, "demo.uppkg")

	d := &fakeDocker{
		loadResults: map[string][]string{
			"demo.uppkg": {"ghcr.io/acme/demo:configuration"},
		},
	}
	p := &fakeProject{}

	s := New(d, &fakeApplier{}, &fakeRegistry{}, p, Config{SkipBuild: true})
	s.packageYAML = func(string, string) (string, error) { return "spec: {}\n", nil }

	require.NoError(t, s.SyncPath(context.Background(), dir))
	assert.Empty(t, p.builds)
}

func TestSyncPathRejectsMissingDir(t *testing.T) {
	r := &fakeRegistry{}
	s := newTestSyncer(&fakeDocker{}, &fakeApplier{}, r, &fakeProject{})

	err := s.SyncPath(context.Background(), filepath.Join(t.TempDir(), "absent"))

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
	assert.Zero(t, r.ensures)
}

func TestSyncPathNoImagesLoaded(t *testing.T) {
	dir := projectDir(t, "demo.uppkg")
	d := &fakeDocker{loadResults: map[string][]string{}}

	s := newTestSyncer(d, &fakeApplier{}, &fakeRegistry{}, &fakeProject{})

	err := s.SyncPath(context.Background(), dir)

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestSyncRepoCleansUpClone(t *testing.T) {
	cloneDir := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, os.MkdirAll(filepath.Join(cloneDir, "_output"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cloneDir, "_output", "demo.uppkg"), []byte("tar"), 0o644))

	d := &fakeDocker{
		loadResults: map[string][]string{
			"demo.uppkg": {"ghcr.io/acme/demo:configuration"},
		},
	}
	p := &fakeProject{cloneDir: cloneDir}

	s := newTestSyncer(d, &fakeApplier{}, &fakeRegistry{}, p)
	s.packageYAML = func(string, string) (string, error) { return "spec: {}\n", nil }

	spec := project.RepoSpec{Org: "acme", Repo: "demo"}
	require.NoError(t, s.SyncRepo(context.Background(), spec))

	assert.Equal(t, []string{"https://github.com/acme/demo"}, p.cloned)
	assert.Equal(t, []string{cloneDir}, p.builds)

	_, err := os.Stat(cloneDir)
	assert.True(t, os.IsNotExist(err), "clone directory should be removed")
}

func TestApplyPublished(t *testing.T) {
	a := &fakeApplier{}
	s := newTestSyncer(&fakeDocker{}, a, &fakeRegistry{}, &fakeProject{})

	spec := project.RepoSpec{Org: "Acme_Corp", Repo: "stack.aws"}
	require.NoError(t, s.ApplyPublished(context.Background(), spec, "v1.4.0"))

	require.Len(t, a.manifests, 1)
	assert.Contains(t, a.manifests[0], "name: acme-corp-stack-aws")
	assert.Contains(t, a.manifests[0], "package: ghcr.io/Acme_Corp/stack.aws:v1.4.0")
	assert.Contains(t, a.manifests[0], "packagePullPolicy: Always")
}

func TestApplyPublishedRejectsBlankVersion(t *testing.T) {
	s := newTestSyncer(&fakeDocker{}, &fakeApplier{}, &fakeRegistry{}, &fakeProject{})

	err := s.ApplyPublished(context.Background(), project.RepoSpec{Org: "acme", Repo: "demo"}, "  ")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}

func TestConfigurationName(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{ref: "registry.crossplane-system.svc.cluster.local:5000/acme/demo:configuration", want: "demo"},
		{ref: "ghcr.io/acme/stack-aws:v1", want: "stack-aws"},
		{ref: "demo:configuration", want: "demo"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, configurationName(tt.ref), tt.ref)
	}
}

func TestValidatePushRef(t *testing.T) {
	require.NoError(t, validatePushRef("localhost:30500/acme/demo_render:arm64"))

	err := validatePushRef("localhost:30500/Acme/demo:tag")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
}
