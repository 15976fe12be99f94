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

package artifact

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpdev-labs/xpdev/pkg/errors"
)

type archiveEntry struct {
	name string
	data []byte
}

func writeArchive(t *testing.T, entries ...archiveEntry) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "demo.uppkg")
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: e.name,
			Mode: 0o644,
			Size: int64(len(e.data)),
		}))
		_, err := tw.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	return p
}

func gzipLayer(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

func imageConfig(t *testing.T, labels map[string]string) []byte {
	t.Helper()

	cfg := map[string]any{
		"architecture": "amd64",
		"os":           "linux",
		"config":       map[string]any{"Labels": labels},
		"rootfs":       map[string]any{"type": "layers", "diff_ids": []string{}},
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	return data
}

func manifestJSON(t *testing.T, entries []map[string]any) []byte {
	t.Helper()

	data, err := json.Marshal(entries)
	require.NoError(t, err)

	return data
}

func TestReadEntry(t *testing.T) {
	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: []byte(`[]`)},
		archiveEntry{name: "blobs/config.json", data: []byte(`{"os":"linux"}`)},
	)

	data, err := ReadEntry(archive, "blobs/config.json")
	require.NoError(t, err)
	assert.Equal(t, `{"os":"linux"}`, string(data))
}

func TestReadEntryNotFound(t *testing.T) {
	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: []byte(`[]`)},
	)

	_, err := ReadEntry(archive, "missing.json")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))

	var se *errors.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "missing.json", se.Context["entry"])
	assert.Equal(t, archive, se.Context["archive"])
}

func TestPackageYAMLViaBaseLayerLabel(t *testing.T) {
	meta := "apiVersion: meta.pkg.crossplane.io/v1\nkind: Configuration\n"
	baseLayer := gzipLayer(t, map[string]string{"package.yaml": meta})
	decoyLayer := gzipLayer(t, map[string]string{"other.yaml": "nope"})

	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: manifestJSON(t, []map[string]any{{
			"Config":   "cfg.json",
			"RepoTags": []string{"demo-project:configuration"},
			"Layers":   []string{"aaaa.tar.gz", "bbbb.tar.gz"},
		}})},
		archiveEntry{name: "cfg.json", data: imageConfig(t, map[string]string{
			"io.crossplane.xpkg:sha256:bbbb": "base",
			"unrelated":                      "label",
		})},
		archiveEntry{name: "aaaa.tar.gz", data: decoyLayer},
		archiveEntry{name: "bbbb.tar.gz", data: baseLayer},
	)

	got, err := PackageYAML(archive, "demo-project:configuration")
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestPackageYAMLFallsBackToFirstLayer(t *testing.T) {
	meta := "kind: Configuration\n"
	firstLayer := gzipLayer(t, map[string]string{"package.yaml": meta})

	tests := []struct {
		name   string
		labels map[string]string
	}{
		{name: "no labels", labels: nil},
		{name: "label digest not among layers", labels: map[string]string{
			"io.crossplane.xpkg:sha256:ffff": "base",
		}},
		{name: "label value not base", labels: map[string]string{
			"io.crossplane.xpkg:sha256:aaaa": "extension",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := writeArchive(t,
				archiveEntry{name: "manifest.json", data: manifestJSON(t, []map[string]any{{
					"Config":   "cfg.json",
					"RepoTags": []string{"demo:configuration"},
					"Layers":   []string{"aaaa.tar.gz"},
				}})},
				archiveEntry{name: "cfg.json", data: imageConfig(t, tt.labels)},
				archiveEntry{name: "aaaa.tar.gz", data: firstLayer},
			)

			got, err := PackageYAML(archive, "demo:configuration")
			require.NoError(t, err)
			assert.Equal(t, meta, got)
		})
	}
}

func TestPackageYAMLImageNotInManifest(t *testing.T) {
	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: manifestJSON(t, []map[string]any{{
			"Config":   "cfg.json",
			"RepoTags": []string{"other:configuration"},
			"Layers":   []string{"aaaa.tar.gz"},
		}})},
	)

	_, err := PackageYAML(archive, "demo:configuration")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestPackageYAMLNoLayers(t *testing.T) {
	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: manifestJSON(t, []map[string]any{{
			"Config":   "cfg.json",
			"RepoTags": []string{"demo:configuration"},
			"Layers":   []string{},
		}})},
		archiveEntry{name: "cfg.json", data: imageConfig(t, nil)},
	)

	_, err := PackageYAML(archive, "demo:configuration")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
}

func TestPackageYAMLMissingMetadataInLayer(t *testing.T) {
	layer := gzipLayer(t, map[string]string{"something-else.yaml": "x"})

	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: manifestJSON(t, []map[string]any{{
			"Config":   "cfg.json",
			"RepoTags": []string{"demo:configuration"},
			"Layers":   []string{"aaaa.tar.gz"},
		}})},
		archiveEntry{name: "cfg.json", data: imageConfig(t, nil)},
		archiveEntry{name: "aaaa.tar.gz", data: layer},
	)

	_, err := PackageYAML(archive, "demo:configuration")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "package metadata not found")
}

func TestConfigurationNames(t *testing.T) {
	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: manifestJSON(t, []map[string]any{
			{
				"Config":   "a.json",
				"RepoTags": []string{"ghcr.io/org/zeta:configuration", "ghcr.io/org/zeta:v1"},
				"Layers":   []string{},
			},
			{
				"Config":   "b.json",
				"RepoTags": []string{"alpha:configuration", "alpha:configuration"},
				"Layers":   []string{},
			},
			{
				"Config":   "c.json",
				"RepoTags": []string{"ghcr.io/org/fn_render:amd64"},
				"Layers":   []string{},
			},
		})},
	)

	names, err := ConfigurationNames(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestRepoTags(t *testing.T) {
	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: manifestJSON(t, []map[string]any{
			{
				"Config":   "a.json",
				"RepoTags": []string{"b:1", "a:1"},
				"Layers":   []string{},
			},
			{
				"Config":   "b.json",
				"RepoTags": []string{"a:1"},
				"Layers":   []string{},
			},
		})},
	)

	tags, err := RepoTags(archive)
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:1"}, tags)
}

func TestManifestMalformed(t *testing.T) {
	archive := writeArchive(t,
		archiveEntry{name: "manifest.json", data: []byte(`{not json`)},
	)

	_, err := Manifest(archive)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeParse, errors.CodeOf(err))
}
