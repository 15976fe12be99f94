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
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/google/go-containerregistry/pkg/v1/tarball"
	ociv1 "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/oci"
)

const (
	// packageMetaEntry is the metadata document inside a package layer.
	packageMetaEntry = "package.yaml"

	// baseLayerLabelPrefix prefixes the image config label whose value
	// "base" identifies the layer holding the package metadata. The
	// remainder of the label key is the layer digest.
	baseLayerLabelPrefix = "io.crossplane.xpkg:sha256:"
	baseLayerLabelValue  = "base"
)

// Manifest returns the image index recorded in a package archive, one
// descriptor per image with its config blob name, repo tags, and layer
// blob names.
func Manifest(archivePath string) (tarball.Manifest, error) {
	manifest, err := tarball.LoadManifest(func() (io.ReadCloser, error) {
		return os.Open(archivePath)
	})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeParse,
			"failed to read archive manifest", err,
			map[string]any{"archive": archivePath})
	}

	return manifest, nil
}

// ReadEntry returns the bytes of the named entry in the archive's outer
// tar. The entry name must match exactly.
func ReadEntry(archivePath, entryName string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidRequest, err,
			"failed to open archive %s", archivePath)
	}
	defer f.Close()

	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeParse,
				"failed to read archive", err,
				map[string]any{"archive": archivePath})
		}

		if path.Clean(hdr.Name) == entryName {
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, errors.WrapWithContext(errors.ErrCodeParse,
					"failed to read archive entry", err,
					map[string]any{"archive": archivePath, "entry": entryName})
			}
			return data, nil
		}
	}

	return nil, errors.NewWithContext(errors.ErrCodeNotFound,
		"entry not found in archive",
		map[string]any{"archive": archivePath, "entry": entryName})
}

// PackageYAML extracts the package metadata document for the given image
// reference. The layer holding the document is located through the
// image config's base-layer label and falls back to the first declared
// layer when the label is absent or does not resolve.
func PackageYAML(archivePath, imageRef string) (string, error) {
	manifest, err := Manifest(archivePath)
	if err != nil {
		return "", err
	}

	var entry *tarball.Descriptor
	for i := range manifest {
		if slices.Contains(manifest[i].RepoTags, imageRef) {
			entry = &manifest[i]
			break
		}
	}
	if entry == nil {
		return "", errors.NewWithContext(errors.ErrCodeNotFound,
			"image not present in archive manifest",
			map[string]any{"archive": archivePath, "image": imageRef})
	}

	layerName := baseLayerName(archivePath, entry)
	if layerName == "" {
		if len(entry.Layers) == 0 {
			return "", errors.NewWithContext(errors.ErrCodeNotFound,
				"image has no layers",
				map[string]any{"archive": archivePath, "image": imageRef})
		}
		layerName = entry.Layers[0]
	}

	layerBytes, err := ReadEntry(archivePath, layerName)
	if err != nil {
		return "", err
	}

	return packageYAMLFromLayer(archivePath, layerName, layerBytes)
}

// baseLayerName resolves the base-layer label of the image config to a
// layer blob name, returning "" when the config cannot be parsed, has no
// matching label, or the labeled layer is not in the manifest entry.
func baseLayerName(archivePath string, entry *tarball.Descriptor) string {
	configBytes, err := ReadEntry(archivePath, entry.Config)
	if err != nil {
		return ""
	}

	var img ociv1.Image
	if err := json.Unmarshal(configBytes, &img); err != nil {
		return ""
	}

	for key, value := range img.Config.Labels {
		if value != baseLayerLabelValue {
			continue
		}
		digest, ok := strings.CutPrefix(key, baseLayerLabelPrefix)
		if !ok {
			continue
		}
		candidate := digest + ".tar.gz"
		if slices.Contains(entry.Layers, candidate) {
			return candidate
		}
	}

	return ""
}

// packageYAMLFromLayer decompresses a layer blob and returns the package
// metadata document stored in it.
func packageYAMLFromLayer(archivePath, layerName string, layerBytes []byte) (string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(layerBytes))
	if err != nil {
		return "", errors.WrapWithContext(errors.ErrCodeParse,
			"failed to decompress package layer", err,
			map[string]any{"archive": archivePath, "layer": layerName})
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.WrapWithContext(errors.ErrCodeParse,
				"failed to read package layer", err,
				map[string]any{"archive": archivePath, "layer": layerName})
		}

		if path.Clean(hdr.Name) == packageMetaEntry {
			data, err := io.ReadAll(tr)
			if err != nil {
				return "", errors.WrapWithContext(errors.ErrCodeParse,
					"failed to read package metadata", err,
					map[string]any{"archive": archivePath, "layer": layerName})
			}
			return string(data), nil
		}
	}

	return "", errors.NewWithContext(errors.ErrCodeNotFound,
		"package metadata not found in layer",
		map[string]any{"archive": archivePath, "layer": layerName})
}

// ConfigurationNames returns the names of Configuration packages recorded
// in the archive: the last path segment of every repo tag carrying the
// configuration tag, deduplicated and sorted.
func ConfigurationNames(archivePath string) ([]string, error) {
	manifest, err := Manifest(archivePath)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, entry := range manifest {
		for _, tag := range entry.RepoTags {
			ref := oci.Parse(tag)
			if !ref.IsConfiguration() {
				continue
			}
			name := ref.Path
			if idx := strings.LastIndex(name, "/"); idx >= 0 {
				name = name[idx+1:]
			}
			name = strings.TrimSpace(name)
			if name != "" {
				seen[name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// RepoTags returns every image reference recorded in the archive
// manifest, deduplicated and sorted.
func RepoTags(archivePath string) ([]string, error) {
	manifest, err := Manifest(archivePath)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, entry := range manifest {
		for _, tag := range entry.RepoTags {
			if tag != "" {
				seen[tag] = struct{}{}
			}
		}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	return tags, nil
}
