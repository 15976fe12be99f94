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
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/distribution/reference"
	"github.com/google/uuid"

	"github.com/xpdev-labs/xpdev/pkg/crossplane"
	"github.com/xpdev-labs/xpdev/pkg/docker"
	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/oci"
	"github.com/xpdev-labs/xpdev/pkg/pkgmeta"
)

// pushImages pushes every non-Configuration image into the push registry
// and returns the digest rewrites captured for render function images,
// keyed by the image's original repository path.
func (s *Syncer) pushImages(ctx context.Context, loaded []LoadedImage) (map[string]oci.RenderRewrite, error) {
	arch := docker.Arch()
	rewrites := map[string]oci.RenderRewrite{}

	for _, img := range loaded {
		ref := oci.Parse(img.Source)
		if ref.IsConfiguration() {
			continue
		}

		pushRef := ref.Rewrite(s.cfg.PushRegistry).String()
		if err := validatePushRef(pushRef); err != nil {
			return nil, err
		}

		if !ref.IsRender() {
			if err := s.docker.Tag(ctx, img.Source, pushRef); err != nil {
				return nil, err
			}
			slog.Info("pushing image", "image", pushRef)
			if err := s.docker.Push(ctx, pushRef); err != nil {
				return nil, err
			}
			continue
		}

		// Render images are rebuilt rather than retagged: the project
		// build tool emits them with an empty rootfs type the registry
		// rejects.
		slog.Info("rebuilding render image", "image", pushRef)
		if err := s.docker.BuildFrom(ctx, img.Source, pushRef); err != nil {
			return nil, err
		}

		if ref.Tag != arch {
			slog.Info("pushing image", "image", pushRef)
			if err := s.docker.Push(ctx, pushRef); err != nil {
				return nil, err
			}
			continue
		}

		digest, err := s.docker.PushCapturingDigest(ctx, pushRef)
		if err != nil {
			return nil, err
		}
		rewrites[ref.Path] = oci.RenderRewrite{
			Digest:       digest,
			TargetPrefix: s.cfg.PullRegistry + "/" + oci.StripRegistry(ref.Path),
		}
	}

	return rewrites, nil
}

// applyImageConfigs applies one rewrite rule per captured render digest
// so in-cluster pulls of the original reference reach the local registry
// while spec.package keeps naming the original source.
func (s *Syncer) applyImageConfigs(ctx context.Context, rewrites map[string]oci.RenderRewrite) error {
	for _, source := range slices.Sorted(maps.Keys(rewrites)) {
		rw := rewrites[source]
		slog.Info("applying image rewrite", "source", source, "target", rw.TargetPrefix)

		manifest, err := crossplane.NewImageConfig(source, rw.TargetPrefix).YAML()
		if err != nil {
			return err
		}
		if err := s.applier.Apply(ctx, manifest); err != nil {
			return err
		}
	}
	return nil
}

// pushConfigurations pushes every Configuration package image and
// returns their in-cluster pull references in load order. When the
// package metadata pins a rewritten render dependency, the image is
// rebuilt around the patched document before pushing.
func (s *Syncer) pushConfigurations(ctx context.Context, loaded []LoadedImage, rewrites map[string]oci.RenderRewrite) ([]string, error) {
	var pullRefs []string

	for _, img := range loaded {
		ref := oci.Parse(img.Source)
		if !ref.IsConfiguration() {
			continue
		}

		pushRef := ref.Rewrite(s.cfg.PushRegistry).String()
		if err := validatePushRef(pushRef); err != nil {
			return nil, err
		}
		pullRefs = append(pullRefs, ref.Rewrite(s.cfg.PullRegistry).String())

		doc, err := s.packageYAML(img.ArchivePath, img.Source)
		if err != nil {
			return nil, err
		}

		source := img.Source
		if patched, changed := pkgmeta.Patch(doc, rewrites); changed {
			slog.Info("pinning render dependencies to local digests", "image", img.Source)
			source, err = s.buildPatchedImage(ctx, img.Source, patched)
			if err != nil {
				return nil, err
			}
		}

		if err := s.docker.Tag(ctx, source, pushRef); err != nil {
			return nil, err
		}
		slog.Info("pushing image", "image", pushRef)
		if err := s.docker.Push(ctx, pushRef); err != nil {
			return nil, err
		}
	}

	return pullRefs, nil
}

// buildPatchedImage rebuilds a Configuration image with the patched
// metadata document at its root and returns the replacement tag.
func (s *Syncer) buildPatchedImage(ctx context.Context, source, packageYAML string) (string, error) {
	dir, err := os.MkdirTemp("", "xpdev-config-patch-")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to create patch build directory", err)
	}
	defer os.RemoveAll(dir)

	dockerfile := "FROM " + source + " AS src\n" +
		"FROM scratch\n" +
		"COPY --from=src / /\n" +
		"COPY package.yaml /package.yaml\n"
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(dockerfile), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to write patch build directory", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.yaml"), []byte(packageYAML), 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to write patch build directory", err)
	}

	tag := "xpdev/config-patched-" + shortHash(source) + ":" + uuid.NewString()
	if err := s.docker.BuildDir(ctx, tag, dir); err != nil {
		return "", err
	}
	return tag, nil
}

// validatePushRef runs the strict registry reference grammar over a push
// target before any tag or push names it. The loose internal algebra
// accepts more than a registry will.
func validatePushRef(ref string) error {
	if _, err := reference.ParseNormalizedNamed(ref); err != nil {
		return errors.WrapWithContext(errors.ErrCodeInvalidRequest,
			"invalid push reference", err,
			map[string]any{"reference": ref})
	}
	return nil
}

func shortHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:4])
}
