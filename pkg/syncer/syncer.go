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
	"log/slog"
	"os"
	"strings"

	"github.com/xpdev-labs/xpdev/pkg/artifact"
	"github.com/xpdev-labs/xpdev/pkg/crossplane"
	"github.com/xpdev-labs/xpdev/pkg/defaults"
	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/oci"
	"github.com/xpdev-labs/xpdev/pkg/project"
)

// ContainerRuntime is the container-engine surface the sync flow drives.
type ContainerRuntime interface {
	Load(ctx context.Context, archivePath string) ([]string, error)
	Tag(ctx context.Context, source, target string) error
	Push(ctx context.Context, image string) error
	PushCapturingDigest(ctx context.Context, image string) (string, error)
	BuildFrom(ctx context.Context, source, tag string) error
	BuildDir(ctx context.Context, tag, dir string) error
}

// Applier applies rendered manifests to the control plane.
type Applier interface {
	Apply(ctx context.Context, manifest string) error
}

// Registry prepares the cluster-local registry before any push.
type Registry interface {
	Ensure(ctx context.Context) error
}

// ProjectTool builds project directories and clones repositories.
type ProjectTool interface {
	Build(ctx context.Context, dir string) error
	Clone(ctx context.Context, spec project.RepoSpec) (string, error)
}

// Config carries the registry endpoints image references are rewritten
// against. Zero values fall back to the standard local-cluster layout.
type Config struct {
	// PushRegistry is the host-side endpoint images are pushed to.
	PushRegistry string

	// PullRegistry is the in-cluster endpoint package references are
	// rewritten to.
	PullRegistry string

	// SkipBuild syncs the artifacts already present in the project's
	// output directory instead of rebuilding them.
	SkipBuild bool
}

func (c Config) withDefaults() Config {
	if c.PushRegistry == "" {
		c.PushRegistry = defaults.RegistryPushEndpoint
	}
	if c.PullRegistry == "" {
		c.PullRegistry = defaults.RegistryPullEndpoint
	}
	return c
}

// LoadedImage is one image reference reported by the container engine
// while loading a package archive, paired with the archive it came from.
type LoadedImage struct {
	Source      string
	ArchivePath string
}

// Syncer runs the package synchronization pipeline.
type Syncer struct {
	docker   ContainerRuntime
	applier  Applier
	registry Registry
	project  ProjectTool
	cfg      Config

	// packageYAML is swappable in tests; real package archives are too
	// heavyweight to fabricate per scenario.
	packageYAML func(archivePath, imageRef string) (string, error)
}

// New creates a Syncer on top of the given collaborators.
func New(docker ContainerRuntime, applier Applier, registry Registry, proj ProjectTool, cfg Config) *Syncer {
	return &Syncer{
		docker:      docker,
		applier:     applier,
		registry:    registry,
		project:     proj,
		cfg:         cfg.withDefaults(),
		packageYAML: artifact.PackageYAML,
	}
}

// SyncPath builds the project at dir, pushes its package images into the
// cluster-local registry, and applies a Configuration per package image.
func (s *Syncer) SyncPath(ctx context.Context, dir string) error {
	return s.sync(ctx, dir, s.cfg.SkipBuild)
}

// SyncRepo clones the repository, syncs the checkout, and removes it.
// The clone is always built: a fresh checkout has no artifacts yet.
func (s *Syncer) SyncRepo(ctx context.Context, spec project.RepoSpec) error {
	slog.Info("cloning repository", "url", spec.CloneURL())
	dir, err := s.project.Clone(ctx, spec)
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	return s.sync(ctx, dir, false)
}

// ApplyPublished applies a Configuration for an already published
// package version, without cloning or building anything.
func (s *Syncer) ApplyPublished(ctx context.Context, spec project.RepoSpec, version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "version cannot be empty")
	}

	return s.applyConfiguration(ctx, spec.ConfigurationName(), spec.PackageRef(version), false)
}

func (s *Syncer) sync(ctx context.Context, dir string, skipBuild bool) error {
	if err := project.ValidateDir(dir); err != nil {
		return err
	}
	if err := s.registry.Ensure(ctx); err != nil {
		return err
	}

	if skipBuild {
		slog.Info("skipping project build", "dir", dir)
	} else {
		slog.Info("building project", "dir", dir)
		if err := s.project.Build(ctx, dir); err != nil {
			return err
		}
	}

	archives, err := project.FindArtifacts(dir)
	if err != nil {
		return err
	}

	loaded, err := s.loadArchives(ctx, archives)
	if err != nil {
		return err
	}

	rewrites, err := s.pushImages(ctx, loaded)
	if err != nil {
		return err
	}
	if err := s.applyImageConfigs(ctx, rewrites); err != nil {
		return err
	}

	pullRefs, err := s.pushConfigurations(ctx, loaded, rewrites)
	if err != nil {
		return err
	}
	for _, pullRef := range pullRefs {
		if err := s.applyConfiguration(ctx, configurationName(pullRef), pullRef, false); err != nil {
			return err
		}
	}

	slog.Info("synchronization complete",
		"images", len(loaded),
		"renderRewrites", len(rewrites),
		"configurations", len(pullRefs))
	return nil
}

// loadArchives loads every archive into the container engine and returns
// the reported image references. The same reference can surface from
// several archives; the first occurrence wins.
func (s *Syncer) loadArchives(ctx context.Context, archives []string) ([]LoadedImage, error) {
	var loaded []LoadedImage
	seen := map[string]struct{}{}

	for _, archive := range archives {
		slog.Info("loading package archive", "archive", archive)
		sources, err := s.docker.Load(ctx, archive)
		if err != nil {
			return nil, err
		}

		for _, source := range sources {
			if _, ok := seen[source]; ok {
				slog.Debug("duplicate image skipped", "image", source, "archive", archive)
				continue
			}
			seen[source] = struct{}{}
			loaded = append(loaded, LoadedImage{Source: source, ArchivePath: archive})
		}
	}

	if len(loaded) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "no images were loaded from package archives")
	}
	return loaded, nil
}

// applyConfiguration renders and applies one Configuration resource.
func (s *Syncer) applyConfiguration(ctx context.Context, name, packageRef string, skipDependencyResolution bool) error {
	slog.Info("applying configuration", "name", name, "package", packageRef)

	manifest, err := crossplane.NewConfiguration(name, packageRef, skipDependencyResolution).YAML()
	if err != nil {
		return err
	}
	return s.applier.Apply(ctx, manifest)
}

// configurationName derives the resource name from the last path segment
// of a package reference.
func configurationName(packageRef string) string {
	path := oci.Parse(packageRef).Path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
