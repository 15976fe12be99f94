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

package gc

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/xpdev-labs/xpdev/pkg/artifact"
	"github.com/xpdev-labs/xpdev/pkg/crossplane"
	"github.com/xpdev-labs/xpdev/pkg/defaults"
	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/oci"
	"github.com/xpdev-labs/xpdev/pkg/project"
)

// ControlPlane is the kubectl surface the teardown flow drives.
type ControlPlane interface {
	GetJSON(ctx context.Context, resource, name string) (string, error)
	ListJSON(ctx context.Context, resource string) (string, error)
	Exists(ctx context.Context, resource, name string) bool
	Delete(ctx context.Context, resource, name string) error
}

// Target selects the Configurations to remove. Exactly one selector
// must be set.
type Target struct {
	// Name is a Configuration resource name, used as is.
	Name string

	// Repo is a GitHub <org>/<repo> slug or URL. The resource name is
	// derived from it the same way sync derives it.
	Repo string

	// Path is a project directory. Resource names and source hints are
	// derived from the package archives in its output directory.
	Path string
}

// Config carries the teardown polling windows. Zero values fall back to
// the standard timeouts.
type Config struct {
	// DeletePollInterval is the delay between checks that deleted
	// Configurations are gone.
	DeletePollInterval time.Duration

	// DeleteWaitTimeout bounds the deletion wait. Exceeding it is fatal.
	DeleteWaitTimeout time.Duration

	// LockPollInterval is the delay between package lock reads.
	LockPollInterval time.Duration

	// LockConvergeTimeout bounds the lock convergence wait. Exceeding it
	// degrades to a warning and pruning continues.
	LockConvergeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.DeletePollInterval <= 0 {
		c.DeletePollInterval = defaults.DeletePollInterval
	}
	if c.DeleteWaitTimeout <= 0 {
		c.DeleteWaitTimeout = defaults.DeleteWaitTimeout
	}
	if c.LockPollInterval <= 0 {
		c.LockPollInterval = defaults.LockPollInterval
	}
	if c.LockConvergeTimeout <= 0 {
		c.LockConvergeTimeout = defaults.LockConvergeTimeout
	}
	return c
}

// Pruner removes Configurations and the package resources, revisions,
// and rewrite rules nothing references once they are gone.
type Pruner struct {
	cp  ControlPlane
	cfg Config

	// archive readers are swappable in tests; real package archives are
	// too heavyweight to fabricate per scenario.
	configurationNames func(archivePath string) ([]string, error)
	repoTags           func(archivePath string) ([]string, error)
}

// New creates a Pruner on top of the given control-plane collaborator.
func New(cp ControlPlane, cfg Config) *Pruner {
	return &Pruner{
		cp:                 cp,
		cfg:                cfg.withDefaults(),
		configurationNames: artifact.ConfigurationNames,
		repoTags:           artifact.RepoTags,
	}
}

// Prune deletes the selected Configurations, waits for the packaged
// state to converge, and prunes what the lock diff and any archive
// hints prove orphaned.
func (p *Pruner) Prune(ctx context.Context, target Target) error {
	names, hints, err := p.resolve(target)
	if err != nil {
		return err
	}

	slog.Info("removing configurations", "names", names)
	preSources := crossplane.SourceSet(p.lockPackages(ctx))

	for _, name := range names {
		slog.Info("deleting configuration", "name", name)
		if err := p.cp.Delete(ctx, crossplane.KindConfiguration.Resource(), name); err != nil {
			return err
		}
	}
	if err := p.waitDeleted(ctx, names); err != nil {
		return err
	}
	p.waitLockConverged(ctx, names)

	postSources := crossplane.SourceSet(p.lockPackages(ctx))
	orphans := subtract(preSources, postSources)

	renderSources := map[string]struct{}{}
	for key := range orphans {
		if key.Kind == string(crossplane.KindFunction) && oci.IsRenderPath(key.Source) {
			renderSources[key.Source] = struct{}{}
		}
	}

	if len(orphans) == 0 {
		slog.Info("no orphaned package sources detected in lock diff")
	} else if err := p.pruneOrphans(ctx, orphans); err != nil {
		return err
	}

	hintedPrunes := 0
	if len(hints) > 0 {
		hintedPrunes, err = p.pruneByHints(ctx, hints)
		if err != nil {
			return err
		}
		if hintedPrunes > 0 {
			slog.Info("pruned package resources matching archive sources", "count", hintedPrunes)
		}
		for hint := range hints {
			if oci.IsRenderPath(hint) {
				renderSources[hint] = struct{}{}
			}
		}
	}

	if len(renderSources) > 0 {
		if err := p.pruneImageConfigs(ctx, renderSources); err != nil {
			return err
		}
	}

	slog.Info("teardown complete",
		"orphanedSources", len(orphans),
		"hintedPrunes", hintedPrunes)
	return nil
}

// resolve turns the target selector into Configuration names and, for
// directory targets, the source hints read from its archives.
func (p *Pruner) resolve(target Target) ([]string, map[string]struct{}, error) {
	selectors := 0
	for _, set := range []bool{target.Name != "", target.Repo != "", target.Path != ""} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		return nil, nil, errors.New(errors.ErrCodeInvalidRequest,
			"exactly one of name, repo, or path must be given")
	}

	switch {
	case target.Name != "":
		name := strings.TrimSpace(target.Name)
		if name == "" {
			return nil, nil, errors.New(errors.ErrCodeInvalidRequest, "name cannot be empty")
		}
		return []string{name}, nil, nil

	case target.Repo != "":
		spec, err := project.ParseRepoSpec(target.Repo)
		if err != nil {
			return nil, nil, err
		}
		return []string{spec.ConfigurationName()}, nil, nil

	default:
		return p.resolveFromPath(target.Path)
	}
}

// resolveFromPath reads every package archive under the project's output
// directory: Configuration image names become deletion targets, and all
// recorded references become source hints for the prune.
func (p *Pruner) resolveFromPath(path string) ([]string, map[string]struct{}, error) {
	if err := project.ValidateDir(path); err != nil {
		return nil, nil, err
	}
	archives, err := project.FindArtifacts(path)
	if err != nil {
		return nil, nil, err
	}

	nameSet := map[string]struct{}{}
	hints := map[string]struct{}{}
	for _, archive := range archives {
		names, err := p.configurationNames(archive)
		if err != nil {
			return nil, nil, err
		}
		for _, name := range names {
			nameSet[name] = struct{}{}
		}

		tags, err := p.repoTags(archive)
		if err != nil {
			return nil, nil, err
		}
		for _, tag := range tags {
			if source := crossplane.PackageSource(tag); source != "" {
				hints[source] = struct{}{}
			}
		}
	}

	if len(nameSet) == 0 {
		return nil, nil, errors.NewWithContext(errors.ErrCodeNotFound,
			"no configuration package images found in archives",
			map[string]any{"dir": path})
	}

	return slices.Sorted(maps.Keys(nameSet)), hints, nil
}

func subtract(pre, post map[crossplane.SourceKey]struct{}) map[crossplane.SourceKey]struct{} {
	diff := map[crossplane.SourceKey]struct{}{}
	for key := range pre {
		if _, ok := post[key]; !ok {
			diff[key] = struct{}{}
		}
	}
	return diff
}
