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
	"strings"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/xpdev-labs/xpdev/pkg/crossplane"
	"github.com/xpdev-labs/xpdev/pkg/errors"
)

// lockPackages returns the live lock entries, or none at all: the lock
// may legitimately not exist on a cluster without resolved packages.
func (p *Pruner) lockPackages(ctx context.Context) []crossplane.LockedPackage {
	raw, err := p.cp.GetJSON(ctx, crossplane.LockResource, crossplane.LockName)
	if err != nil {
		slog.Debug("package lock unavailable", "error", err)
		return nil
	}
	lock, err := crossplane.ParseLock([]byte(raw))
	if err != nil {
		slog.Debug("package lock unreadable", "error", err)
		return nil
	}
	return lock.Packages
}

// waitDeleted polls until none of the deleted Configurations remain.
// Revisions cannot be pruned safely while the parent may still exist,
// so timing out here aborts the run.
func (p *Pruner) waitDeleted(ctx context.Context, names []string) error {
	resource := crossplane.KindConfiguration.Resource()
	err := wait.PollUntilContextTimeout(ctx, p.cfg.DeletePollInterval, p.cfg.DeleteWaitTimeout, true,
		func(ctx context.Context) (bool, error) {
			for _, name := range names {
				if p.cp.Exists(ctx, resource, name) {
					slog.Debug("configuration still present", "name", name)
					return false, nil
				}
			}
			return true, nil
		})
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeTimeout,
			"configurations were not deleted in time", err,
			map[string]any{"names": names, "timeout": p.cfg.DeleteWaitTimeout.String()})
	}
	return nil
}

// waitLockConverged waits for the lock to drop every entry recorded
// under a deleted Configuration. Timing out is survivable: pruning
// continues with whatever snapshot the lock shows at that point.
func (p *Pruner) waitLockConverged(ctx context.Context, names []string) {
	err := wait.PollUntilContextTimeout(ctx, p.cfg.LockPollInterval, p.cfg.LockConvergeTimeout, true,
		func(ctx context.Context) (bool, error) {
			for _, pkg := range p.lockPackages(ctx) {
				if pkg.Kind != string(crossplane.KindConfiguration) {
					continue
				}
				for _, name := range names {
					if strings.HasPrefix(pkg.Name, name+"-") {
						slog.Debug("lock still references configuration", "entry", pkg.Name)
						return false, nil
					}
				}
			}
			return true, nil
		})
	if err != nil {
		slog.Warn("lock did not converge, pruning with the current snapshot", "names", names)
	}
}

// pruneOrphans removes package resources whose source dropped out of the
// lock, kind by kind, together with their revisions.
func (p *Pruner) pruneOrphans(ctx context.Context, orphans map[crossplane.SourceKey]struct{}) error {
	for _, kind := range crossplane.PackageKinds() {
		sources := map[string]struct{}{}
		for key := range orphans {
			if key.Kind == string(kind) {
				sources[key.Source] = struct{}{}
			}
		}
		if len(sources) == 0 {
			continue
		}

		primary, err := p.deleteBySource(ctx, kind.Resource(), sources)
		if err != nil {
			return err
		}
		revisions, err := p.deleteBySource(ctx, kind.RevisionResource(), sources)
		if err != nil {
			return err
		}
		if primary > 0 || revisions > 0 {
			slog.Info("pruned orphaned package resources",
				"kind", string(kind), "primary", primary, "revisions", revisions)
		}
	}
	return nil
}

// pruneByHints removes package resources of every kind whose source
// matches an archive-derived hint. This covers resources the lock never
// converged away from, such as packages deleted before their resolution
// completed.
func (p *Pruner) pruneByHints(ctx context.Context, hints map[string]struct{}) (int, error) {
	deleted := 0
	for _, kind := range crossplane.PackageKinds() {
		for _, resource := range []string{kind.Resource(), kind.RevisionResource()} {
			n, err := p.deleteBySource(ctx, resource, hints)
			if err != nil {
				return deleted, err
			}
			deleted += n
		}
	}
	return deleted, nil
}

// deleteBySource deletes every listed resource whose package reference
// normalizes into the source set and returns the delete count.
// Resources without a package reference are left alone.
func (p *Pruner) deleteBySource(ctx context.Context, resource string, sources map[string]struct{}) (int, error) {
	raw, err := p.cp.ListJSON(ctx, resource)
	if err != nil {
		return 0, err
	}
	items, err := crossplane.ParsePackageList([]byte(raw))
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, item := range items {
		source := item.Source()
		if source == "" {
			continue
		}
		if _, ok := sources[source]; !ok {
			continue
		}
		if err := p.cp.Delete(ctx, resource, item.Metadata.Name); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// pruneImageConfigs deletes rewrite rules whose match prefix names a
// removed render source.
func (p *Pruner) pruneImageConfigs(ctx context.Context, sources map[string]struct{}) error {
	raw, err := p.cp.ListJSON(ctx, crossplane.ImageConfigResource)
	if err != nil {
		return err
	}
	items, err := crossplane.ParseImageConfigList([]byte(raw))
	if err != nil {
		return err
	}

	deleted := 0
	for _, item := range items {
		if !item.MatchesAny(sources) {
			continue
		}
		if err := p.cp.Delete(ctx, crossplane.ImageConfigResource, item.Metadata.Name); err != nil {
			return err
		}
		deleted++
	}
	if deleted > 0 {
		slog.Info("pruned orphaned image rewrite rules", "count", deleted)
	}
	return nil
}
