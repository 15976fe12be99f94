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

package project

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/xpdev-labs/xpdev/pkg/crossplane"
	"github.com/xpdev-labs/xpdev/pkg/defaults"
	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/runner"
)

// Project runs project-level operations through external tools.
type Project struct {
	run runner.Runner
}

// New creates a project handler on top of the given process runner.
func New(run runner.Runner) *Project {
	return &Project{run: run}
}

// Build runs the package build in dir, streaming tool output.
func (p *Project) Build(ctx context.Context, dir string) error {
	return p.run.Run(ctx, runner.Command{
		Name: "up",
		Args: []string{"project", "build"},
		Dir:  dir,
	})
}

// Clone checks the repository out into a fresh temporary directory and
// returns its path. The caller owns removal.
func (p *Project) Clone(ctx context.Context, spec RepoSpec) (string, error) {
	dir := filepath.Join(os.TempDir(), strings.Join([]string{
		"xpdev-sync-repo",
		crossplane.SanitizeName(spec.Org),
		crossplane.SanitizeName(spec.Repo),
		uuid.NewString(),
	}, "-"))

	if err := p.run.Run(ctx, runner.Command{
		Name: "git",
		Args: []string{"clone", spec.CloneURL(), dir},
	}); err != nil {
		return "", err
	}
	return dir, nil
}

// ValidateDir confirms path names an existing directory.
func ValidateDir(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"path is not a directory",
			map[string]any{"path": path})
	}
	return nil
}

// FindArtifacts returns the package archives under the project's
// output directory, sorted by name. An empty result is an error: a
// built project always leaves at least one archive behind.
func FindArtifacts(dir string) ([]string, error) {
	outputDir := filepath.Join(dir, defaults.OutputDir)

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeNotFound,
			"reading project output directory", err,
			map[string]any{"dir": outputDir})
	}

	var archives []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), defaults.ArtifactExtension) {
			continue
		}
		archives = append(archives, filepath.Join(outputDir, entry.Name()))
	}

	if len(archives) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeNotFound,
			"no package archives found",
			map[string]any{"dir": outputDir, "extension": defaults.ArtifactExtension})
	}

	slices.Sort(archives)
	return archives, nil
}
