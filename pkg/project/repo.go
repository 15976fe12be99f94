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
	"strings"

	"github.com/xpdev-labs/xpdev/pkg/crossplane"
	"github.com/xpdev-labs/xpdev/pkg/errors"
)

// RepoSpec identifies a GitHub-hosted project.
type RepoSpec struct {
	Org  string
	Repo string
}

// ParseRepoSpec accepts an <org>/<repo> slug or a github.com URL, with
// or without scheme and .git suffix.
func ParseRepoSpec(repo string) (RepoSpec, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(repo), "/")
	if trimmed == "" {
		return RepoSpec{}, errors.New(errors.ErrCodeInvalidRequest, "repository cannot be empty")
	}

	for _, prefix := range []string{"https://github.com/", "http://github.com/", "github.com/"} {
		if rest, ok := strings.CutPrefix(trimmed, prefix); ok {
			trimmed = rest
			break
		}
	}
	trimmed = strings.TrimSuffix(trimmed, ".git")

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepoSpec{}, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"expected repository as <org>/<repo>",
			map[string]any{"repo": repo})
	}

	return RepoSpec{Org: parts[0], Repo: parts[1]}, nil
}

// CloneURL returns the HTTPS clone address of the repository.
func (s RepoSpec) CloneURL() string {
	return "https://github.com/" + s.Org + "/" + s.Repo
}

// ConfigurationName derives the Configuration resource name the
// repository's package is applied under.
func (s RepoSpec) ConfigurationName() string {
	return crossplane.SanitizeName(s.Org) + "-" + crossplane.SanitizeName(s.Repo)
}

// PackageRef returns the published package reference for a released
// version of the repository.
func (s RepoSpec) PackageRef(version string) string {
	return "ghcr.io/" + s.Org + "/" + s.Repo + ":" + version
}
