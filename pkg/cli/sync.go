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

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/xpdev-labs/xpdev/pkg/defaults"
	"github.com/xpdev-labs/xpdev/pkg/docker"
	"github.com/xpdev-labs/xpdev/pkg/k8s/client"
	"github.com/xpdev-labs/xpdev/pkg/kubectl"
	"github.com/xpdev-labs/xpdev/pkg/project"
	"github.com/xpdev-labs/xpdev/pkg/registry"
	"github.com/xpdev-labs/xpdev/pkg/runner"
	"github.com/xpdev-labs/xpdev/pkg/syncer"
)

func syncCmd() *cli.Command {
	return &cli.Command{
		Name:                  "sync",
		EnableShellCompletion: true,
		Usage:                 "Build, push, and install Crossplane packages into the local control plane",
		Description: `Build the project's Crossplane packages, load them into the local
container runtime, push them to the cluster-local registry, and install
the resulting Configurations.

The command works in three modes:
  1. Path mode (default): build the project at --path and sync its packages.
  2. Repo mode: clone --repo to a temporary directory, then sync the clone.
  3. Published mode: with --repo and --version, skip the build and install
     the published ghcr.io package reference directly.

Function packages that the project build tool emits for render previews
are rebuilt before pushing and get an ImageConfig rewrite rule so the
control plane resolves their pinned digests from the cluster-local
registry.

# Examples

Sync the current directory:
  xpdev sync

Sync a working tree without rebuilding:
  xpdev sync --path ./stack --skip-build

Sync a GitHub repository:
  xpdev sync --repo acme/platform-stack

Install a published release without building:
  xpdev sync --repo acme/platform-stack --version v0.7.0`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "path",
				Usage: "Project directory containing the package sources",
				Value: ".",
			},
			&cli.StringFlag{
				Name:  "repo",
				Usage: "GitHub repository to sync (org/repo slug or URL)",
			},
			&cli.StringFlag{
				Name:  "version",
				Usage: "Published package version to install (requires --repo, skips the build)",
			},
			&cli.StringFlag{
				Name:    "push-registry",
				Usage:   "Registry endpoint images are pushed to",
				Sources: cli.EnvVars("XPDEV_PUSH_REGISTRY"),
				Value:   defaults.RegistryPushEndpoint,
			},
			&cli.StringFlag{
				Name:    "pull-registry",
				Usage:   "In-cluster registry endpoint written into package references",
				Sources: cli.EnvVars("XPDEV_PULL_REGISTRY"),
				Value:   defaults.RegistryPullEndpoint,
			},
			&cli.BoolFlag{
				Name:  "skip-build",
				Usage: "Sync the artifacts already present in the project's output directory",
			},
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			repo := strings.TrimSpace(cmd.String("repo"))
			pkgVersion := strings.TrimSpace(cmd.String("version"))

			if err := validateSyncSelectors(repo, pkgVersion, cmd.IsSet("path")); err != nil {
				return err
			}

			s, err := newSyncer(cmd)
			if err != nil {
				return err
			}

			switch {
			case pkgVersion != "":
				spec, err := project.ParseRepoSpec(repo)
				if err != nil {
					return err
				}
				return s.ApplyPublished(ctx, spec, pkgVersion)
			case repo != "":
				spec, err := project.ParseRepoSpec(repo)
				if err != nil {
					return err
				}
				return s.SyncRepo(ctx, spec)
			default:
				return s.SyncPath(ctx, cmd.String("path"))
			}
		},
	}
}

// validateSyncSelectors rejects flag combinations that select no defined
// sync mode.
func validateSyncSelectors(repo, version string, pathSet bool) error {
	if version != "" && repo == "" {
		return fmt.Errorf("--version requires --repo")
	}
	if repo != "" && pathSet {
		return fmt.Errorf("--path and --repo are mutually exclusive")
	}
	return nil
}

// syncConfigFrom reads the registry endpoints and build toggle off the
// parsed command.
func syncConfigFrom(cmd *cli.Command) syncer.Config {
	return syncer.Config{
		PushRegistry: cmd.String("push-registry"),
		PullRegistry: cmd.String("pull-registry"),
		SkipBuild:    cmd.Bool("skip-build"),
	}
}

// newSyncer wires the sync pipeline: one process runner shared by the
// docker, kubectl, and project tools, a client-go clientset for registry
// preflight, and kubectl for manifest writes.
func newSyncer(cmd *cli.Command) (*syncer.Syncer, error) {
	run := runner.New()
	kube := kubectl.New(run, kubectl.WithKubeconfig(cmd.String("kubeconfig")))

	clientset, _, err := client.BuildKubeClient(cmd.String("kubeconfig"))
	if err != nil {
		return nil, fmt.Errorf("building kubernetes client: %w", err)
	}
	reg := registry.NewManager(clientset, kube, registry.Config{})

	return syncer.New(docker.New(run), kube, reg, project.New(run), syncConfigFrom(cmd)), nil
}
