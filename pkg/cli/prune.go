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

	"github.com/urfave/cli/v3"

	"github.com/xpdev-labs/xpdev/pkg/gc"
	"github.com/xpdev-labs/xpdev/pkg/kubectl"
	"github.com/xpdev-labs/xpdev/pkg/runner"
)

func pruneCmd() *cli.Command {
	return &cli.Command{
		Name:                  "prune",
		EnableShellCompletion: true,
		Usage:                 "Remove installed Configurations and their orphaned packages",
		Description: `Delete the selected Configurations from the control plane, wait for the
package manager to release their dependencies, and prune the package
resources nothing references anymore.

The command snapshots the Crossplane package lock before and after the
deletion and removes only the packages that disappeared from the lock,
so dependencies shared with other Configurations survive. ImageConfig
rewrite rules created during sync are removed together with the render
packages they point at.

Exactly one selector must be given.

# Examples

Remove by resource name:
  xpdev prune --name acme-platform-stack

Remove by repository:
  xpdev prune --repo acme/platform-stack

Remove the packages built by a local project:
  xpdev prune --path ./stack`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "name",
				Usage: "Configuration resource name to remove",
			},
			&cli.StringFlag{
				Name:  "repo",
				Usage: "GitHub repository the Configuration was synced from (org/repo slug or URL)",
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Project directory whose built packages should be removed",
			},
			kubeconfigFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kube := kubectl.New(runner.New(), kubectl.WithKubeconfig(cmd.String("kubeconfig")))

			return gc.New(kube, gc.Config{}).Prune(ctx, gc.Target{
				Name: cmd.String("name"),
				Repo: cmd.String("repo"),
				Path: cmd.String("path"),
			})
		},
	}
}
