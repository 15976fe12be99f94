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
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/xpdev-labs/xpdev/pkg/logging"
)

const (
	name           = "xpdev"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// kubeconfigFlag is shared by every command that talks to the cluster.
var kubeconfigFlag = &cli.StringFlag{
	Name:    "kubeconfig",
	Usage:   "Path to the kubeconfig file (default: KUBECONFIG, then ~/.kube/config)",
	Sources: cli.EnvVars("XPDEV_KUBECONFIG"),
}

func rootCmd() *cli.Command {
	return &cli.Command{
		Name:    name,
		Version: version,
		Usage:   "Crossplane local development CLI",
		Description: fmt.Sprintf(`xpdev - Crossplane local development CLI

Version: %s
Commit:  %s
Built:   %s

Tooling to move Crossplane packages between a project workspace and a
local control plane:

sync  - builds project packages, pushes them to the cluster-local
        registry, and installs the resulting Configurations.

prune - removes installed Configurations and prunes the package
        resources orphaned by their removal.`, version, commit, date),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("XPDEV_LOG_LEVEL"),
				Value:   "info",
			},
		},
		// The logger is configured after flag parsing so --log-level takes
		// effect before any command executes.
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logLevel := cmd.String("log-level")
			logging.SetDefaultStructuredLoggerWithLevel(name, version, logLevel)
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date,
				"logLevel", logLevel)
			return ctx, nil
		},
		Commands: []*cli.Command{
			syncCmd(),
			pruneCmd(),
		},
	}
}

// Execute runs the root command. It is called by main.main() and handles
// SIGINT/SIGTERM by cancelling the command context so in-flight cluster
// operations stop cleanly.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
