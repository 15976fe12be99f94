// Package cli implements the command-line interface for the xpdev local
// development tool.
//
// # Overview
//
// The xpdev CLI moves Crossplane packages between a project workspace and a
// local control plane. It is aimed at package authors iterating on
// Configurations: build locally, install into a kind or similar dev
// cluster, tear down, repeat.
//
// # Commands
//
// sync - build and install project packages:
//
//	xpdev sync [--path DIR | --repo ORG/REPO [--version TAG]]
//
// Builds the project's packages (unless --skip-build), loads the produced
// archives into the container runtime, pushes every image to the
// cluster-local registry, and applies a Configuration per package. With
// --repo the project is cloned to a temporary directory first; adding
// --version skips the build entirely and installs the published ghcr.io
// reference.
//
// prune - remove installed packages:
//
//	xpdev prune (--name NAME | --repo ORG/REPO | --path DIR)
//
// Deletes the selected Configurations, then prunes the package resources
// and ImageConfig rewrite rules that the deletion orphaned, using a
// before/after diff of the Crossplane package lock.
//
// # Global Flags
//
//	--log-level    Log verbosity: debug, info, warn, error (default info)
//	--help, -h     Show command help
//	--version, -v  Show version information
//
// # Environment Variables
//
//	XPDEV_LOG_LEVEL      Log verbosity override
//	XPDEV_PUSH_REGISTRY  Registry endpoint images are pushed to
//	XPDEV_PULL_REGISTRY  In-cluster registry endpoint used in package references
//	XPDEV_KUBECONFIG     Kubeconfig path override
//
// # Exit Codes
//
//	0  Success
//	1  General error (invalid arguments, execution failure)
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to specialized
// packages:
//   - pkg/syncer - build/push/install pipeline
//   - pkg/gc - lock-diff teardown
//   - pkg/registry - cluster-local registry provisioning
//   - pkg/project - project build tool and artifact discovery
//   - pkg/logging - structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/xpdev-labs/xpdev/pkg/cli.version=1.0.0'"
package cli
