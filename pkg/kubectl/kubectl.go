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

package kubectl

import (
	"context"

	"github.com/xpdev-labs/xpdev/pkg/runner"
)

const binary = "kubectl"

// Kubectl wraps the kubectl CLI operations the sync and teardown flows
// need.
type Kubectl struct {
	run        runner.Runner
	kubeconfig string
}

// Option is a functional option for configuring Kubectl instances.
type Option func(*Kubectl)

// WithKubeconfig returns an Option that pins kubectl at an explicit
// kubeconfig file instead of its default resolution.
func WithKubeconfig(path string) Option {
	return func(k *Kubectl) {
		k.kubeconfig = path
	}
}

// New creates a kubectl client on top of the given process runner.
func New(run runner.Runner, opts ...Option) *Kubectl {
	k := &Kubectl{run: run}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Apply applies a YAML manifest fed on stdin, streaming kubectl's
// output to the terminal.
func (k *Kubectl) Apply(ctx context.Context, manifest string) error {
	return k.run.Run(ctx, runner.Command{
		Name:  binary,
		Args:  k.args("apply", "-f", "-"),
		Stdin: manifest,
	})
}

// GetJSON fetches a single resource as JSON.
func (k *Kubectl) GetJSON(ctx context.Context, resource, name string) (string, error) {
	return k.run.Output(ctx, runner.Command{
		Name: binary,
		Args: k.args("get", resource, name, "-o", "json"),
	})
}

// ListJSON fetches a resource listing as JSON.
func (k *Kubectl) ListJSON(ctx context.Context, resource string) (string, error) {
	return k.run.Output(ctx, runner.Command{
		Name: binary,
		Args: k.args("get", resource, "-o", "json"),
	})
}

// Exists reports whether the named resource is present. Lookup
// failures count as absence so deletion waits converge on flaky
// connections instead of aborting.
func (k *Kubectl) Exists(ctx context.Context, resource, name string) bool {
	_, err := k.run.Output(ctx, runner.Command{
		Name: binary,
		Args: k.args("get", resource, name, "-o", "name"),
	})
	return err == nil
}

// Delete removes the named resource, tolerating prior deletion.
func (k *Kubectl) Delete(ctx context.Context, resource, name string) error {
	return k.run.Run(ctx, runner.Command{
		Name: binary,
		Args: k.args("delete", resource, name, "--ignore-not-found"),
	})
}

func (k *Kubectl) args(args ...string) []string {
	if k.kubeconfig == "" {
		return args
	}
	return append([]string{"--kubeconfig", k.kubeconfig}, args...)
}
