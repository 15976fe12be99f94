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

package registry

import (
	"context"
	_ "embed"
	"log/slog"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"oras.land/oras-go/v2/registry/remote"

	"github.com/xpdev-labs/xpdev/pkg/defaults"
	"github.com/xpdev-labs/xpdev/pkg/errors"
	"github.com/xpdev-labs/xpdev/pkg/k8s/client"
)

//go:embed registry.yaml
var registryManifest string

// Applier applies YAML manifests to the cluster.
type Applier interface {
	Apply(ctx context.Context, manifest string) error
}

// Config parameterizes the registry manager. Zero values fall back to
// the packaged defaults.
type Config struct {
	Namespace    string
	Deployment   string
	PushEndpoint string
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = defaults.CrossplaneNamespace
	}
	if c.Deployment == "" {
		c.Deployment = defaults.RegistryDeploymentName
	}
	if c.PushEndpoint == "" {
		c.PushEndpoint = defaults.RegistryPushEndpoint
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaults.RegistryPollInterval
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = defaults.RegistryReadyTimeout
	}
	return c
}

// Manager ensures the cluster-local package registry is deployed,
// available, and reachable from the host.
type Manager struct {
	clientset client.Interface
	applier   Applier
	cfg       Config

	// ping is swappable for tests; the default speaks the OCI
	// distribution protocol against the push endpoint.
	ping func(ctx context.Context, endpoint string) error
}

// NewManager creates a registry manager using the given API client for
// reads and the applier for manifest writes.
func NewManager(clientset client.Interface, applier Applier, cfg Config) *Manager {
	return &Manager{
		clientset: clientset,
		applier:   applier,
		cfg:       cfg.withDefaults(),
		ping:      pingEndpoint,
	}
}

// Ensure deploys the registry when it is not already available, waits
// for an available replica, and confirms the push endpoint serves the
// registry API.
func (m *Manager) Ensure(ctx context.Context) error {
	if m.available(ctx) {
		slog.Debug("package registry already available",
			"namespace", m.cfg.Namespace,
			"deployment", m.cfg.Deployment)
	} else {
		slog.Info("deploying local package registry",
			"namespace", m.cfg.Namespace,
			"endpoint", m.cfg.PushEndpoint)

		if err := m.applier.Apply(ctx, registryManifest); err != nil {
			return err
		}
		if err := m.waitForAvailable(ctx); err != nil {
			return err
		}
	}

	m.verifyService(ctx)
	return m.waitForEndpoint(ctx)
}

// available reports whether the registry deployment has at least one
// available replica. Lookup errors count as unavailable.
func (m *Manager) available(ctx context.Context) bool {
	deploy, err := m.clientset.AppsV1().Deployments(m.cfg.Namespace).
		Get(ctx, m.cfg.Deployment, metav1.GetOptions{})
	if err != nil {
		return false
	}
	return deploy.Status.AvailableReplicas > 0
}

func (m *Manager) waitForAvailable(ctx context.Context) error {
	err := wait.PollUntilContextTimeout(ctx, m.cfg.PollInterval, m.cfg.ReadyTimeout, true,
		func(ctx context.Context) (bool, error) {
			return m.available(ctx), nil
		},
	)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeTimeout,
			"registry deployment did not become available", err,
			map[string]any{
				"namespace":  m.cfg.Namespace,
				"deployment": m.cfg.Deployment,
				"timeout":    m.cfg.ReadyTimeout.String(),
			})
	}
	return nil
}

// verifyService records the registry Service addresses for debugging
// and warns when its ports drift from the packaged defaults. Drift is
// not fatal: the deployment may be intentionally customized.
func (m *Manager) verifyService(ctx context.Context) {
	svc, err := m.clientset.CoreV1().Services(m.cfg.Namespace).
		Get(ctx, m.cfg.Deployment, metav1.GetOptions{})
	if err != nil {
		slog.Warn("package registry service lookup failed", "error", err)
		return
	}

	slog.Debug("package registry service",
		"clusterIP", svc.Spec.ClusterIP,
		"ports", len(svc.Spec.Ports))

	for _, port := range svc.Spec.Ports {
		if port.Port == defaults.RegistryPort {
			if port.NodePort != defaults.RegistryNodePort {
				slog.Warn("registry service NodePort differs from push endpoint",
					"nodePort", port.NodePort,
					"expected", defaults.RegistryNodePort)
			}
			return
		}
	}

	slog.Warn("registry service does not declare the registry port",
		"port", defaults.RegistryPort)
}

// waitForEndpoint polls the push endpoint until it answers registry
// API requests. The NodePort can lag the deployment becoming
// available while kube-proxy programs the route.
func (m *Manager) waitForEndpoint(ctx context.Context) error {
	err := wait.PollUntilContextTimeout(ctx, m.cfg.PollInterval, m.cfg.ReadyTimeout, true,
		func(ctx context.Context) (bool, error) {
			if pingErr := m.ping(ctx, m.cfg.PushEndpoint); pingErr != nil {
				slog.Debug("registry endpoint not ready",
					"endpoint", m.cfg.PushEndpoint,
					"error", pingErr)
				return false, nil
			}
			return true, nil
		},
	)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeTimeout,
			"registry push endpoint not reachable", err,
			map[string]any{"endpoint": m.cfg.PushEndpoint})
	}
	return nil
}

// pingEndpoint checks the endpoint with an OCI distribution ping. The
// local registry serves plain HTTP on its NodePort.
func pingEndpoint(ctx context.Context, endpoint string) error {
	reg, err := remote.NewRegistry(endpoint)
	if err != nil {
		return err
	}
	reg.PlainHTTP = true
	return reg.Ping(ctx)
}
