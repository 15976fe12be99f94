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

// Package client provides a singleton Kubernetes client for efficient cluster interactions.
//
// This package centralizes Kubernetes API access using a singleton pattern with
// sync.Once so every component of a sync run shares one client instead of
// re-dialing the API server.
//
// # Singleton Pattern
//
// The client is initialized once on first use and cached for subsequent calls:
//
//	import "github.com/xpdev-labs/xpdev/pkg/k8s/client"
//
//	clientset, config, err := client.GetKubeClient()
//	if err != nil {
//	    return fmt.Errorf("failed to get kubernetes client: %w", err)
//	}
//
//	// Use clientset for API operations
//	deploy, err := clientset.AppsV1().Deployments("crossplane-system").Get(ctx, "registry", metav1.GetOptions{})
//
// # Custom Kubeconfig Path
//
// When a command takes an explicit kubeconfig flag, use BuildKubeClient
// directly; it bypasses the singleton cache:
//
//	clientset, config, err := client.BuildKubeClient("/path/to/custom/kubeconfig")
//	if err != nil {
//	    return fmt.Errorf("failed to build kubernetes client: %w", err)
//	}
//
// # Authentication Modes
//
// The client automatically handles both in-cluster and out-of-cluster authentication:
//
// In-cluster (running as Kubernetes Pod/Job):
//   - Uses service account credentials from /var/run/secrets/kubernetes.io/serviceaccount/
//   - Automatically configured when running inside a Kubernetes cluster
//
// Out-of-cluster (running locally, the usual case for a dev workstation):
//   - Checks KUBECONFIG environment variable first
//   - Falls back to ~/.kube/config if KUBECONFIG not set
//   - Returns error if no valid kubeconfig found
//
// # Testing
//
// For testing, use kubernetes client-go fake clients:
//
//	import (
//	    "k8s.io/client-go/kubernetes/fake"
//	)
//
//	func TestEnsure(t *testing.T) {
//	    fakeClient := fake.NewClientset()
//	    // Exercise API reads without a real cluster
//	}
package client
