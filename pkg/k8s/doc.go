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

// Package k8s provides Kubernetes API integration for local cluster
// syncing.
//
// # Sub-packages
//
// client: Singleton Kubernetes client with automatic authentication
//
//	clientset, config, err := client.GetKubeClient()
//	if err != nil {
//	    return err
//	}
//	// Use clientset for API operations
//
// # Architecture
//
// The k8s package follows these design principles:
//
//   - Singleton Pattern: The client package uses sync.Once to ensure a
//     single Kubernetes client instance is shared across a command
//     invocation.
//
//   - Automatic Authentication: The client automatically detects
//     whether it's running in-cluster (using service account) or
//     out-of-cluster (using kubeconfig file), and accepts an explicit
//     kubeconfig path for multi-cluster setups.
//
// Manifest mutations still go through kubectl so users see the
// server's apply output; the API client serves structured reads such
// as deployment availability while the package registry starts up.
//
// # Usage Patterns
//
// For most use cases, import and use the client sub-package:
//
//	import "github.com/xpdev-labs/xpdev/pkg/k8s/client"
//
//	// Get shared client instance
//	clientset, _, err := client.GetKubeClient()
package k8s
