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

package defaults

// Local registry endpoints. The registry is reachable on two addresses:
// a NodePort from the host (for docker push) and a cluster-internal
// service address (for package references resolved inside the cluster).
const (
	// RegistryPushEndpoint is the host-side address images are pushed to.
	RegistryPushEndpoint = "localhost:30500"

	// RegistryPullEndpoint is the in-cluster address package references
	// are rewritten to.
	RegistryPullEndpoint = "registry.crossplane-system.svc.cluster.local:5000"

	// CrossplaneNamespace is the namespace holding the registry and the
	// Crossplane installation.
	CrossplaneNamespace = "crossplane-system"

	// RegistryDeploymentName is the name of the registry Deployment and
	// its Service.
	RegistryDeploymentName = "registry"

	// RegistryPort is the in-cluster registry port.
	RegistryPort = 5000

	// RegistryNodePort is the host-exposed registry port.
	RegistryNodePort = 30500
)

// Project build artifacts.
const (
	// ArtifactExtension is the file extension of built package archives.
	ArtifactExtension = ".uppkg"

	// OutputDir is the directory, relative to a project root, where the
	// build tool writes package archives.
	OutputDir = "_output"
)
