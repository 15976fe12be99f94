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

// Package defaults provides centralized configuration constants for xpdev.
//
// This package defines timeout values, registry endpoints, and other
// configuration defaults used across the codebase. Centralizing these
// values ensures consistency and makes tuning easier.
//
// # Categories
//
// Constants are organized by concern:
//
//   - Registry timeouts: For local registry readiness polling
//   - Garbage collection timeouts: For teardown convergence waits
//   - Registry endpoints: Push (host) and pull (in-cluster) addresses
//   - Artifact conventions: Archive extension and output directory
//
// # Usage
//
// Import and use constants directly:
//
//	import "github.com/xpdev-labs/xpdev/pkg/defaults"
//
//	err := wait.PollUntilContextTimeout(ctx,
//	    defaults.RegistryPollInterval, defaults.RegistryReadyTimeout,
//	    true, check)
//
// # Timeout Guidelines
//
// When choosing timeout values:
//
//   - Registry readiness: 2m covers image pull on a cold cluster
//   - Configuration deletion: 2m, fatal on expiry
//   - Lock convergence: 90s, degrades to a warning on expiry
package defaults
