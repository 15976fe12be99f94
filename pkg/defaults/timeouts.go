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

import "time"

// Registry timeouts for the cluster-local registry.
const (
	// RegistryPollInterval is the delay between registry readiness checks.
	RegistryPollInterval = 2 * time.Second

	// RegistryReadyTimeout bounds the wait for the registry deployment to
	// report an available replica after it is applied.
	RegistryReadyTimeout = 2 * time.Minute
)

// Garbage collection timeouts for teardown convergence.
const (
	// DeletePollInterval is the delay between checks that deleted
	// Configurations are actually gone.
	DeletePollInterval = 2 * time.Second

	// DeleteWaitTimeout bounds the wait for Configuration deletion.
	// Exceeding it is fatal: revisions cannot be pruned safely while the
	// parent package may still exist.
	DeleteWaitTimeout = 2 * time.Minute

	// LockPollInterval is the delay between package lock reads while
	// waiting for the lock to converge after a deletion.
	LockPollInterval = 2 * time.Second

	// LockConvergeTimeout bounds the wait for deleted packages to drop out
	// of the lock. Exceeding it degrades to a warning; pruning continues
	// with the snapshot taken at that point.
	LockConvergeTimeout = 90 * time.Second
)
