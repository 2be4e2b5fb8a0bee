// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

// Package defaults provides centralized configuration constants for the installer.
//
// It defines probe and Helm timeouts, the retry policy for chart upserts,
// well-known file locations on the node, and Kubernetes object names shared by
// several steps. Centralizing these values keeps checks, steps and tests in
// agreement.
//
// # Timeout Categories
//
//   - Probe: socket, HTTP HEAD, DNS, SMTP and helper command bounds
//   - Helm: upsert timeout, history size, retry attempts and fixed wait
//   - Kubernetes: per-call bound and endpoint readiness polling
//   - Filesystem: registry extraction and image import
//
// # Usage
//
//	ctx, cancel := context.WithTimeout(ctx, defaults.InternetProbeTimeout)
//	defer cancel()
package defaults
