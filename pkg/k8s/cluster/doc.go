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

// Package cluster wraps the Kubernetes API calls made by installer steps:
// namespace upserts, default service account hardening, secret and configmap
// access, endpoint readiness and control-plane node lookup.
//
// Upstream API errors are returned unchanged so callers can decide whether
// to retry; only "not found" on secrets is mapped to a typed *NotFoundError.
package cluster
