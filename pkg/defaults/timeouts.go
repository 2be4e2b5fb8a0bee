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

package defaults

import "time"

// Probe timeouts for pre-flight checks.
const (
	// SocketProbeTimeout bounds a single TCP connect used by port and SMTP probes.
	SocketProbeTimeout = 5 * time.Second

	// InternetProbeTimeout bounds the HTTP HEAD request used by the internet check.
	InternetProbeTimeout = 10 * time.Second

	// SMTPTimeout bounds the whole SMTP validation conversation.
	SMTPTimeout = 30 * time.Second

	// DNSProbeTimeout bounds the A record lookup used by the DNS check.
	DNSProbeTimeout = 10 * time.Second

	// CommandProbeTimeout bounds short helper commands (snap, sestatus).
	CommandProbeTimeout = 30 * time.Second
)

// Helm timeouts and retry policy.
const (
	// HelmTimeout is the default --timeout passed to helm upgrade --install.
	HelmTimeout = 30 * time.Minute

	// HelmHistoryMax is the default --history-max for platform releases.
	HelmHistoryMax = 3

	// HelmIstiodHistoryMax is raised so rolling retries do not overflow history.
	HelmIstiodHistoryMax = 10

	// HelmRetryAttempts is the default number of upsert attempts on transient failures.
	HelmRetryAttempts = 3

	// HelmIstiodRetryAttempts is the number of upsert attempts for istiod.
	HelmIstiodRetryAttempts = 5

	// HelmRetryWait is the fixed backoff between upsert attempts.
	HelmRetryWait = 10 * time.Second

	// HelmPullTimeout bounds helm pull in lightweight mode.
	HelmPullTimeout = 5 * time.Minute
)

// Kubernetes timeouts for K8s API operations.
const (
	// K8sRequestTimeout bounds a single Kubernetes API call.
	K8sRequestTimeout = 30 * time.Second

	// EndpointWaitFixed is the polling interval while waiting for endpoint addresses.
	EndpointWaitFixed = 5 * time.Second

	// EndpointWaitTimeout caps the total wait for endpoint addresses.
	EndpointWaitTimeout = 10 * time.Minute

	// NamespaceDeleteTimeout bounds waiting for a namespace to disappear on uninstall.
	NamespaceDeleteTimeout = 10 * time.Minute
)

// Filesystem and container runtime timeouts.
const (
	// ExtractRegistryTimeout bounds unpacking the registry archive.
	ExtractRegistryTimeout = 30 * time.Minute

	// ImageImportTimeout bounds a single ctr images import.
	ImageImportTimeout = 15 * time.Minute
)
