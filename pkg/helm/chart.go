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

package helm

import (
	"strings"
	"time"

	"github.com/impt-platform/installer/pkg/command"
	"github.com/impt-platform/installer/pkg/defaults"
)

// ChartSpec describes one platform chart.
type ChartSpec struct {
	// Name is the logical chart name and the chart directory name.
	Name string
	// Release is the Helm release name.
	Release string
	// Namespace is the release namespace, created when missing.
	Namespace string
	// ChartDir is the local chart directory passed to Helm.
	ChartDir string
	// Repository is the remote chart location used in lightweight mode,
	// e.g. oci://registry.example.com/charts.
	Repository string
	// Version pins the chart version; empty means the local chart as is.
	Version string
	// ValuesTemplate names the values template in the driver's template FS.
	ValuesTemplate string
	// ValuesPath is where the rendered values file is written.
	ValuesPath string
	// Set holds --set key=value overrides, applied in sorted key order.
	Set map[string]string
	// HistoryMax bounds the stored release revisions.
	HistoryMax int
	// Timeout bounds a single Helm invocation.
	Timeout time.Duration
	// Gate, when set, must have a ready endpoint before Helm runs.
	Gate *EndpointGate
	// Retry controls re-invocation on failure.
	Retry RetryPolicy
}

// EndpointGate names a service whose endpoints gate an upsert.
type EndpointGate struct {
	Namespace string
	Service   string
}

// RetryPolicy bounds re-invocations of a failed upsert.
type RetryPolicy struct {
	Attempts  int
	Wait      time.Duration
	Retryable func(error) bool
}

// DefaultRetry retries transient Helm failures.
func DefaultRetry() RetryPolicy {
	return RetryPolicy{
		Attempts:  defaults.HelmRetryAttempts,
		Wait:      defaults.HelmRetryWait,
		Retryable: IsTransient,
	}
}

var transientMessages = []string{
	"rate limit",
	"timed out waiting for the condition",
}

// IsTransient reports whether a Helm failure is worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(command.Stderr(err) + " " + err.Error())
	for _, m := range transientMessages {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// Always retries every failure.
func Always(err error) bool { return err != nil }

func (s ChartSpec) historyMax() int {
	if s.HistoryMax > 0 {
		return s.HistoryMax
	}
	return defaults.HelmHistoryMax
}

func (s ChartSpec) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaults.HelmTimeout
}

func (s ChartSpec) release() string {
	if s.Release != "" {
		return s.Release
	}
	return s.Name
}
