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

package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	discoveryv1 "k8s.io/api/discovery/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// EndpointAddresses counts the ready addresses behind a service.
func (c *Client) EndpointAddresses(ctx context.Context, namespace, service string) (int, error) {
	slices, err := c.cs.DiscoveryV1().EndpointSlices(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: discoveryv1.LabelServiceName + "=" + service,
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, s := range slices.Items {
		for _, ep := range s.Endpoints {
			if ep.Conditions.Ready != nil && !*ep.Conditions.Ready {
				continue
			}
			count += len(ep.Addresses)
		}
	}
	return count, nil
}

// WaitForEndpoints polls every interval until the service has at least one
// ready address or timeout expires.
func (c *Client) WaitForEndpoints(ctx context.Context, namespace, service string, interval, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	var lastErr error
	for {
		if err := limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return fmt.Errorf("endpoints of %s/%s not ready after %s: %w", namespace, service, timeout, lastErr)
			}
			return fmt.Errorf("endpoints of %s/%s not ready after %s: %w", namespace, service, timeout, err)
		}

		n, err := c.EndpointAddresses(ctx, namespace, service)
		if err != nil {
			lastErr = err
			slog.Debug("endpoint lookup failed", "namespace", namespace, "service", service, "error", err)
			continue
		}
		if n > 0 {
			return nil
		}
		slog.Debug("waiting for endpoints", "namespace", namespace, "service", service)
	}
}
