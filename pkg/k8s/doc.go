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

// Package k8s groups the installer's Kubernetes integration.
//
// # Sub-packages
//
// client: process-wide kubeconfig handler for the k3s cluster
//
//	h, err := client.ConfigHandler("")  // k3s default kubeconfig
//	cs := h.Clientset()
//
// The handler is created once per kubeconfig path; Reload swaps it after k3s
// rewrites its kubeconfig.
//
// cluster: typed operations the install steps need, built on a clientset
//
//	c := cluster.New(cs)
//	created, err := c.UpsertNamespace(ctx, cluster.NamespaceSpec{Name: "impt"})
//	err = c.WaitForEndpoints(ctx, "cert-manager", "cert-manager-webhook", interval, timeout)
//
// Both packages accept kubernetes.Interface so tests run against
// k8s.io/client-go/kubernetes/fake.
package k8s
