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

// Package client holds the process-wide Kubernetes configuration handler.
//
// The first call to ConfigHandler loads the kubeconfig (by default the k3s
// one at /etc/rancher/k3s/k3s.yaml) and caches the resulting clientset.
// Later calls with the same path return the cached handler. Reload builds a
// new handler from another path and swaps it in atomically:
//
//	h, err := client.ConfigHandler(cfg.Kubeconfig)
//	if err != nil {
//	    return err
//	}
//	ns, err := h.Clientset().CoreV1().Namespaces().Get(ctx, "impt", metav1.GetOptions{})
//
// Steps receive the handler's clientset instead of reaching for the global,
// so tests inject k8s.io/client-go/kubernetes/fake through
// NewHandlerForClient.
package client
