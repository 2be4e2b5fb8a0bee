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

package client

import (
	"fmt"
	"log/slog"
	"sync"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/impt-platform/installer/pkg/defaults"
)

// Interface is an alias for kubernetes.Interface to allow easier mocking in tests.
type Interface = kubernetes.Interface

// Handler holds a loaded kubeconfig and the clientset built from it.
type Handler struct {
	path      string
	clientset Interface
	config    *rest.Config
}

// Path returns the kubeconfig path the handler was loaded from.
func (h *Handler) Path() string { return h.path }

// Clientset returns the Kubernetes client.
func (h *Handler) Clientset() Interface { return h.clientset }

// RESTConfig returns the rest configuration, nil for handlers built around
// an injected client.
func (h *Handler) RESTConfig() *rest.Config { return h.config }

var (
	mu      sync.Mutex
	current *Handler

	// load is replaced in tests.
	load = func(path string) (Interface, *rest.Config, error) {
		return BuildKubeClient(path)
	}
)

// ConfigHandler returns the process-wide handler, loading it from path on
// first use. Later calls with the same path return the same instance; a
// different path is rejected, use Reload to switch clusters.
func ConfigHandler(path string) (*Handler, error) {
	path = resolvePath(path)

	mu.Lock()
	defer mu.Unlock()

	if current != nil {
		if current.path != path {
			return nil, fmt.Errorf("kubeconfig already loaded from %s, reload to use %s", current.path, path)
		}
		return current, nil
	}

	h, err := newHandler(path)
	if err != nil {
		return nil, err
	}
	current = h
	return current, nil
}

// Reload loads path and atomically replaces the process-wide handler. The
// previous handler stays valid for callers still holding it.
func Reload(path string) (*Handler, error) {
	path = resolvePath(path)
	h, err := newHandler(path)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	current = h
	mu.Unlock()

	slog.Debug("kubeconfig reloaded", "path", path)
	return h, nil
}

// NewHandlerForClient wraps an existing client, e.g. a fake clientset.
func NewHandlerForClient(path string, cs Interface) *Handler {
	return &Handler{path: path, clientset: cs}
}

func newHandler(path string) (*Handler, error) {
	cs, cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("kubeconfig loaded", "path", path)
	return &Handler{path: path, clientset: cs, config: cfg}, nil
}

func resolvePath(path string) string {
	if path == "" {
		return defaults.K3sKubeconfigPath
	}
	return path
}

// BuildKubeClient creates a Kubernetes client from the given kubeconfig file,
// bypassing the process-wide handler.
func BuildKubeClient(kubeconfig string) (*kubernetes.Clientset, *rest.Config, error) {
	config, err := clientcmd.BuildConfigFromFlags("", resolvePath(kubeconfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
	}
	config.Timeout = defaults.K8sRequestTimeout

	client, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return client, config, nil
}
