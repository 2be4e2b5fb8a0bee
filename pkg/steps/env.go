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

package steps

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"k8s.io/client-go/kubernetes"

	"github.com/impt-platform/installer/pkg/command"
	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/helm"
	"github.com/impt-platform/installer/pkg/k8s/cluster"
	"github.com/impt-platform/installer/pkg/platform"
	"github.com/impt-platform/installer/pkg/storage"
)

// KubeFunc returns the cluster clientset. It is called on first use so
// that steps running before k3s exists do not need a cluster.
type KubeFunc func() (kubernetes.Interface, error)

// BucketFunc builds an S3 client for the platform object store.
type BucketFunc func(ctx context.Context, endpoint string, creds storage.Credentials) (storage.BucketAPI, error)

// Env carries the frozen inputs shared by all steps of one run.
type Env struct {
	Values config.Values
	Flags  platform.Flags
	Runner command.Runner
	Helm   *helm.Driver
	// Buckets is used by the retention step.
	Buckets BucketFunc
	// RetryWait is the fixed wait between Helm attempts.
	RetryWait time.Duration
	// K3sMarkerPath and K3sUninstallScript locate the k3s ownership marker
	// and removal script.
	K3sMarkerPath      string
	K3sUninstallScript string

	kube KubeFunc

	mu      sync.Mutex
	cluster *cluster.Client
}

// NewEnv returns an Env whose Helm driver renders the embedded values
// templates and gates on endpoints of the lazily resolved cluster.
func NewEnv(values config.Values, flags platform.Flags, runner command.Runner, kube KubeFunc) *Env {
	e := &Env{
		Values:             values,
		Flags:              flags,
		Runner:             runner,
		RetryWait:          defaults.HelmRetryWait,
		K3sMarkerPath:      defaults.K3sMarkerPath,
		K3sUninstallScript: defaults.K3sUninstallScript,
		kube:               kube,
		Buckets: func(ctx context.Context, endpoint string, creds storage.Credentials) (storage.BucketAPI, error) {
			return storage.NewClient(ctx, endpoint, creds)
		},
	}
	e.Helm = helm.NewDriver(runner, lazyEndpoints{env: e}, Templates)
	return e
}

// Cluster returns the cluster client, resolving it on first call.
func (e *Env) Cluster() (*cluster.Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cluster != nil {
		return e.cluster, nil
	}
	cs, err := e.kube()
	if err != nil {
		return nil, err
	}
	e.cluster = cluster.New(cs)
	return e.cluster, nil
}

// Lightweight reports whether charts and images are fetched remotely.
func (e *Env) Lightweight() bool { return e.Values.LightweightInstaller }

func (e *Env) installRoot() string {
	if e.Values.InstallRoot != "" {
		return e.Values.InstallRoot
	}
	return defaults.InstallRoot
}

func (e *Env) bundlePath(elem ...string) string {
	return filepath.Join(append([]string{e.Values.BundleDir}, elem...)...)
}

func (e *Env) rootPath(elem ...string) string {
	return filepath.Join(append([]string{e.installRoot()}, elem...)...)
}

type lazyEndpoints struct {
	env *Env
}

func (l lazyEndpoints) WaitForEndpoints(ctx context.Context, namespace, service string, interval, timeout time.Duration) error {
	c, err := l.env.Cluster()
	if err != nil {
		return err
	}
	return c.WaitForEndpoints(ctx, namespace, service, interval, timeout)
}
