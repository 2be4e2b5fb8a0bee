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

package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/impt-platform/installer/pkg/checks"
	"github.com/impt-platform/installer/pkg/command"
	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/platform"
	"github.com/impt-platform/installer/pkg/steps"
)

const (
	firstBuild  = "1.2.0-rc1-20220630112805"
	secondBuild = "1.3.0-rc1-20230105093000"
	noRetention = platform.FlagSeaweedFSTTL + "=false"
)

func swap[T any](t *testing.T, p *T, v T) {
	t.Helper()
	orig := *p
	*p = v
	t.Cleanup(func() { *p = orig })
}

type readyEndpoints struct{}

func (readyEndpoints) WaitForEndpoints(context.Context, string, string, time.Duration, time.Duration) error {
	return nil
}

type staticResolver struct{}

func (staticResolver) LookupIP(context.Context, string, string) ([]net.IP, error) {
	return []net.IP{net.IPv4(192, 0, 2, 1)}, nil
}

type activeUnits struct{}

func (activeUnits) ActiveState(context.Context, string) (string, error) { return "active", nil }

// node is a single host with every system dependency replaced: commands go
// to a FakeRunner and the cluster is a fake clientset.
type node struct {
	t          *testing.T
	runner     *command.FakeRunner
	cs         *fake.Clientset
	bundle     string
	root       string
	data       string
	marker     string
	kubeconfig string
	logFile    string
}

func newNode(t *testing.T) *node {
	t.Helper()
	dir := t.TempDir()
	n := &node{
		t:      t,
		runner: command.NewFakeRunner(),
		cs: fake.NewClientset(&corev1.Secret{
			ObjectMeta: metav1.ObjectMeta{Name: steps.CASecret, Namespace: steps.NamespaceCertManager},
		}),
		bundle:     t.TempDir(),
		root:       filepath.Join(dir, "impt"),
		data:       t.TempDir(),
		marker:     filepath.Join(dir, "impt_k3s"),
		kubeconfig: filepath.Join(dir, "k3s.yaml"),
		logFile:    filepath.Join(dir, "install.log"),
	}
	n.writeManifest("1.2.0", firstBuild)

	internet := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	t.Cleanup(internet.Close)

	swap(t, &newRunner, func() command.Runner { return n.runner })
	swap(t, &kubeClient, func(string) (kubernetes.Interface, error) { return n.cs, nil })
	swap(t, &isTerminal, func() bool { return false })
	swap(t, &getenv, func(string) string { return "" })
	swap(t, &installRoot, n.root)
	swap(t, &newCheckEnv, func(cfg *config.OperationConfig, r command.Runner) *checks.Environment {
		e := checks.NewEnvironment(cfg, r)
		e.Getuid = func() int { return 0 }
		e.Getenv = func(k string) string {
			if k == checks.EnvCheckOS {
				return "false"
			}
			return ""
		}
		e.LookPath = func(string) (string, error) { return "/usr/bin/curl", nil }
		e.Lookup = staticResolver{}
		e.Units = activeUnits{}
		e.PortList = nil
		e.InternetURL = internet.URL
		e.K3sMarkerPath = n.marker
		e.KubeconfigPath = n.kubeconfig
		return e
	})
	swap(t, &newStepEnv, func(v config.Values, f platform.Flags, r command.Runner, kube steps.KubeFunc) *steps.Env {
		e := steps.NewEnv(v, f, r, kube)
		e.RetryWait = 0
		e.Helm.Endpoints = readyEndpoints{}
		e.K3sMarkerPath = n.marker
		e.Values.Kubeconfig = n.kubeconfig
		return e
	})
	return n
}

func (n *node) writeManifest(version, build string) {
	n.t.Helper()
	manifest := fmt.Sprintf("product_version: %s\nproduct_build: %s\n", version, build)
	require.NoError(n.t, os.WriteFile(filepath.Join(n.bundle, "version.yaml"), []byte(manifest), 0o644))
}

// startK3s leaves the kubeconfig k3s writes once it is running.
func (n *node) startK3s() {
	n.t.Helper()
	require.NoError(n.t, os.WriteFile(n.kubeconfig, []byte("apiVersion: v1\n"), 0o600))
}

func (n *node) run(args ...string) (int, string, string) {
	n.t.Helper()
	return runCLI(n.t, append([]string{"--log-file", n.logFile}, args...)...)
}

func (n *node) install() (int, string, string) {
	n.t.Helper()
	cfg := filepath.Join(n.t.TempDir(), "install.yaml")
	doc := fmt.Sprintf(`data_folder: %s
admin_email: admin@impt.local
admin_password: Qwerty12345%%
image_registry: registry.local:5000
external_registry: ghcr.io/impt
lightweight_installer: true
`, n.data)
	require.NoError(n.t, os.WriteFile(cfg, []byte(doc), 0o600))
	return n.run("install", "--config", cfg, "--bundle-dir", n.bundle, "--feature-flag", noRetention)
}

func (n *node) upgrade() (int, string, string) {
	n.t.Helper()
	return n.run("upgrade", "--bundle-dir", n.bundle, "--lightweight",
		"--image-registry", "registry.local:5000", "--external-registry", "ghcr.io/impt",
		"--feature-flag", noRetention)
}

func (n *node) installedBuild() string {
	return platform.CurrentProductBuild(context.Background(), n.cs, defaults.PlatformNamespace)
}

func (n *node) countActions(verb, resource string) int {
	count := 0
	for _, a := range n.cs.Actions() {
		if a.GetVerb() == verb && a.GetResource().Resource == resource {
			count++
		}
	}
	return count
}

func TestInstallLightweight(t *testing.T) {
	n := newNode(t)

	code, stdout, stderr := n.install()
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, fmt.Sprintf(MsgInstallDone, "1.2.0"))
	assert.Equal(t, firstBuild, n.installedBuild())

	assert.Len(t, n.runner.CallsWithPrefix("sh -c"), 1, "k3s is installed once")
	assert.FileExists(t, n.marker)
	assert.Len(t, n.runner.CallsWithPrefix("helm pull oci://ghcr.io/impt/charts/"), len(steps.Charts))
	assert.Len(t, n.runner.CallsWithPrefix("helm upgrade --install"), len(steps.Charts))

	got, err := config.DumpedValue(filepath.Join(n.root, defaults.ConfigDumpName), config.FieldDataFolder)
	require.NoError(t, err)
	assert.Equal(t, n.data, got)
	assert.FileExists(t, filepath.Join(n.root, defaults.MetricsFileName))
}

func TestInstallTwiceReusesNamespaces(t *testing.T) {
	n := newNode(t)
	code, _, stderr := n.install()
	require.Equal(t, ExitOK, code, stderr)
	require.Positive(t, n.countActions("create", "namespaces"))
	n.startK3s()

	n.cs.ClearActions()
	code, _, stderr = n.install()
	require.Equal(t, ExitOK, code, stderr)
	assert.Zero(t, n.countActions("create", "namespaces"))
	assert.Positive(t, n.countActions("patch", "namespaces"))
	assert.Len(t, n.runner.CallsWithPrefix("sh -c"), 1, "k3s already present is not reinstalled")
}

func TestUpgradeAfterInstall(t *testing.T) {
	n := newNode(t)
	code, _, stderr := n.install()
	require.Equal(t, ExitOK, code, stderr)
	n.startK3s()

	t.Run("same build does nothing", func(t *testing.T) {
		before := len(n.runner.CallsWithPrefix("helm"))
		code, stdout, stderr := n.upgrade()
		require.Equal(t, ExitOK, code, stderr)
		assert.Contains(t, stdout, fmt.Sprintf(MsgUpToDate, "1.2.0"))
		assert.Len(t, n.runner.CallsWithPrefix("helm"), before)
	})

	t.Run("newer build redeploys", func(t *testing.T) {
		n.writeManifest("1.3.0", secondBuild)
		before := len(n.runner.CallsWithPrefix("helm upgrade --install"))
		code, stdout, stderr := n.upgrade()
		require.Equal(t, ExitOK, code, stderr)
		assert.Contains(t, stdout, fmt.Sprintf(MsgUpgradeDone, "1.2.0", "1.3.0"))
		assert.Len(t, n.runner.CallsWithPrefix("helm upgrade --install"), before+len(steps.Charts))
		assert.Len(t, n.runner.CallsWithPrefix("sh -c"), 1, "upgrade leaves k3s alone")
		assert.Equal(t, secondBuild, n.installedBuild())
	})

	t.Run("older build is refused", func(t *testing.T) {
		n.writeManifest("1.2.0", firstBuild)
		code, _, stderr := n.upgrade()
		assert.Equal(t, ExitFailure, code)
		assert.Contains(t, stderr, "downgrades are not supported")
		assert.Equal(t, secondBuild, n.installedBuild())
	})
}

func TestUninstallAfterInstall(t *testing.T) {
	n := newNode(t)
	code, _, stderr := n.install()
	require.Equal(t, ExitOK, code, stderr)
	n.startK3s()
	require.NoError(t, os.WriteFile(filepath.Join(n.data, "blob"), []byte("x"), 0o600))

	code, stdout, stderr := n.run("uninstall", "--bundle-dir", n.bundle, "--delete-data")
	require.Equal(t, ExitOK, code, stderr)
	assert.Contains(t, stdout, MsgUninstallDone)

	uninstalls := n.runner.CallsWithPrefix("helm uninstall")
	require.Len(t, uninstalls, len(steps.Charts))
	last := steps.Charts[len(steps.Charts)-1]
	assert.True(t, strings.HasPrefix(uninstalls[0].String(), "helm uninstall "+last.Name+" "), uninstalls[0].String())
	assert.Len(t, n.runner.CallsWithPrefix(defaults.K3sUninstallScript), 1)

	_, err := n.cs.CoreV1().Namespaces().Get(context.Background(), defaults.PlatformNamespace, metav1.GetOptions{})
	assert.Error(t, err)
	assert.NoDirExists(t, n.data, "data folder recorded at install time is removed")
	assert.NoDirExists(t, n.root)
}

func TestUninstallDeleteDataNeedsFolder(t *testing.T) {
	n := newNode(t)
	require.NoError(t, os.WriteFile(n.marker, nil, 0o600))
	n.startK3s()

	code, _, stderr := n.run("uninstall", "--bundle-dir", n.bundle, "--delete-data")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "--delete-data needs --data-folder")
	assert.Empty(t, n.runner.CallsWithPrefix("helm uninstall"), "nothing is removed")
}

func TestUpgradeTakesDataFolderFromInstallation(t *testing.T) {
	n := newNode(t)
	code, _, stderr := n.install()
	require.Equal(t, ExitOK, code, stderr)
	n.startK3s()
	n.writeManifest("1.3.0", secondBuild)

	code, _, stderr = n.upgrade()
	require.Equal(t, ExitOK, code, stderr)

	data, err := os.ReadFile(n.logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "data folder taken from installation")
}

func TestFailedRunLogsStack(t *testing.T) {
	n := newNode(t)
	require.NoError(t, os.Remove(filepath.Join(n.bundle, "version.yaml")))
	cfg := filepath.Join(t.TempDir(), "install.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("{}\n"), 0o600))

	code, _, stderr := n.run("install", "--config", cfg, "--bundle-dir", n.bundle)
	require.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "failed to read version manifest")
	assert.Contains(t, stderr, fmt.Sprintf(MsgSeeLog, n.logFile))

	data, err := os.ReadFile(n.logFile)
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, `"msg":"run failed"`)
	assert.Contains(t, log, "platform.LoadVersionInfo", "stack frames are logged")
	assert.Contains(t, log, "version.go:")
}
