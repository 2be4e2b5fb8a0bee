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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/impt-platform/installer/pkg/command"
	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
	cerrors "github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/platform"
	"github.com/impt-platform/installer/pkg/storage"
	"github.com/impt-platform/installer/pkg/ux"
)

const testBuild = "1.2.0-rc1-20220630112805"

type readyEndpoints struct{}

func (readyEndpoints) WaitForEndpoints(context.Context, string, string, time.Duration, time.Duration) error {
	return nil
}

func newTestEnv(t *testing.T, objects ...runtime.Object) (*Env, *command.FakeRunner, *fake.Clientset) {
	t.Helper()
	runner := command.NewFakeRunner()
	cs := fake.NewClientset(objects...)
	values := config.Values{
		Kind:           config.KindInstall,
		InstallRoot:    t.TempDir(),
		BundleDir:      t.TempDir(),
		DataFolder:     t.TempDir(),
		ImageRegistry:  "registry.local:5000",
		ProductVersion: "1.2.0",
		ProductBuild:   testBuild,
		Domain:         "impt.local",
		AdminEmail:     "admin@impt.local",
	}
	flags := platform.Flags{platform.FlagPinImages: true}
	e := NewEnv(values, flags, runner, func() (kubernetes.Interface, error) { return cs, nil })
	e.RetryWait = 0
	e.Helm.Endpoints = readyEndpoints{}
	e.K3sMarkerPath = filepath.Join(t.TempDir(), "impt_k3s")
	e.Values.Kubeconfig = filepath.Join(t.TempDir(), "k3s.yaml")
	return e, runner, cs
}

func caSecret() *corev1.Secret {
	return &corev1.Secret{ObjectMeta: metav1.ObjectMeta{Name: CASecret, Namespace: NamespaceCertManager}}
}

func countActions(cs *fake.Clientset, verb, resource string) int {
	n := 0
	for _, a := range cs.Actions() {
		if a.GetVerb() == verb && a.GetResource().Resource == resource {
			n++
		}
	}
	return n
}

func TestDeployInitialManifests_PatchesExistingNamespaces(t *testing.T) {
	var objects []runtime.Object
	for _, name := range []string{"impt", "opa-istio", "istio-system", "cert-manager", "flyte", "impt-jobs-production"} {
		objects = append(objects, &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{"env": "production"},
		}})
	}
	e, _, cs := newTestEnv(t, objects...)

	require.NoError(t, DeployInitialManifests().Run(context.Background(), e))

	assert.Equal(t, 6, countActions(cs, "patch", "namespaces"))
	assert.Equal(t, 0, countActions(cs, "create", "namespaces"))

	ns, err := cs.CoreV1().Namespaces().Get(context.Background(), "impt", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "production", ns.Labels["env"])
	assert.Equal(t, "enabled", ns.Labels[LabelIstioInjection])
	assert.Equal(t, testBuild, ns.Annotations[AnnotationProduct])
}

func TestDeployInitialManifests_Ambient(t *testing.T) {
	e, _, cs := newTestEnv(t)
	e.Flags[platform.FlagAmbientMesh] = true

	require.NoError(t, DeployInitialManifests().Run(context.Background(), e))
	assert.Equal(t, 7, countActions(cs, "create", "namespaces"))

	for _, spec := range RequiredNamespaces(e) {
		ns, err := cs.CoreV1().Namespaces().Get(context.Background(), spec.Name, metav1.GetOptions{})
		require.NoError(t, err, spec.Name)
		for k, v := range spec.Labels {
			assert.Equal(t, v, ns.Labels[k], "%s label %s", spec.Name, k)
		}
		sa, err := cs.CoreV1().ServiceAccounts(spec.Name).Get(context.Background(), "default", metav1.GetOptions{})
		require.NoError(t, err, spec.Name)
		require.NotNil(t, sa.AutomountServiceAccountToken)
		assert.False(t, *sa.AutomountServiceAccountToken)
	}

	ingress, err := cs.CoreV1().Namespaces().Get(context.Background(), NamespaceIstioIngress, metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "ambient", ingress.Labels[LabelDataplaneMode])
}

func TestPinnedRefs(t *testing.T) {
	tests := []struct {
		name     string
		tarballs []string
		want     []string
		wantErr  bool
	}{
		{"none selected", []string{"postgres_16.2.tar", "istiod-1.22.0.tar"}, nil, false},
		{"registry semver", []string{"registry_2.8.3.tar"}, []string{"docker.io/library/registry:2.8.3"}, false},
		{"registry four part", []string{"opa.tar", "registry-2.8.3.1.tar"}, []string{"docker.io/library/registry:2.8.3.1"}, false},
		{"unversioned fails", []string{"registry_2.8.3.tar", "registry_latest.tar"}, nil, true},
		{"order independent", []string{"registry_latest.tar", "registry_2.8.3.tar"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PinnedRefs(tt.tarballs)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, cerrors.IsCode(err, cerrors.ErrCodePinImageVersion))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadImages(t *testing.T) {
	e, runner, _ := newTestEnv(t)
	dir := filepath.Join(e.Values.BundleDir, defaults.ImagesDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, name := range []string{"registry_2.8.3.tar", "opa_0.65.0.tar", "README"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	require.NoError(t, LoadImages().Run(context.Background(), e))

	assert.Equal(t, []string{
		"k3s ctr images import " + filepath.Join(dir, "opa_0.65.0.tar"),
		"k3s ctr images import " + filepath.Join(dir, "registry_2.8.3.tar"),
		"k3s ctr images label docker.io/library/registry:2.8.3 io.cri-containerd.pinned=pinned",
	}, runner.Lines())
}

func TestLoadImages_ImportFailure(t *testing.T) {
	e, runner, _ := newTestEnv(t)
	dir := filepath.Join(e.Values.BundleDir, defaults.ImagesDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "registry_2.8.3.tar"), nil, 0o644))
	runner.On("k3s ctr images import", command.Fail("k3s", "ctr: content digest not found"))

	err := LoadImages().Run(context.Background(), e)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeLoadImages))
	assert.Empty(t, runner.CallsWithPrefix("k3s ctr images label"))
}

func TestCopyCharts(t *testing.T) {
	e, _, _ := newTestEnv(t)
	src := filepath.Join(e.Values.BundleDir, defaults.ChartsDirName, ChartOPA)
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "Chart.yaml"), []byte("name: opa\n"), 0o644))

	// twice: the second copy replaces the first
	for range 2 {
		require.NoError(t, CopyCharts().Run(context.Background(), e))
	}
	data, err := os.ReadFile(filepath.Join(e.Values.InstallRoot, defaults.ChartsDirName, ChartOPA, "Chart.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "name: opa\n", string(data))
}

func TestExtractRegistryData(t *testing.T) {
	e, runner, _ := newTestEnv(t)
	require.NoError(t, ExtractRegistryData().Run(context.Background(), e))
	assert.Equal(t, []string{
		"tar -xf " + filepath.Join(e.Values.BundleDir, "registry.tar") + " -C " + filepath.Join(e.Values.DataFolder, "registry"),
	}, runner.Lines())

	runner.On("tar", command.Fail("tar", "tar: registry.tar: Cannot open"))
	err := ExtractRegistryData().Run(context.Background(), e)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeExtractRegistryData))
}

func TestTemplatesRenderForEveryChart(t *testing.T) {
	for _, ambient := range []bool{false, true} {
		e, _, _ := newTestEnv(t)
		e.Flags[platform.FlagAmbientMesh] = ambient
		for _, c := range Charts {
			spec := c.Spec(e)
			require.NoError(t, e.Helm.RenderValues(spec, TemplateData(e)), c.Name)
			data, err := os.ReadFile(spec.ValuesPath)
			require.NoError(t, err)
			assert.NotEmpty(t, data, c.Name)
		}
	}
}

func TestChartSpec(t *testing.T) {
	e, _, _ := newTestEnv(t)
	e.Flags[platform.FlagAmbientMesh] = true

	var istiod, crds Chart
	for _, c := range Charts {
		switch c.Name {
		case ChartIstiod:
			istiod = c
		case ChartCRDs:
			crds = c
		}
	}

	spec := istiod.Spec(e)
	assert.Equal(t, defaults.HelmIstiodHistoryMax, spec.HistoryMax)
	assert.Equal(t, defaults.HelmIstiodRetryAttempts, spec.Retry.Attempts)
	assert.Equal(t, map[string]string{"profile": "ambient"}, spec.Set)
	assert.Equal(t, filepath.Join(e.Values.InstallRoot, "istiod.values.yaml"), spec.ValuesPath)
	assert.Empty(t, spec.Repository)

	crdSpec := crds.Spec(e)
	assert.True(t, crdSpec.Retry.Retryable(cerrors.New(cerrors.ErrCodeChartInstallation, "any")))
}

func TestInstall_LightweightPullsRemoteCharts(t *testing.T) {
	e, runner, _ := newTestEnv(t, caSecret())
	e.Values.LightweightInstaller = true
	e.Values.InternetAccess = true
	e.Values.ExternalRegistry = "https://ghcr.io/impt/"
	require.NoError(t, os.WriteFile(e.K3sMarkerPath, nil, 0o600))

	var out bytes.Buffer
	seq := &Sequence{Name: "install", Steps: InstallSteps(), Console: ux.NewConsole(&out)}
	require.NoError(t, seq.Run(context.Background(), e))

	states := map[string]State{}
	for _, rec := range seq.Records() {
		states[rec.Name] = rec.State
	}
	for _, name := range []string{"install-k3s", "copy-charts", "extract-registry-data", "load-images"} {
		assert.Equal(t, Skipped, states[name], name)
	}

	pulls := runner.CallsWithPrefix("helm pull")
	require.Len(t, pulls, len(Charts))
	for _, call := range pulls {
		line := call.String()
		assert.True(t, strings.HasPrefix(line, "helm pull oci://ghcr.io/impt/charts/"), line)
		assert.Contains(t, line, "--version "+testBuild)
	}
	upserts := runner.CallsWithPrefix("helm upgrade --install")
	require.Len(t, upserts, len(Charts))
	for _, call := range upserts {
		assert.Contains(t, call.String(), "--version "+testBuild)
	}
}

func TestDeployCertManager_RequiresCASecret(t *testing.T) {
	e, _, _ := newTestEnv(t)
	var certManager Chart
	for _, c := range Charts {
		if c.Name == ChartCertManager {
			certManager = c
		}
	}

	err := DeployChart(certManager).Run(context.Background(), e)
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeGetSecret))
}

type fakeBuckets struct {
	created []string
	rules   []string
}

func (f *fakeBuckets) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, *in.Bucket)
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeBuckets) PutBucketLifecycleConfiguration(_ context.Context, in *s3.PutBucketLifecycleConfigurationInput, _ ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error) {
	f.rules = append(f.rules, *in.LifecycleConfiguration.Rules[0].ID)
	return &s3.PutBucketLifecycleConfigurationOutput{}, nil
}

func TestConfigureRetention(t *testing.T) {
	node := &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{
			Name:   "node-1",
			Labels: map[string]string{"node-role.kubernetes.io/control-plane": "true"},
		},
		Status: corev1.NodeStatus{Addresses: []corev1.NodeAddress{{Type: corev1.NodeInternalIP, Address: "10.0.0.5"}}},
	}
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: storage.CredentialsSecret, Namespace: defaults.PlatformNamespace},
		Data: map[string][]byte{
			storage.AccessKeyField: []byte("ak"),
			storage.SecretKeyField: []byte("sk"),
		},
	}

	t.Run("applies bucket rules", func(t *testing.T) {
		e, _, _ := newTestEnv(t, node, secret)
		e.Flags[platform.FlagSeaweedFSTTL] = true
		api := &fakeBuckets{}
		var endpoint string
		e.Buckets = func(_ context.Context, ep string, creds storage.Credentials) (storage.BucketAPI, error) {
			endpoint = ep
			assert.Equal(t, storage.Credentials{AccessKey: "ak", SecretKey: "sk"}, creds)
			return api, nil
		}

		require.NoError(t, configureRetention(context.Background(), e))
		assert.Equal(t, "http://10.0.0.5:30333", endpoint)
		assert.Equal(t, []string{"models", "datasets-tmp", "logs"}, api.created)
		assert.Equal(t, []string{"ttl-models", "ttl-datasets-tmp", "ttl-logs"}, api.rules)
	})

	t.Run("disabled flag does nothing", func(t *testing.T) {
		e, _, cs := newTestEnv(t)
		require.NoError(t, configureRetention(context.Background(), e))
		assert.Empty(t, cs.Actions())
	})

	t.Run("missing secret fails", func(t *testing.T) {
		e, _, _ := newTestEnv(t, node)
		e.Flags[platform.FlagSeaweedFSTTL] = true
		err := configureRetention(context.Background(), e)
		assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeGetSecret))
	})
}

func TestRecordVersion(t *testing.T) {
	e, _, cs := newTestEnv(t)
	require.NoError(t, RecordVersion().Run(context.Background(), e))

	assert.Equal(t, "1.2.0", platform.CurrentPlatformVersion(context.Background(), cs, defaults.PlatformNamespace))
	assert.Equal(t, testBuild, platform.CurrentProductBuild(context.Background(), cs, defaults.PlatformNamespace))
}

func TestUninstallSteps(t *testing.T) {
	e, runner, cs := newTestEnv(t, &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "impt"}})
	e.Values.Kind = config.KindUninstall
	e.Values.DeleteData = true
	runner.On("helm uninstall opa", command.Fail("helm", "Error: uninstall: Release not loaded: opa: release: not found"))

	seq := &Sequence{Name: "uninstall", Steps: UninstallSteps(), Console: ux.NewConsole(&bytes.Buffer{})}
	require.NoError(t, seq.Run(context.Background(), e))

	uninstalls := runner.CallsWithPrefix("helm uninstall")
	require.Len(t, uninstalls, len(Charts))
	assert.Equal(t, "helm uninstall "+ChartPersistentVolumes+" --namespace impt --wait", uninstalls[0].String())

	_, err := cs.CoreV1().Namespaces().Get(context.Background(), "impt", metav1.GetOptions{})
	assert.Error(t, err)
	_, err = os.Stat(e.Values.DataFolder)
	assert.True(t, os.IsNotExist(err))

	last := seq.Records()[len(seq.Records())-2]
	assert.Equal(t, "uninstall-k3s", last.Name)
	assert.Equal(t, Skipped, last.State, "k3s not installed by the installer is kept")
}

func TestStepsFor(t *testing.T) {
	for _, kind := range []config.Kind{config.KindInstall, config.KindUpgrade, config.KindUninstall} {
		steps, err := StepsFor(kind)
		require.NoError(t, err)
		assert.NotEmpty(t, steps)
	}
	_, err := StepsFor("reinstall")
	assert.Error(t, err)
}
