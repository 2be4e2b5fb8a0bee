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
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impt-platform/installer/pkg/command"
	cerrors "github.com/impt-platform/installer/pkg/errors"
)

type fakeEndpoints struct {
	calls int
	err   error
	// runner records the helm calls seen when the gate was awaited
	runner   *command.FakeRunner
	seenHelm int
}

func (f *fakeEndpoints) WaitForEndpoints(context.Context, string, string, time.Duration, time.Duration) error {
	f.calls++
	if f.runner != nil {
		f.seenHelm = len(f.runner.Calls())
	}
	return f.err
}

var testTemplates = fstest.MapFS{
	"values/istiod.yaml.tmpl": {Data: []byte(`global:
  hub: {{ .registry }}/istio
  tag: {{ .build | quote }}
pilot:
  ambient: {{ .ambient }}
meshName: {{ .mesh | default "impt" | upper }}
`)},
	"values/broken.yaml.tmpl":  {Data: []byte(`{{ .registry `)},
	"values/missing.yaml.tmpl": {Data: []byte(`{{ .nope }}`)},
}

func testSpec(t *testing.T) ChartSpec {
	return ChartSpec{
		Name:           "istiod",
		Release:        "istiod",
		Namespace:      "istio-system",
		ChartDir:       filepath.Join(t.TempDir(), "charts", "istiod"),
		ValuesTemplate: "values/istiod.yaml.tmpl",
		ValuesPath:     filepath.Join(t.TempDir(), "istiod.values.yaml"),
		Retry:          RetryPolicy{Attempts: 3, Retryable: IsTransient},
	}
}

func TestRenderValues(t *testing.T) {
	d := NewDriver(command.NewFakeRunner(), nil, testTemplates)
	spec := testSpec(t)

	err := d.RenderValues(spec, map[string]any{
		"registry": "registry.local:5000",
		"build":    "1.2.0-rc1",
		"ambient":  true,
		"mesh":     "",
	})
	require.NoError(t, err)

	got, err := os.ReadFile(spec.ValuesPath)
	require.NoError(t, err)
	assert.Equal(t, `global:
  hub: registry.local:5000/istio
  tag: "1.2.0-rc1"
pilot:
  ambient: true
meshName: IMPT
`, string(got))
}

func TestRenderValuesErrors(t *testing.T) {
	tests := []struct {
		name     string
		template string
	}{
		{"template not found", "values/absent.yaml.tmpl"},
		{"parse error", "values/broken.yaml.tmpl"},
		{"missing key", "values/missing.yaml.tmpl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver(command.NewFakeRunner(), nil, testTemplates)
			spec := testSpec(t)
			spec.ValuesTemplate = tt.template

			err := d.RenderValues(spec, map[string]any{"registry": "r"})
			assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeGenerateTemplate), "got %v", err)
			_, statErr := os.Stat(spec.ValuesPath)
			assert.True(t, os.IsNotExist(statErr), "no values file must be written on failure")
		})
	}
}

func TestUpsertArgs(t *testing.T) {
	d := NewDriver(command.NewFakeRunner(), nil, testTemplates)
	spec := testSpec(t)
	spec.ChartDir = "/opt/impt/charts/istiod"
	spec.ValuesPath = "/opt/impt/istiod.values.yaml"
	spec.HistoryMax = 10
	spec.Version = "1.2.0-rc1"
	spec.Set = map[string]string{"profile": "ambient", "a": "b"}

	got := strings.Join(d.UpsertArgs(spec), " ")
	want := "upgrade --install istiod /opt/impt/charts/istiod --namespace istio-system --create-namespace --wait " +
		"--history-max 10 --timeout 30m0s --version 1.2.0-rc1 --values /opt/impt/istiod.values.yaml " +
		"--set a=b --set profile=ambient"
	assert.Equal(t, want, got)

	spec.HistoryMax = 0
	spec.Timeout = 5 * time.Minute
	got = strings.Join(d.UpsertArgs(spec), " ")
	assert.Contains(t, got, "--history-max 3")
	assert.Contains(t, got, "--timeout 5m0s")
}

func TestUpsertRetriesTransientFailures(t *testing.T) {
	runner := command.NewFakeRunner().On("helm upgrade",
		command.Fail("helm", "Error: timed out waiting for the condition"),
		command.Fail("helm", "Error: timed out waiting for the condition"),
		command.Ok("Release \"istiod\" has been upgraded."),
	)
	d := NewDriver(runner, nil, testTemplates)

	require.NoError(t, d.Upsert(context.Background(), testSpec(t)))
	assert.Len(t, runner.CallsWithPrefix("helm upgrade --install"), 3)
}

func TestUpsertPermanentFailure(t *testing.T) {
	runner := command.NewFakeRunner().On("helm upgrade",
		command.Fail("helm", "Error: INSTALLATION FAILED: chart requires kubeVersion >= 1.30"))
	d := NewDriver(runner, nil, testTemplates)

	err := d.Upsert(context.Background(), testSpec(t))
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeChartInstallation))
	assert.Len(t, runner.Calls(), 1, "permanent failures are not retried")
}

func TestUpsertGivesUpAfterAttempts(t *testing.T) {
	runner := command.NewFakeRunner().On("helm upgrade",
		command.Fail("helm", "Error: client rate limiter Wait returned an error: rate limit exceeded"))
	d := NewDriver(runner, nil, testTemplates)
	spec := testSpec(t)
	spec.Retry.Attempts = 5

	err := d.Upsert(context.Background(), spec)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeChartInstallation))
	assert.Contains(t, command.Stderr(err), "rate limit")
	assert.Len(t, runner.Calls(), 5)
}

func TestUpsertWaitsForGateBeforeHelm(t *testing.T) {
	runner := command.NewFakeRunner()
	gate := &fakeEndpoints{runner: runner}
	d := NewDriver(runner, gate, testTemplates)
	spec := testSpec(t)
	spec.Gate = &EndpointGate{Namespace: "cert-manager", Service: "cert-manager-webhook"}

	require.NoError(t, d.Upsert(context.Background(), spec))
	assert.Equal(t, 1, gate.calls)
	assert.Equal(t, 0, gate.seenHelm, "helm must not run before the gate opens")
	assert.Len(t, runner.Calls(), 1)

	gate.err = errors.New("endpoints not ready")
	err := d.Upsert(context.Background(), spec)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeChartInstallation))
	assert.Len(t, runner.Calls(), 1, "helm must not run when the gate stays closed")
}

func TestPull(t *testing.T) {
	runner := command.NewFakeRunner()
	d := NewDriver(runner, nil, testTemplates)
	spec := testSpec(t)
	spec.Repository = "oci://ghcr.io/impt/charts/"
	spec.Version = "1.2.0-rc1"

	require.NoError(t, d.Pull(context.Background(), spec))
	calls := runner.Lines()
	require.Len(t, calls, 1)
	assert.Equal(t, "helm pull oci://ghcr.io/impt/charts/istiod --untar --untardir "+
		filepath.Dir(spec.ChartDir)+" --version 1.2.0-rc1", calls[0])

	runner.On("helm pull", command.Fail("helm", "Error: not found"))
	assert.True(t, cerrors.IsCode(d.Pull(context.Background(), spec), cerrors.ErrCodeChartPull))

	spec.Repository = ""
	assert.True(t, cerrors.IsCode(d.Pull(context.Background(), spec), cerrors.ErrCodeChartPull))
}

func TestUninstall(t *testing.T) {
	runner := command.NewFakeRunner().On("helm uninstall flyte",
		command.Fail("helm", "Error: uninstall: Release not loaded: flyte: release: not found"))
	d := NewDriver(runner, nil, testTemplates)

	assert.NoError(t, d.Uninstall(context.Background(), "flyte", "flyte"))
	assert.NoError(t, d.Uninstall(context.Background(), "opa", "opa-istio"))

	runner.On("helm uninstall seaweedfs", command.Fail("helm", "Error: cluster unreachable"))
	assert.Error(t, d.Uninstall(context.Background(), "seaweedfs", "impt"))
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(errors.New("Error: timed out waiting for the condition")))
	assert.True(t, IsTransient(command.Fail("helm", "Rate Limit exceeded").Err))
	assert.False(t, IsTransient(errors.New("permission denied")))
	assert.True(t, Always(errors.New("x")))
}
