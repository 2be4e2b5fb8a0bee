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
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/natefinch/atomic"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/retry"

	"github.com/impt-platform/installer/pkg/command"
	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
)

// EndpointWaiter blocks until a service has a ready endpoint.
type EndpointWaiter interface {
	WaitForEndpoints(ctx context.Context, namespace, service string, interval, timeout time.Duration) error
}

// Driver runs Helm for platform charts.
type Driver struct {
	Binary    string
	Runner    command.Runner
	Endpoints EndpointWaiter
	Templates fs.FS

	GateInterval time.Duration
	GateTimeout  time.Duration
}

// NewDriver returns a Driver using the helm binary from PATH.
func NewDriver(runner command.Runner, endpoints EndpointWaiter, templates fs.FS) *Driver {
	return &Driver{
		Binary:       "helm",
		Runner:       runner,
		Endpoints:    endpoints,
		Templates:    templates,
		GateInterval: defaults.EndpointWaitFixed,
		GateTimeout:  defaults.EndpointWaitTimeout,
	}
}

// RenderValues renders spec.ValuesTemplate with data and writes the result
// atomically to spec.ValuesPath. Missing keys are errors.
func (d *Driver) RenderValues(spec ChartSpec, data map[string]any) error {
	fail := func(err error) error {
		return errors.WrapWithContext(errors.ErrCodeGenerateTemplate,
			fmt.Sprintf("failed to generate values for %s", spec.Name), err,
			map[string]any{"template": spec.ValuesTemplate, "path": spec.ValuesPath})
	}

	content, err := fs.ReadFile(d.Templates, spec.ValuesTemplate)
	if err != nil {
		return fail(err)
	}
	tmpl, err := template.New(spec.ValuesTemplate).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return fail(err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fail(err)
	}
	if err := os.MkdirAll(filepath.Dir(spec.ValuesPath), 0o750); err != nil {
		return fail(err)
	}
	if err := atomic.WriteFile(spec.ValuesPath, &buf); err != nil {
		return fail(err)
	}

	slog.Debug("values rendered", "chart", spec.Name, "path", spec.ValuesPath, "size_bytes", buf.Len())
	return nil
}

// Pull fetches spec.Name at spec.Version from spec.Repository and unpacks it
// into spec.ChartDir, replacing any previous copy.
func (d *Driver) Pull(ctx context.Context, spec ChartSpec) error {
	fail := func(err error) error {
		return errors.WrapWithContext(errors.ErrCodeChartPull,
			fmt.Sprintf("failed to pull chart %s", spec.Name), err,
			map[string]any{"repository": spec.Repository, "version": spec.Version})
	}
	if spec.Repository == "" {
		return fail(fmt.Errorf("no repository configured"))
	}

	parent := filepath.Dir(spec.ChartDir)
	if err := os.MkdirAll(parent, 0o750); err != nil {
		return fail(err)
	}
	if err := os.RemoveAll(spec.ChartDir); err != nil {
		return fail(err)
	}

	ref := strings.TrimSuffix(spec.Repository, "/") + "/" + spec.Name
	args := []string{"pull", ref, "--untar", "--untardir", parent}
	if spec.Version != "" {
		args = append(args, "--version", spec.Version)
	}

	ctx, cancel := context.WithTimeout(ctx, defaults.HelmPullTimeout)
	defer cancel()
	if _, err := d.Runner.Run(ctx, d.Binary, args...); err != nil {
		return fail(err)
	}
	slog.Info("chart pulled", "chart", spec.Name, "version", spec.Version)
	return nil
}

// UpsertArgs returns the helm arguments used to upsert spec.
func (d *Driver) UpsertArgs(spec ChartSpec) []string {
	args := []string{
		"upgrade", "--install", spec.release(), spec.ChartDir,
		"--namespace", spec.Namespace,
		"--create-namespace",
		"--wait",
		"--history-max", strconv.Itoa(spec.historyMax()),
		"--timeout", spec.timeout().String(),
	}
	if spec.Version != "" {
		args = append(args, "--version", spec.Version)
	}
	if spec.ValuesPath != "" {
		args = append(args, "--values", spec.ValuesPath)
	}

	keys := make([]string, 0, len(spec.Set))
	for k := range spec.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--set", k+"="+spec.Set[k])
	}
	return args
}

// Upsert installs or upgrades the release for spec. The endpoint gate, if
// any, is awaited before the first invocation; failed invocations are
// retried per spec.Retry.
func (d *Driver) Upsert(ctx context.Context, spec ChartSpec) error {
	if spec.Gate != nil && d.Endpoints != nil {
		slog.Info("waiting for endpoints", "chart", spec.Name,
			"namespace", spec.Gate.Namespace, "service", spec.Gate.Service)
		if err := d.Endpoints.WaitForEndpoints(ctx, spec.Gate.Namespace, spec.Gate.Service,
			d.GateInterval, d.GateTimeout); err != nil {
			return errors.WrapWithContext(errors.ErrCodeChartInstallation,
				fmt.Sprintf("dependency of %s is not ready", spec.Name), err,
				map[string]any{"namespace": spec.Gate.Namespace, "service": spec.Gate.Service})
		}
	}

	policy := spec.Retry
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = func(error) bool { return false }
	}
	backoff := wait.Backoff{Steps: policy.Attempts, Duration: policy.Wait, Factor: 1}

	args := d.UpsertArgs(spec)
	attempt := 0
	err := retry.OnError(backoff, func(err error) bool {
		return ctx.Err() == nil && retryable(err)
	}, func() error {
		attempt++
		slog.Info("running helm upgrade", "chart", spec.Name, "release", spec.release(),
			"namespace", spec.Namespace, "attempt", attempt)
		_, err := d.Runner.Run(ctx, d.Binary, args...)
		if err != nil {
			slog.Warn("helm upgrade failed", "chart", spec.Name, "attempt", attempt, "error", err)
		}
		return err
	})
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeChartInstallation,
			fmt.Sprintf("failed to install chart %s", spec.Name), err,
			map[string]any{"release": spec.release(), "attempts": attempt})
	}
	slog.Info("chart deployed", "chart", spec.Name, "release", spec.release(), "attempts", attempt)
	return nil
}

// Uninstall removes a release. A missing release is not an error.
func (d *Driver) Uninstall(ctx context.Context, release, namespace string) error {
	_, err := d.Runner.Run(ctx, d.Binary, "uninstall", release, "--namespace", namespace, "--wait")
	if err != nil && strings.Contains(strings.ToLower(command.Stderr(err)), "not found") {
		slog.Debug("release not found", "release", release, "namespace", namespace)
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeChartInstallation, fmt.Sprintf("failed to uninstall %s", release), err)
	}
	return nil
}
