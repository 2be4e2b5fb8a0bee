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
	"fmt"
	"strings"
	"time"

	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/helm"
	"github.com/impt-platform/installer/pkg/platform"
)

// Chart names, also used as release and chart directory names.
const (
	ChartCRDs               = "impt-crds"
	ChartKubeletCSRApprover = "kubelet-csr-approver"
	ChartCertManager        = "cert-manager"
	ChartIstioCSR           = "cert-manager-istio-csr"
	ChartIstioBase          = "istio-base"
	ChartIstiod             = "istiod"
	ChartOPA                = "opa"
	ChartSeaweedFS          = "seaweedfs"
	ChartPersistentVolumes  = "persistent-volumes"
)

// Platform namespaces.
const (
	NamespaceCertManager  = "cert-manager"
	NamespaceIstioSystem  = "istio-system"
	NamespaceIstioIngress = "istio-ingress"
	NamespaceOPA          = "opa-istio"
	NamespaceFlyte        = "flyte"
	NamespaceJobs         = "impt-jobs-production"
	NamespaceKubeSystem   = "kube-system"
)

// CASecret is issued by cert-manager and consumed by istio-csr.
const CASecret = "ca-cert"

// Chart describes how one platform chart is deployed.
type Chart struct {
	Name      string
	Namespace string
	Gate      *helm.EndpointGate
	// HistoryMax and Attempts fall back to the Helm defaults when zero.
	HistoryMax int
	Attempts   int
	Timeout    time.Duration
	// RetryAll retries every failure, not only transient ones.
	RetryAll bool
	// Set computes --set overrides from the run's inputs.
	Set func(e *Env) map[string]string
	// After runs once the release is up, inside the same step.
	After func(ctx context.Context, e *Env) error
}

// Charts lists platform charts in install order.
var Charts = []Chart{
	{Name: ChartCRDs, Namespace: defaults.PlatformNamespace, RetryAll: true},
	{Name: ChartKubeletCSRApprover, Namespace: NamespaceKubeSystem},
	{Name: ChartCertManager, Namespace: NamespaceCertManager, After: requireCASecret},
	{
		Name:      ChartIstioCSR,
		Namespace: NamespaceCertManager,
		Gate:      &helm.EndpointGate{Namespace: NamespaceCertManager, Service: "cert-manager-webhook"},
	},
	{Name: ChartIstioBase, Namespace: NamespaceIstioSystem},
	{
		Name:       ChartIstiod,
		Namespace:  NamespaceIstioSystem,
		Gate:       &helm.EndpointGate{Namespace: NamespaceCertManager, Service: ChartIstioCSR},
		HistoryMax: defaults.HelmIstiodHistoryMax,
		Attempts:   defaults.HelmIstiodRetryAttempts,
		Set:        istiodOverrides,
	},
	{
		Name:      ChartOPA,
		Namespace: NamespaceOPA,
		Gate:      &helm.EndpointGate{Namespace: NamespaceIstioSystem, Service: ChartIstiod},
		Timeout:   30 * time.Minute,
	},
	{Name: ChartSeaweedFS, Namespace: defaults.PlatformNamespace, After: configureRetention},
	{Name: ChartPersistentVolumes, Namespace: defaults.PlatformNamespace},
}

func istiodOverrides(e *Env) map[string]string {
	if e.Flags.Enabled(platform.FlagAmbientMesh) {
		return map[string]string{"profile": "ambient"}
	}
	return nil
}

// Spec builds the Helm chart spec for c from the run's inputs.
func (c Chart) Spec(e *Env) helm.ChartSpec {
	retry := helm.DefaultRetry()
	if c.Attempts > 0 {
		retry.Attempts = c.Attempts
	}
	if c.RetryAll {
		retry.Retryable = helm.Always
	}
	retry.Wait = e.RetryWait

	spec := helm.ChartSpec{
		Name:           c.Name,
		Release:        c.Name,
		Namespace:      c.Namespace,
		ChartDir:       e.rootPath(defaults.ChartsDirName, c.Name),
		ValuesTemplate: "templates/" + c.Name + ".yaml.tmpl",
		ValuesPath:     e.rootPath(c.Name + ".values.yaml"),
		HistoryMax:     c.HistoryMax,
		Timeout:        c.Timeout,
		Gate:           c.Gate,
		Retry:          retry,
	}
	if c.Set != nil {
		spec.Set = c.Set(e)
	}
	if e.Lightweight() {
		spec.Repository = chartRepository(e)
		spec.Version = e.Values.ProductBuild
	}
	return spec
}

func chartRepository(e *Env) string {
	registry := e.Values.ExternalRegistry
	if registry == "" {
		registry = e.Values.ImageRegistry
	}
	registry = strings.TrimPrefix(strings.TrimPrefix(registry, "https://"), "http://")
	return "oci://" + strings.TrimSuffix(registry, "/") + "/charts"
}

// TemplateData is the data every values template is rendered with.
func TemplateData(e *Env) map[string]any {
	v := e.Values
	return map[string]any{
		"registry":         v.ImageRegistry,
		"externalRegistry": v.ExternalRegistry,
		"productVersion":   v.ProductVersion,
		"productBuild":     v.ProductBuild,
		"dataFolder":       v.DataFolder,
		"domain":           v.Domain,
		"adminEmail":       v.AdminEmail,
		"telemetry":        v.TelemetryStack,
		"ambient":          e.Flags.Enabled(platform.FlagAmbientMesh),
		"namespace":        defaults.PlatformNamespace,
		"flags":            e.Flags.TemplateData(),
		"smtp": map[string]any{
			"host":     v.SMTP.Host,
			"port":     v.SMTP.Port,
			"user":     v.SMTP.User,
			"password": v.SMTP.Password,
		},
	}
}

// DeployChart returns the step that renders values and upserts c.
func DeployChart(c Chart) Step {
	return Step{
		Name:    "deploy-" + c.Name,
		Message: fmt.Sprintf(MsgDeployChart, c.Name),
		Run: func(ctx context.Context, e *Env) error {
			spec := c.Spec(e)
			if e.Lightweight() {
				if err := e.Helm.Pull(ctx, spec); err != nil {
					return err
				}
			}
			if err := e.Helm.RenderValues(spec, TemplateData(e)); err != nil {
				return err
			}
			if err := e.Helm.Upsert(ctx, spec); err != nil {
				return err
			}
			if c.After != nil {
				return c.After(ctx, e)
			}
			return nil
		},
	}
}

// UninstallChart returns the step that removes the release of c.
func UninstallChart(c Chart) Step {
	return Step{
		Name:    "uninstall-" + c.Name,
		Message: fmt.Sprintf(MsgUninstallChart, c.Name),
		Run: func(ctx context.Context, e *Env) error {
			return e.Helm.Uninstall(ctx, c.Name, c.Namespace)
		},
	}
}

func requireCASecret(ctx context.Context, e *Env) error {
	c, err := e.Cluster()
	if err != nil {
		return errors.Wrap(errors.ErrCodeGetSecret, "cluster unavailable", err)
	}
	if _, err := c.GetSecret(ctx, NamespaceCertManager, CASecret); err != nil {
		return errors.WrapWithContext(errors.ErrCodeGetSecret,
			"CA certificate secret is not available", err,
			map[string]any{"namespace": NamespaceCertManager, "secret": CASecret})
	}
	return nil
}
