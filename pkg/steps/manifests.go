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
	"log/slog"

	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/k8s/cluster"
	"github.com/impt-platform/installer/pkg/platform"
)

// Namespace labels and annotations.
const (
	LabelManagedBy        = "app.kubernetes.io/managed-by"
	ManagedByInstaller    = "platform-installer"
	LabelIstioInjection   = "istio-injection"
	LabelDataplaneMode    = "istio.io/dataplane-mode"
	LabelOPAWebhook       = "openpolicyagent.org/webhook"
	LabelCertManagerNoVal = "cert-manager.io/disable-validation"
	AnnotationProduct     = "impt.io/product-build"
)

// RequiredNamespaces returns the namespaces deploy-initial-manifests
// converges, in order. The mesh labels depend on the ambient mesh flag.
func RequiredNamespaces(e *Env) []cluster.NamespaceSpec {
	ambient := e.Flags.Enabled(platform.FlagAmbientMesh)
	mesh := map[string]string{LabelIstioInjection: "enabled"}
	if ambient {
		mesh = map[string]string{LabelDataplaneMode: "ambient"}
	}

	spec := func(name string, extra ...map[string]string) cluster.NamespaceSpec {
		labels := map[string]string{LabelManagedBy: ManagedByInstaller}
		for _, m := range extra {
			for k, v := range m {
				labels[k] = v
			}
		}
		return cluster.NamespaceSpec{
			Name:        name,
			Labels:      labels,
			Annotations: map[string]string{AnnotationProduct: e.Values.ProductBuild},
		}
	}

	out := []cluster.NamespaceSpec{
		spec(defaults.PlatformNamespace, mesh),
		spec(NamespaceOPA, map[string]string{LabelOPAWebhook: "ignore"}),
		spec(NamespaceIstioSystem, map[string]string{LabelOPAWebhook: "ignore"}),
		spec(NamespaceCertManager, map[string]string{LabelCertManagerNoVal: "true", LabelOPAWebhook: "ignore"}),
		spec(NamespaceFlyte, mesh),
		spec(NamespaceJobs, mesh),
	}
	if ambient {
		out = append(out, spec(NamespaceIstioIngress, mesh))
	}
	return out
}

// DeployInitialManifests converges the required namespaces and disables
// default service account token automount in each.
func DeployInitialManifests() Step {
	return Step{
		Name:    "deploy-initial-manifests",
		Message: MsgDeployManifests,
		Run: func(ctx context.Context, e *Env) error {
			c, err := e.Cluster()
			if err != nil {
				return errors.Wrap(errors.ErrCodeNamespaceCreation, "cluster unavailable", err)
			}
			for _, ns := range RequiredNamespaces(e) {
				created, err := c.UpsertNamespace(ctx, ns)
				if err != nil {
					return errors.WrapWithContext(errors.ErrCodeNamespaceCreation,
						fmt.Sprintf("failed to create namespace %s", ns.Name), err,
						map[string]any{"namespace": ns.Name})
				}
				slog.Debug("namespace converged", "namespace", ns.Name, "created", created)

				if err := c.DisableDefaultSATokenAutomount(ctx, ns.Name); err != nil {
					return errors.WrapWithContext(errors.ErrCodePatchServiceAccount,
						fmt.Sprintf("failed to patch default service account in %s", ns.Name), err,
						map[string]any{"namespace": ns.Name})
				}
			}
			return nil
		},
	}
}
