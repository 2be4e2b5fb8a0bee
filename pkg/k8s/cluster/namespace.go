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

package cluster

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/utils/ptr"
)

// DefaultServiceAccount is the service account created in every namespace.
const DefaultServiceAccount = "default"

// NamespaceSpec is the desired metadata of a namespace.
type NamespaceSpec struct {
	Name        string
	Labels      map[string]string
	Annotations map[string]string
}

// UpsertNamespace creates the namespace when absent, otherwise merges the
// spec labels and annotations into the existing object. It reports whether
// the namespace was created.
func (c *Client) UpsertNamespace(ctx context.Context, spec NamespaceSpec) (bool, error) {
	namespaces := c.cs.CoreV1().Namespaces()

	_, err := namespaces.Get(ctx, spec.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		ns := &corev1.Namespace{
			ObjectMeta: metav1.ObjectMeta{
				Name:        spec.Name,
				Labels:      spec.Labels,
				Annotations: spec.Annotations,
			},
		}
		if _, err := namespaces.Create(ctx, ns, metav1.CreateOptions{}); err != nil {
			return false, err
		}
		slog.Debug("namespace created", "namespace", spec.Name)
		return true, nil
	}
	if err != nil {
		return false, err
	}

	patch, err := metadataPatch(spec.Labels, spec.Annotations)
	if err != nil {
		return false, err
	}
	if _, err := namespaces.Patch(ctx, spec.Name, types.MergePatchType, patch, metav1.PatchOptions{}); err != nil {
		return false, err
	}
	slog.Debug("namespace patched", "namespace", spec.Name)
	return false, nil
}

func metadataPatch(labels, annotations map[string]string) ([]byte, error) {
	meta := map[string]any{}
	if len(labels) > 0 {
		meta["labels"] = labels
	}
	if len(annotations) > 0 {
		meta["annotations"] = annotations
	}
	b, err := json.Marshal(map[string]any{"metadata": meta})
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata patch: %w", err)
	}
	return b, nil
}

// DisableDefaultSATokenAutomount sets automountServiceAccountToken=false on
// the default service account of namespace, creating the account when the
// service account controller has not done so yet.
func (c *Client) DisableDefaultSATokenAutomount(ctx context.Context, namespace string) error {
	accounts := c.cs.CoreV1().ServiceAccounts(namespace)

	sa, err := accounts.Get(ctx, DefaultServiceAccount, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		sa = &corev1.ServiceAccount{
			ObjectMeta: metav1.ObjectMeta{
				Name:      DefaultServiceAccount,
				Namespace: namespace,
			},
			AutomountServiceAccountToken: ptr.To(false),
		}
		_, err = accounts.Create(ctx, sa, metav1.CreateOptions{})
		if apierrors.IsAlreadyExists(err) {
			return c.DisableDefaultSATokenAutomount(ctx, namespace)
		}
		return err
	}
	if err != nil {
		return err
	}
	if sa.AutomountServiceAccountToken != nil && !*sa.AutomountServiceAccountToken {
		return nil
	}

	patch := []byte(`{"automountServiceAccountToken":false}`)
	_, err = accounts.Patch(ctx, DefaultServiceAccount, types.StrategicMergePatchType, patch, metav1.PatchOptions{})
	return err
}

// DeleteNamespace deletes a namespace and waits until it is gone. A missing
// namespace is not an error.
func (c *Client) DeleteNamespace(ctx context.Context, name string, timeout time.Duration) error {
	namespaces := c.cs.CoreV1().Namespaces()
	if err := ignoreNotFound(namespaces.Delete(ctx, name, metav1.DeleteOptions{})); err != nil {
		return err
	}

	return wait.PollUntilContextTimeout(ctx, time.Second, timeout, true,
		func(ctx context.Context) (bool, error) {
			_, err := namespaces.Get(ctx, name, metav1.GetOptions{})
			if apierrors.IsNotFound(err) {
				return true, nil
			}
			return false, err
		},
	)
}
