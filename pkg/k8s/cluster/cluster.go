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
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/client-go/kubernetes"
)

// Client performs installer operations against one cluster.
type Client struct {
	cs kubernetes.Interface
}

// New returns a Client using cs.
func New(cs kubernetes.Interface) *Client {
	return &Client{cs: cs}
}

// Clientset returns the underlying Kubernetes client.
func (c *Client) Clientset() kubernetes.Interface { return c.cs }

// NotFoundError reports a missing object.
type NotFoundError struct {
	Kind      string
	Namespace string
	Name      string
	Err       error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s/%s not found", e.Kind, e.Namespace, e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ignoreNotFound returns nil if the error is "not found", otherwise returns the error.
func ignoreNotFound(err error) error {
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}
