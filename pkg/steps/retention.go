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

	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/platform"
	"github.com/impt-platform/installer/pkg/storage"
)

// BucketTTLs are applied after SeaweedFS is deployed.
var BucketTTLs = storage.DefaultBucketTTLs

// configureRetention sets bucket expiration rules through the SeaweedFS S3
// gateway. A missing credentials secret fails the step; S3 errors only warn.
func configureRetention(ctx context.Context, e *Env) error {
	if !e.Flags.Enabled(platform.FlagSeaweedFSTTL) {
		return nil
	}
	c, err := e.Cluster()
	if err != nil {
		return errors.Wrap(errors.ErrCodeGetSecret, "cluster unavailable", err)
	}
	secret, err := c.GetSecret(ctx, defaults.PlatformNamespace, storage.CredentialsSecret)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeGetSecret,
			"object storage credentials are not available", err,
			map[string]any{"namespace": defaults.PlatformNamespace, "secret": storage.CredentialsSecret})
	}
	creds, err := storage.CredentialsFromSecret(secret)
	if err != nil {
		return errors.Wrap(errors.ErrCodeGetSecret, "invalid object storage credentials", err)
	}

	ip, err := c.ControlPlaneInternalIP(ctx, defaults.ControlPlaneLabel)
	if err != nil {
		return Warnf(WarnStorageRetention, err)
	}
	api, err := e.Buckets(ctx, storage.Endpoint(ip), creds)
	if err != nil {
		return Warnf(WarnStorageRetention, err)
	}
	if err := storage.ApplyTTLs(ctx, api, BucketTTLs); err != nil {
		return Warnf(WarnStorageRetention, err)
	}
	return nil
}
