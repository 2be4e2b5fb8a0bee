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
	"os"

	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/platform"
)

// RecordVersion writes the deployed version and build to the versions
// configmap.
func RecordVersion() Step {
	return Step{
		Name:    "record-version",
		Message: MsgRecordVersion,
		Run: func(ctx context.Context, e *Env) error {
			c, err := e.Cluster()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "cluster unavailable", err)
			}
			ns := defaults.PlatformNamespace
			err = c.UpsertConfigMap(ctx, ns, platform.VersionsConfigMap(ns), map[string]string{
				defaults.PlatformVersionKey: e.Values.ProductVersion,
				defaults.ProductBuildKey:    e.Values.ProductBuild,
			})
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to record platform version", err)
			}
			return nil
		},
	}
}

// DeletePlatformNamespace removes the platform namespace and waits for it
// to disappear.
func DeletePlatformNamespace() Step {
	return Step{
		Name:    "delete-platform-namespace",
		Message: MsgDeletePlatform,
		Run: func(ctx context.Context, e *Env) error {
			c, err := e.Cluster()
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "cluster unavailable", err)
			}
			if err := c.DeleteNamespace(ctx, defaults.PlatformNamespace, defaults.NamespaceDeleteTimeout); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to delete platform namespace", err)
			}
			return nil
		},
	}
}

// DeleteData removes the data folder when requested.
func DeleteData() Step {
	return Step{
		Name:    "delete-data",
		Message: MsgDeleteData,
		Skip: func(e *Env) string {
			switch {
			case !e.Values.DeleteData:
				return SkipKeepData
			case e.Values.DataFolder == "":
				return SkipNoDataFolder
			}
			return ""
		},
		Run: func(_ context.Context, e *Env) error {
			if err := os.RemoveAll(e.Values.DataFolder); err != nil {
				return errors.WrapWithContext(errors.ErrCodeInternal, "failed to delete data folder", err,
					map[string]any{"path": e.Values.DataFolder})
			}
			return nil
		},
	}
}

// UninstallK3s runs the k3s removal script when k3s was installed by the
// installer.
func UninstallK3s() Step {
	return Step{
		Name:    "uninstall-k3s",
		Message: MsgUninstallK3s,
		Skip: func(e *Env) string {
			if !present(e.K3sMarkerPath) {
				return SkipK3sNotManaged
			}
			return ""
		},
		Run: func(ctx context.Context, e *Env) error {
			if _, err := e.Runner.Run(ctx, e.K3sUninstallScript); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "k3s uninstall failed", err)
			}
			return nil
		},
	}
}

// RemovePlatformDir removes the install root. Failure only warns.
func RemovePlatformDir() Step {
	return Step{
		Name:    "remove-platform-dir",
		Message: MsgRemovePlatformDir,
		Run: func(_ context.Context, e *Env) error {
			if err := os.RemoveAll(e.installRoot()); err != nil {
				return Warnf(WarnPlatformDirNotEmpty, e.installRoot(), err)
			}
			return nil
		},
	}
}

func bundleSteps() []Step {
	return []Step{
		CreatePlatformDir(),
		CopyCharts(),
		ExtractRegistryData(),
		LoadImages(),
		DeployInitialManifests(),
	}
}

func chartSteps() []Step {
	out := make([]Step, 0, len(Charts))
	for _, c := range Charts {
		out = append(out, DeployChart(c))
	}
	return out
}

// InstallSteps returns the install sequence steps.
func InstallSteps() []Step {
	out := []Step{InstallK3s()}
	out = append(out, bundleSteps()...)
	out = append(out, chartSteps()...)
	return append(out, RecordVersion())
}

// UpgradeSteps returns the upgrade sequence steps.
func UpgradeSteps() []Step {
	out := bundleSteps()
	out = append(out, chartSteps()...)
	return append(out, RecordVersion())
}

// UninstallSteps returns the uninstall sequence steps. Releases are removed
// in reverse install order.
func UninstallSteps() []Step {
	var out []Step
	for i := len(Charts) - 1; i >= 0; i-- {
		out = append(out, UninstallChart(Charts[i]))
	}
	return append(out,
		DeletePlatformNamespace(),
		DeleteData(),
		UninstallK3s(),
		RemovePlatformDir(),
	)
}

// StepsFor returns the steps of an operation.
func StepsFor(kind config.Kind) ([]Step, error) {
	switch kind {
	case config.KindInstall:
		return InstallSteps(), nil
	case config.KindUpgrade:
		return UpgradeSteps(), nil
	case config.KindUninstall:
		return UninstallSteps(), nil
	}
	return nil, fmt.Errorf("unknown operation %q", kind)
}
