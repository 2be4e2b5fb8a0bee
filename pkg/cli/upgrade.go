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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/platform"
)

func upgradeCmd() *cli.Command {
	return &cli.Command{
		Name:  "upgrade",
		Usage: "Upgrade the platform to the build shipped with this installer",
		Description: `Compare the installed product build with the bundle's build and, when the
bundle is newer, redeploy the platform charts and images.

Nothing is changed when both builds are equal. Downgrades are refused.`,
		Flags: operationFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return newUpgradeOperation().action(ctx, cmd)
		},
	}
}

func newUpgradeOperation() *operation {
	c := config.NewUpgradeConfig()
	return &operation{
		kind:        config.KindUpgrade,
		title:       "Upgrade",
		cfg:         c.OperationConfig,
		values:      c.Values,
		derive: func(ctx context.Context, r *run) error {
			if err := recallDataFolder(c.OperationConfig); err != nil {
				return err
			}
			return deriveVersions(c.ProductVersion, c.ProductBuild)(ctx, r)
		},
		afterChecks: func(ctx context.Context, r *run) error { return compareInstalled(ctx, r, c) },
		finish: func(_ context.Context, r *run, v config.Values) error {
			r.console.Success(fmt.Sprintf(MsgUpgradeDone, v.CurrentVersion, v.ProductVersion))
			return nil
		},
	}
}

// compareInstalled reads the deployed version from the cluster and decides
// whether the upgrade proceeds.
func compareInstalled(ctx context.Context, r *run, c *config.UpgradeConfig) error {
	cs, err := kubeClient(c.Kubeconfig.Value())
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfiguration, "cannot connect to the cluster", err)
	}
	ns := defaults.PlatformNamespace
	current := platform.CurrentPlatformVersion(ctx, cs, ns)
	currentBuild := platform.CurrentProductBuild(ctx, cs, ns)
	if err := c.CurrentVersion.Set(current); err != nil {
		return err
	}
	if err := c.CurrentBuild.Set(currentBuild); err != nil {
		return err
	}

	proceed, err := upgradeNeeded(currentBuild, c.ProductBuild.Value())
	if err != nil {
		return err
	}
	if !proceed {
		r.console.Success(fmt.Sprintf(MsgUpToDate, current))
		return errNothingToDo
	}
	return nil
}

// upgradeNeeded compares the installed and target builds. An unreadable
// installed build does not block the upgrade.
func upgradeNeeded(current, target string) (bool, error) {
	if current == defaults.UnknownVersion {
		slog.Warn("installed build unknown, upgrading", "target", target)
		return true, nil
	}
	cmp, err := platform.CompareBuilds(current, target)
	if err != nil {
		slog.Warn("builds not comparable, upgrading", "current", current, "target", target, "error", err)
		return true, nil
	}
	switch {
	case cmp == 0:
		return false, nil
	case cmp > 0:
		return false, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf(ErrDowngradeRefused, current, target),
			map[string]any{"current": current, "target": target})
	}
	return true, nil
}
