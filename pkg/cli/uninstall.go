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

	"github.com/urfave/cli/v3"

	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
)

func uninstallCmd() *cli.Command {
	flags := append(operationFlags(),
		&cli.BoolFlag{
			Name:  "delete-data",
			Usage: "Also remove the platform data folder",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Do not ask for confirmation",
		},
	)
	return &cli.Command{
		Name:  "uninstall",
		Usage: "Remove the platform, and k3s when the installer installed it",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return newUninstallOperation(cmd.Bool("delete-data"), cmd.Bool("yes")).action(ctx, cmd)
		},
	}
}

func newUninstallOperation(deleteData, assumeYes bool) *operation {
	c := config.NewUninstallationConfig()
	return &operation{
		kind:   config.KindUninstall,
		title:  "Uninstallation",
		cfg:    c.OperationConfig,
		values: c.Values,
		derive: func(context.Context, *run) error {
			if deleteData {
				if err := c.DeleteData.Set(true); err != nil {
					return err
				}
			}
			return recallDataFolder(c.OperationConfig)
		},
		validate: func(ctx context.Context, _ *run) error {
			if c.DeleteData.Value() && c.DataFolder.Value() == "" {
				return &usageError{err: fmt.Errorf(ErrDataFolderUnknown, defaults.ConfigDumpName)}
			}
			if assumeYes || !c.InteractiveMode.Value() {
				return nil
			}
			ok, err := confirm(ctx, MsgConfirmUninstall)
			if err != nil {
				return err
			}
			if ok && c.DeleteData.Value() {
				ok, err = confirm(ctx, fmt.Sprintf(MsgConfirmDeleteData, c.DataFolder.Value()))
				if err != nil {
					return err
				}
			}
			if !ok {
				return errAborted
			}
			return nil
		},
		finish: func(_ context.Context, r *run, _ config.Values) error {
			r.console.Success(MsgUninstallDone)
			return nil
		},
	}
}
