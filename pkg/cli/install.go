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
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
)

func installCmd() *cli.Command {
	return &cli.Command{
		Name:  "install",
		Usage: "Install k3s and the platform on this node",
		Description: `Run the install checks, collect the configuration and deploy the platform.

Configuration comes from --config or, on a terminal, from interactive prompts.
Fields not given in the file keep their defaults; required fields without a
value fail the run.

# Examples

Interactive installation from the unpacked bundle:
  platform-installer install

Unattended installation:
  platform-installer install --config install.yaml`,
		Flags: operationFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return newInstallOperation().action(ctx, cmd)
		},
	}
}

func newInstallOperation() *operation {
	c := config.NewInstallationConfig()
	return &operation{
		kind:   config.KindInstall,
		title:  "Installation",
		cfg:    c.OperationConfig,
		values: c.Values,
		derive: deriveVersions(c.ProductVersion, c.ProductBuild),
		validate: func(ctx context.Context, _ *run) error {
			return c.ValidateSMTP(ctx)
		},
		finish: func(_ context.Context, r *run, v config.Values) error {
			dump := filepath.Join(v.InstallRoot, defaults.ConfigDumpName)
			if err := c.DumpFile(dump); err != nil {
				return err
			}
			r.console.Success(fmt.Sprintf(MsgInstallDone, v.ProductVersion))
			return nil
		},
	}
}
