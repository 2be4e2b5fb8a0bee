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
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/impt-platform/installer/pkg/platform"
)

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the product version and build shipped with this installer",
		Flags: []cli.Flag{bundleDirFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			info, err := platform.LoadVersionInfo(platform.ManifestPath(bundleDir(cmd)))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.Root().Writer, MsgVersion, info.ProductVersion, info.ProductBuild)
			return err
		},
	}
}

// bundleDir returns --bundle-dir, defaulting to the executable's directory.
func bundleDir(cmd *cli.Command) string {
	if dir := cmd.String("bundle-dir"); dir != "" {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
