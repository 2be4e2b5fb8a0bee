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

	"github.com/impt-platform/installer/pkg/identity"
	"github.com/impt-platform/installer/pkg/validator"
)

// directory is an identity.Directory holding a connection.
type directory interface {
	identity.Directory
	Close() error
}

var dialDirectory = func(cfg identity.Config) (directory, error) {
	conn, err := identity.Dial(cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func changePasswordCmd() *cli.Command {
	return &cli.Command{
		Name:  "change-password",
		Usage: "Change the password of a platform user",
		Description: `Set a new password for the platform user whose email is --username.

The password is checked against the platform policy first; a password that
does not comply is reported and nothing is changed.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "username",
				Usage:    "Email of the user",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "New password",
				Sources:  cli.EnvVars("PLATFORM_USER_PASSWORD"),
				Required: true,
			},
			&cli.StringFlag{
				Name:    "ldap-url",
				Usage:   "Identity directory URL",
				Sources: cli.EnvVars("LDAP_URL"),
				Value:   identity.DefaultURL,
			},
			&cli.StringFlag{
				Name:  "base-dn",
				Usage: "Search base for users",
				Value: identity.DefaultBaseDN,
			},
			&cli.StringFlag{
				Name:  "bind-dn",
				Usage: "Directory admin DN",
				Value: identity.DefaultBindDN,
			},
			&cli.StringFlag{
				Name:    "bind-password",
				Usage:   "Directory admin password",
				Sources: cli.EnvVars("LDAP_BIND_PASSWORD"),
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			out := cmd.Root().Writer
			username, password := cmd.String("username"), cmd.String("password")

			if err := validator.Email(username); err != nil {
				fmt.Fprintf(out, MsgInvalidUsername+"\n", err)
				return nil
			}
			if err := validator.Password(password); err != nil {
				fmt.Fprintf(out, MsgPasswordPolicy+"\n", err)
				return nil
			}

			cfg := identity.Config{
				URL:          cmd.String("ldap-url"),
				BaseDN:       cmd.String("base-dn"),
				BindDN:       cmd.String("bind-dn"),
				BindPassword: cmd.String("bind-password"),
			}
			dir, err := dialDirectory(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := dir.Close(); err != nil {
					slog.Warn("failed to close directory connection", "error", err)
				}
			}()

			if err := identity.ChangePassword(dir, cfg.BaseDN, username, password); err != nil {
				return err
			}
			fmt.Fprintf(out, MsgPasswordChanged+"\n", username)
			return nil
		},
	}
}
