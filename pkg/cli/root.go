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
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/logging"
)

const (
	name           = "platform-installer"
	versionDefault = "dev"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// errAborted marks a run the user declined at a prompt.
var errAborted = stderrors.New("aborted by user")

// usageError marks invalid command-line arguments.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

var (
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (debug, info, warn, error)",
		Sources: cli.EnvVars(logging.EnvLogLevel),
		Value:   "info",
	}
	logFileFlag = &cli.StringFlag{
		Name:    "log-file",
		Usage:   "Install log file",
		Sources: cli.EnvVars("INSTALL_LOG_FILE_PATH"),
		Value:   defaults.InstallLogFilePath,
	}
	bundleDirFlag = &cli.StringFlag{
		Name:  "bundle-dir",
		Usage: "Directory holding the version manifest, charts, images and tools (default: installer directory)",
	}
)

func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return &usageError{err: err}
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cli.Command {
	root := &cli.Command{
		Name:                  name,
		Usage:                 "Install and manage the platform on a single-node k3s cluster",
		Version:               fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			logLevelFlag,
			logFileFlag,
		},
		Commands: []*cli.Command{
			installCmd(),
			upgradeCmd(),
			uninstallCmd(),
			versionCmd(),
			changePasswordCmd(),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Present() {
				return &usageError{err: fmt.Errorf(ErrUnknownCommand, cmd.Args().First())}
			}
			return cli.ShowAppHelp(cmd)
		},
		OnUsageError:   onUsageError,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	for _, sub := range root.Commands {
		sub.OnUsageError = onUsageError
	}
	return root
}

// Execute runs the installer with the process arguments and exits.
// This is called by main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SIGINT/SIGTERM cancel the run; steps observe it between stages.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	os.Exit(Run(ctx, os.Args, os.Stdout, os.Stderr))
}

// Run executes args and maps the outcome to an exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.Writer = stdout
	root.ErrWriter = stderr
	return exitCode(ctx, root.Run(ctx, args), stdout, stderr)
}

func exitCode(ctx context.Context, err error, stdout, stderr io.Writer) int {
	var usage *usageError
	switch {
	case err == nil:
		return ExitOK
	case ctx.Err() != nil:
		// interrupted; whatever the last step returned is in the install log
		fmt.Fprintln(stdout, MsgAborted)
		return ExitInterrupted
	case aborted(err):
		fmt.Fprintln(stdout, MsgAborted)
		return ExitOK
	case stderrors.As(err, &usage):
		fmt.Fprintln(stderr, "Error:", usage.err)
		return ExitUsage
	}

	fmt.Fprintln(stderr, summary(err))
	var fe *failedError
	if stderrors.As(err, &fe) && fe.logPath != "" {
		fmt.Fprintf(stderr, MsgSeeLog+"\n", fe.logPath)
	}
	return ExitFailure
}

func codeOf(err error) string {
	if code, ok := errors.CodeOf(err); ok {
		return string(code)
	}
	return string(errors.ErrCodeInternal)
}

func summary(err error) string {
	var fe *failedError
	if stderrors.As(err, &fe) {
		return fmt.Sprintf(MsgFailed, fe.operation, errorMessage(fe.err))
	}
	return "Error: " + errorMessage(err)
}

// errorMessage joins the messages of the structured errors in the chain,
// leaving out raw causes, for the one-line summary.
func errorMessage(err error) string {
	var parts []string
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if se, ok := e.(*errors.StructuredError); ok {
			parts = append(parts, se.Message)
		}
	}
	if len(parts) == 0 {
		return err.Error()
	}
	return strings.Join(parts, ": ")
}

// failedError ties an operation failure to the log file holding its details.
type failedError struct {
	operation string
	logPath   string
	err       error
}

func (e *failedError) Error() string { return e.operation + " failed: " + e.err.Error() }
func (e *failedError) Unwrap() error { return e.err }
