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
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"k8s.io/client-go/kubernetes"

	"github.com/impt-platform/installer/pkg/checks"
	"github.com/impt-platform/installer/pkg/command"
	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/k8s/client"
	"github.com/impt-platform/installer/pkg/logging"
	"github.com/impt-platform/installer/pkg/metrics"
	"github.com/impt-platform/installer/pkg/platform"
	"github.com/impt-platform/installer/pkg/steps"
	"github.com/impt-platform/installer/pkg/ux"
)

// Seams replaced in tests.
var (
	newRunner   = func() command.Runner { return command.NewExecRunner() }
	newPrompter = func() config.Prompter { return &config.FormPrompter{} }
	isTerminal  = func() bool { return ux.IsTerminal(os.Stdin) && ux.IsTerminal(os.Stdout) }
	kubeClient  = func(path string) (kubernetes.Interface, error) {
		h, err := client.ConfigHandler(path)
		if err != nil {
			return nil, err
		}
		return h.Clientset(), nil
	}
	confirm = func(ctx context.Context, title string) (bool, error) {
		ok := false
		err := huh.NewForm(huh.NewGroup(huh.NewConfirm().Title(title).Value(&ok))).RunWithContext(ctx)
		return ok, err
	}
	getenv      = os.Getenv
	installRoot = defaults.InstallRoot
	// newCheckEnv and newStepEnv build the per-run environments.
	newCheckEnv = checks.NewEnvironment
	newStepEnv  = steps.NewEnv
)

// Flags shared by install, upgrade and uninstall.
func operationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML file with the operation configuration; disables interactive prompts",
		},
		bundleDirFlag,
		&cli.StringFlag{
			Name:    "kubeconfig",
			Usage:   "Path to the k3s kubeconfig",
			Sources: cli.EnvVars("KUBECONFIG"),
		},
		&cli.StringFlag{
			Name:    "image-registry",
			Usage:   "Image registry address",
			Sources: cli.EnvVars(config.EnvPlatformRegistry),
		},
		&cli.StringFlag{
			Name:    "external-registry",
			Usage:   "External image registry address",
			Sources: cli.EnvVars(config.EnvExternalRegistry),
		},
		&cli.StringFlag{
			Name:  "data-folder",
			Usage: "Platform data folder",
		},
		&cli.BoolFlag{
			Name:  "lightweight",
			Usage: "Pull charts and images from remote registries instead of the bundle",
		},
		&cli.StringSliceFlag{
			Name:  "feature-flag",
			Usage: "Feature flag override (format: NAME=VALUE, can be repeated)",
		},
		&cli.BoolFlag{
			Name:  "non-interactive",
			Usage: "Never prompt; fail when required configuration is missing",
		},
	}
}

// operation binds one command to its configuration and hooks.
type operation struct {
	kind  config.Kind
	title string
	cfg   *config.OperationConfig
	// values freezes the typed configuration.
	values func() (config.Values, error)
	// derive fills derived fields before checks run.
	derive func(ctx context.Context, o *run) error
	// afterChecks runs once the environment is known to be sane. Returning
	// errNothingToDo ends the run successfully.
	afterChecks func(ctx context.Context, o *run) error
	// validate runs after prompting, before any step.
	validate func(ctx context.Context, o *run) error
	// finish runs after every step succeeded.
	finish func(ctx context.Context, o *run, v config.Values) error
}

// run is the state of one command invocation.
type run struct {
	op       *operation
	cmd      *cli.Command
	id       string
	console  *ux.Console
	runner   command.Runner
	recorder *metrics.Recorder
	flags    platform.Flags
	logPath  string
}

var errNothingToDo = stderrors.New("nothing to do")

func (o *operation) action(ctx context.Context, cmd *cli.Command) (err error) {
	r := &run{
		op:      o,
		cmd:     cmd,
		id:      uuid.NewString(),
		console: ux.NewConsole(cmd.Root().Writer),
		runner:  newRunner(),
		logPath: cmd.String("log-file"),
	}
	sink, err := logging.OpenFileSink(r.logPath, name, version, cmd.String("log-level"),
		"run_id", r.id, "operation", o.kind.String())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && !aborted(err) && ctx.Err() == nil {
			err = &failedError{operation: o.title, logPath: r.logPath, err: err}
		}
		if cerr := sink.Close(); cerr != nil {
			fmt.Fprintln(cmd.Root().ErrWriter, cerr)
		}
	}()

	r.recorder = metrics.NewRecorder(o.kind.String(), r.id, version)
	slog.Info("run started", "commit", commit, "args", os.Args[1:])

	err = r.execute(ctx)
	if stderrors.Is(err, errNothingToDo) {
		err = nil
	}
	r.recorder.RunFinished(err == nil)
	r.writeMetrics()
	switch {
	case err == nil:
		slog.Info("run finished")
	case aborted(err) || ctx.Err() != nil:
		slog.Warn("run aborted", "error", err)
	default:
		// full detail with stack goes to the install log only
		slog.Error("run failed", "error", fmt.Sprintf("%+v", err), "code", codeOf(err))
	}
	return err
}

func (r *run) execute(ctx context.Context) error {
	o := r.op

	if err := r.configure(); err != nil {
		return err
	}
	if o.derive != nil {
		if err := o.derive(ctx, r); err != nil {
			return err
		}
	}
	overrides, err := r.flagOverrides()
	if err != nil {
		return err
	}
	flags, err := platform.LoadFlags(getenv, overrides, o.cfg.BundleDir.Value())
	if err != nil {
		return &usageError{err: err}
	}
	r.flags = flags
	slog.Info("feature flags resolved", "flags", flags)

	r.console.Title(MsgRunningChecks)
	items, err := newCheckEnv(o.cfg, r.runner).ChecksFor(o.kind)
	if err != nil {
		return err
	}
	runner := checks.NewRunner(r.console)
	runner.Observer = r.recorder
	if err := runner.Run(ctx, items); err != nil {
		return err
	}

	if o.afterChecks != nil {
		if err := o.afterChecks(ctx, r); err != nil {
			return err
		}
	}

	if o.cfg.InteractiveMode.Value() {
		if err := config.PromptMissing(ctx, o.cfg, newPrompter()); err != nil {
			return err
		}
	}
	if o.validate != nil {
		if err := o.validate(ctx, r); err != nil {
			return err
		}
	}

	values, err := o.values()
	if err != nil {
		return err
	}
	stepList, err := steps.StepsFor(o.kind)
	if err != nil {
		return err
	}

	r.console.Title(r.sequenceTitle())
	env := newStepEnv(values, r.flags, r.runner, func() (kubernetes.Interface, error) {
		return kubeClient(values.Kubeconfig)
	})
	seq := &steps.Sequence{
		Name:     o.kind.String(),
		Steps:    stepList,
		Console:  r.console,
		Observer: r.recorder,
	}
	if err := seq.Run(ctx, env); err != nil {
		return err
	}

	if o.finish != nil {
		return o.finish(ctx, r, values)
	}
	return nil
}

// configure applies the config file, then explicit flags, and decides
// whether the run is interactive.
func (r *run) configure() error {
	cfg, cmd := r.op.cfg, r.cmd

	path := cmd.String("config")
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return err
		}
	}
	if err := cfg.InstallRoot.Set(installRoot); err != nil {
		return err
	}
	if dir := cmd.String("bundle-dir"); dir != "" {
		if err := cfg.BundleDir.Set(dir); err != nil {
			return &usageError{err: err}
		}
	}

	set := func(flag string, field config.Entry) error {
		if !cmd.IsSet(flag) {
			return nil
		}
		var err error
		if field.IsBool() {
			err = field.SetAny(cmd.Bool(flag))
		} else {
			err = field.SetString(cmd.String(flag))
		}
		if err != nil {
			return &usageError{err: fmt.Errorf("--%s: %w", flag, err)}
		}
		return nil
	}
	overrides := []struct {
		flag  string
		field config.Entry
	}{
		{"kubeconfig", cfg.Kubeconfig},
		{"image-registry", cfg.ImageRegistry},
		{"external-registry", cfg.ExternalRegistry},
		{"data-folder", cfg.DataFolder},
		{"lightweight", cfg.LightweightInstaller},
	}
	for _, o := range overrides {
		if err := set(o.flag, o.field); err != nil {
			return err
		}
	}

	interactive := path == "" && !cmd.Bool("non-interactive") && isTerminal()
	return cfg.InteractiveMode.Set(interactive)
}

func (r *run) flagOverrides() (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range r.cmd.StringSlice("feature-flag") {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, &usageError{err: fmt.Errorf(ErrInvalidFeatureFlag, kv)}
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

func (r *run) sequenceTitle() string {
	switch r.op.kind {
	case config.KindUpgrade:
		return MsgUpgrading
	case config.KindUninstall:
		return MsgUninstalling
	}
	return MsgInstalling
}

// writeMetrics leaves the node-exporter textfile in the install root. The
// uninstall removes that root, so it writes nothing.
func (r *run) writeMetrics() {
	if r.op.kind == config.KindUninstall {
		return
	}
	path := filepath.Join(r.op.cfg.InstallRoot.Value(), defaults.MetricsFileName)
	if err := r.recorder.WriteTextfile(path); err != nil {
		slog.Warn("failed to write metrics", "path", path, "error", err)
	}
}

// recallDataFolder fills an unset data folder from the configuration dump
// left in the install root by the installation.
func recallDataFolder(cfg *config.OperationConfig) error {
	if cfg.DataFolder.IsSet() {
		return nil
	}
	path := filepath.Join(cfg.InstallRoot.Value(), defaults.ConfigDumpName)
	folder, err := config.DumpedValue(path, config.FieldDataFolder)
	if err != nil || folder == "" {
		return err
	}
	if err := cfg.DataFolder.Set(folder); err != nil {
		return err
	}
	slog.Info("data folder taken from installation", "path", folder, "source", path)
	return nil
}

func aborted(err error) bool {
	return stderrors.Is(err, errAborted) || stderrors.Is(err, huh.ErrUserAborted)
}

// deriveVersions reads the target version and build from the bundle manifest.
func deriveVersions(version, build *config.Field[string]) func(context.Context, *run) error {
	return func(_ context.Context, r *run) error {
		info, err := platform.LoadVersionInfo(platform.ManifestPath(r.op.cfg.BundleDir.Value()))
		if err != nil {
			return err
		}
		if err := version.Set(info.ProductVersion); err != nil {
			return err
		}
		return build.Set(info.ProductBuild)
	}
}
