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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/validator"
)

// Kind identifies the operation a configuration drives.
type Kind string

const (
	// KindInstall drives a fresh installation.
	KindInstall Kind = "install"
	// KindUpgrade drives an upgrade of an existing platform.
	KindUpgrade Kind = "upgrade"
	// KindUninstall drives removal of the platform.
	KindUninstall Kind = "uninstall"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Environment variables consulted for registry defaults.
const (
	EnvPlatformRegistry = "PLATFORM_REGISTRY_ADDRESS"
	EnvExternalRegistry = "EXTERNAL_REGISTRY_ADDRESS"
)

// Field names shared by every operation.
const (
	FieldInteractiveMode      = "interactive_mode"
	FieldInternetAccess       = "internet_access"
	FieldDataFolder           = "data_folder"
	FieldImageRegistry        = "image_registry"
	FieldExternalRegistry     = "external_registry"
	FieldLightweightInstaller = "lightweight_installer"
	FieldLocalOS              = "local_os"
	FieldKubeconfig           = "kubeconfig"
	FieldInstallRoot          = "install_root"
	FieldBundleDir            = "bundle_dir"
)

// OperationConfig is a named, ordered bundle of fields. It is built at command
// entry, mutated by the orchestrator, checks and prompts, and frozen into
// Values before any step runs.
type OperationConfig struct {
	kind    Kind
	entries []Entry
	index   map[string]Entry

	InteractiveMode      *Field[bool]
	InternetAccess       *Field[bool]
	DataFolder           *Field[string]
	ImageRegistry        *Field[string]
	ExternalRegistry     *Field[string]
	LightweightInstaller *Field[bool]
	LocalOS              *Field[string]
	Kubeconfig           *Field[string]
	InstallRoot          *Field[string]
	BundleDir            *Field[string]
}

func newOperationConfig(kind Kind) *OperationConfig {
	c := &OperationConfig{
		kind:  kind,
		index: make(map[string]Entry),
	}
	c.InteractiveMode = addField(c, NewField(FieldInteractiveMode,
		Default(false), Derived[bool]()))
	c.InternetAccess = addField(c, NewField(FieldInternetAccess,
		Default(true), Derived[bool]()))
	c.DataFolder = addField(c, NewField(FieldDataFolder, Default(""),
		Describe[string]("Absolute path of the platform data folder")))
	c.ImageRegistry = addField(c, registryField(FieldImageRegistry, EnvPlatformRegistry,
		"Image registry address", false))
	c.ExternalRegistry = addField(c, registryField(FieldExternalRegistry, EnvExternalRegistry,
		"External image registry address", false))
	c.LightweightInstaller = addField(c, NewField(FieldLightweightInstaller,
		Default(false), Describe[bool]("Pull charts and images from remote registries?")))
	c.LocalOS = addField(c, NewField(FieldLocalOS, Default(""), Derived[string]()))
	c.Kubeconfig = addField(c, NewField(FieldKubeconfig,
		Default(defaults.K3sKubeconfigPath), Derived[string]()))
	c.InstallRoot = addField(c, NewField(FieldInstallRoot,
		Default(defaults.InstallRoot), Derived[string](),
		Validate(func(p string) error { return validator.DataFolder(p, false) })))
	c.BundleDir = addField(c, NewField(FieldBundleDir,
		Default(executableDir()), Derived[string]()))
	return c
}

func addField[T any](c *OperationConfig, f *Field[T]) *Field[T] {
	c.entries = append(c.entries, f)
	c.index[f.Name()] = f
	return f
}

// Kind returns the operation kind.
func (c *OperationConfig) Kind() Kind { return c.kind }

// Entries returns the fields in declaration order.
func (c *OperationConfig) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Lookup returns the field named name.
func (c *OperationConfig) Lookup(name string) (Entry, bool) {
	e, ok := c.index[name]
	return e, ok
}

// Missing lists required fields that have neither a value nor a default.
func (c *OperationConfig) Missing() []string {
	var out []string
	for _, e := range c.entries {
		if _, ok := e.Any(); !ok && e.Required() {
			out = append(out, e.Name())
		}
	}
	return out
}

// Complete returns a MISSING_REQUIRED error listing every unset required field.
func (c *OperationConfig) Complete() error {
	if missing := c.Missing(); len(missing) > 0 {
		return errors.NewWithContext(errors.ErrCodeMissingRequired,
			fmt.Sprintf("missing required configuration: %v", missing),
			map[string]any{"operation": c.kind.String()})
	}
	return nil
}

// IsLocal reports whether the installer manages the node it runs on.
// Remote execution is not supported, so this is always true today.
func (c *OperationConfig) IsLocal() bool { return true }

func (c *OperationConfig) baseValues() Values {
	return Values{
		Kind:                 c.kind,
		InteractiveMode:      c.InteractiveMode.Value(),
		InternetAccess:       c.InternetAccess.Value(),
		DataFolder:           c.DataFolder.Value(),
		ImageRegistry:        c.ImageRegistry.Value(),
		ExternalRegistry:     c.ExternalRegistry.Value(),
		LightweightInstaller: c.LightweightInstaller.Value(),
		LocalOS:              c.LocalOS.Value(),
		Kubeconfig:           c.Kubeconfig.Value(),
		InstallRoot:          c.InstallRoot.Value(),
		BundleDir:            c.BundleDir.Value(),
	}
}

// registryField builds a registry address field defaulting to the value of env.
func registryField(name, env, description string, required bool) *Field[string] {
	opts := []FieldOption[string]{Describe[string](description), Validate(registryAddress)}
	if required {
		opts = append(opts, Required[string]())
	}
	if v := os.Getenv(env); v != "" || !required {
		opts = append(opts, Default(v))
	}
	return NewField(name, opts...)
}

func registryAddress(s string) error {
	if s == "" {
		return nil
	}
	return validator.RegistryAddress(s)
}

func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
