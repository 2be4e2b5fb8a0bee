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
	"context"

	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/validator"
)

// Installation-only field names.
const (
	FieldAdminEmail      = "admin_email"
	FieldAdminPassword   = "admin_password"
	FieldTelemetryStack  = "enable_telemetry_stack"
	FieldDomain          = "domain"
	FieldSMTPHost        = "smtp_host"
	FieldSMTPPort        = "smtp_port"
	FieldSMTPUser        = "smtp_user"
	FieldSMTPPassword    = "smtp_password"
	FieldProductVersion  = "product_version"
	FieldProductBuild    = "product_build"
	FieldCurrentVersion  = "current_platform_version"
	FieldCurrentBuild    = "current_product_build"
	FieldDeleteData      = "delete_data"
	defaultSMTPPort      = 587
	defaultDataFolderDoc = "Absolute path to an empty folder for platform data"
)

// InstallationConfig drives a fresh installation.
type InstallationConfig struct {
	*OperationConfig

	AdminEmail     *Field[string]
	AdminPassword  *Field[string]
	TelemetryStack *Field[bool]
	Domain         *Field[string]
	SMTPHost       *Field[string]
	SMTPPort       *Field[int]
	SMTPUser       *Field[string]
	SMTPPassword   *Field[string]
	ProductVersion *Field[string]
	ProductBuild   *Field[string]
}

// NewInstallationConfig builds an empty installation configuration.
func NewInstallationConfig() *InstallationConfig {
	c := &InstallationConfig{}
	base := newOperationConfig(KindInstall)
	c.OperationConfig = base

	c.DataFolder = replaceField(base, NewField(FieldDataFolder, Required[string](),
		Describe[string](defaultDataFolderDoc),
		Validate(func(p string) error { return validator.DataFolder(p, base.IsLocal()) })))

	c.AdminEmail = addField(base, NewField(FieldAdminEmail, Required[string](),
		Describe[string]("Platform administrator email"), Validate(validator.Email)))
	c.AdminPassword = addField(base, NewField(FieldAdminPassword, Required[string](), Secret[string](),
		Describe[string]("Platform administrator password"), Validate(validator.Password)))
	c.TelemetryStack = addField(base, NewField(FieldTelemetryStack, Default(false),
		Describe[bool]("Enable the telemetry stack?")))
	c.Domain = addField(base, NewField(FieldDomain, Default(""),
		Describe[string]("Domain name of the platform (optional)"), Validate(validator.Domain)))
	c.SMTPHost = addField(base, NewField(FieldSMTPHost, Default(""),
		Describe[string]("SMTP server host (optional)"), Validate(validator.Domain)))
	smtpGiven := func() bool { return c.SMTPHost.Value() != "" }
	c.SMTPPort = addField(base, NewField(FieldSMTPPort, Default(defaultSMTPPort),
		Describe[int]("SMTP server port"), Validate(port), PromptIf[int](smtpGiven)))
	c.SMTPUser = addField(base, NewField(FieldSMTPUser, Default(""),
		Describe[string]("SMTP user"), PromptIf[string](smtpGiven)))
	c.SMTPPassword = addField(base, NewField(FieldSMTPPassword, Default(""), Secret[string](),
		Describe[string]("SMTP password"), PromptIf[string](smtpGiven)))
	c.ProductVersion = addField(base, NewField(FieldProductVersion, Required[string](), Derived[string]()))
	c.ProductBuild = addField(base, NewField(FieldProductBuild, Required[string](), Derived[string]()))

	c.ImageRegistry = replaceField(base, registryField(FieldImageRegistry, EnvPlatformRegistry,
		"Image registry address", true))
	return c
}

// ValidateSMTP probes the configured mail server when one is set.
func (c *InstallationConfig) ValidateSMTP(ctx context.Context) error {
	host := c.SMTPHost.Value()
	if host == "" {
		return nil
	}
	err := validator.SMTP(ctx, validator.SMTPParams{
		Host:     host,
		Port:     c.SMTPPort.Value(),
		Username: c.SMTPUser.Value(),
		Password: c.SMTPPassword.Value(),
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeValidation, "SMTP server validation failed", err)
	}
	return nil
}

// Values freezes the configuration for step execution.
func (c *InstallationConfig) Values() (Values, error) {
	if err := c.Complete(); err != nil {
		return Values{}, err
	}
	v := c.baseValues()
	v.AdminEmail = c.AdminEmail.Value()
	v.AdminPassword = c.AdminPassword.Value()
	v.TelemetryStack = c.TelemetryStack.Value()
	v.Domain = c.Domain.Value()
	v.SMTP = SMTPValues{
		Host:     c.SMTPHost.Value(),
		Port:     c.SMTPPort.Value(),
		User:     c.SMTPUser.Value(),
		Password: c.SMTPPassword.Value(),
	}
	v.ProductVersion = c.ProductVersion.Value()
	v.ProductBuild = c.ProductBuild.Value()
	return v, nil
}

// UpgradeConfig drives an upgrade of an existing platform.
type UpgradeConfig struct {
	*OperationConfig

	ProductVersion *Field[string]
	ProductBuild   *Field[string]
	CurrentVersion *Field[string]
	CurrentBuild   *Field[string]
}

// NewUpgradeConfig builds an empty upgrade configuration.
func NewUpgradeConfig() *UpgradeConfig {
	c := &UpgradeConfig{}
	base := newOperationConfig(KindUpgrade)
	c.OperationConfig = base

	c.DataFolder = replaceField(base, NewField(FieldDataFolder, Required[string](),
		Describe[string]("Absolute path of the data folder used by the existing installation"),
		Validate(func(p string) error { return validator.DataFolder(p, false) })))
	c.ImageRegistry = replaceField(base, registryField(FieldImageRegistry, EnvPlatformRegistry,
		"Image registry address", true))
	c.ProductVersion = addField(base, NewField(FieldProductVersion, Required[string](), Derived[string]()))
	c.ProductBuild = addField(base, NewField(FieldProductBuild, Required[string](), Derived[string]()))
	c.CurrentVersion = addField(base, NewField(FieldCurrentVersion, Required[string](), Derived[string]()))
	c.CurrentBuild = addField(base, NewField(FieldCurrentBuild, Default(""), Derived[string]()))
	return c
}

// Values freezes the configuration for step execution.
func (c *UpgradeConfig) Values() (Values, error) {
	if err := c.Complete(); err != nil {
		return Values{}, err
	}
	v := c.baseValues()
	v.ProductVersion = c.ProductVersion.Value()
	v.ProductBuild = c.ProductBuild.Value()
	v.CurrentVersion = c.CurrentVersion.Value()
	v.CurrentBuild = c.CurrentBuild.Value()
	return v, nil
}

// UninstallationConfig drives removal of the platform.
type UninstallationConfig struct {
	*OperationConfig

	DeleteData *Field[bool]
}

// NewUninstallationConfig builds an empty uninstallation configuration.
func NewUninstallationConfig() *UninstallationConfig {
	c := &UninstallationConfig{}
	base := newOperationConfig(KindUninstall)
	c.OperationConfig = base

	c.DataFolder = replaceField(base, NewField(FieldDataFolder, Default(""),
		Describe[string]("Absolute path of the data folder to remove"),
		Validate(func(p string) error {
			if p == "" {
				return nil
			}
			return validator.DataFolder(p, false)
		})))
	c.DeleteData = addField(base, NewField(FieldDeleteData, Default(false),
		Describe[bool]("Delete platform data?")))
	return c
}

// Values freezes the configuration for step execution.
func (c *UninstallationConfig) Values() (Values, error) {
	if err := c.Complete(); err != nil {
		return Values{}, err
	}
	v := c.baseValues()
	v.DeleteData = c.DeleteData.Value()
	return v, nil
}

// replaceField swaps the field registered under f's name, keeping its position.
func replaceField[T any](c *OperationConfig, f *Field[T]) *Field[T] {
	for i, e := range c.entries {
		if e.Name() == f.Name() {
			c.entries[i] = f
			c.index[f.Name()] = f
			return f
		}
	}
	return addField(c, f)
}

func port(n int) error {
	if n < 1 || n > 65535 {
		return &validator.ValidationError{Message: "port must be between 1 and 65535"}
	}
	return nil
}
