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

// User-facing texts. Wording is stable; UI tests match on it.
const (
	MsgAborted            = "Aborted."
	MsgRunningChecks      = "Checking the environment"
	MsgInstalling         = "Installing the platform"
	MsgUpgrading          = "Upgrading the platform"
	MsgUninstalling       = "Uninstalling the platform"
	MsgInstallDone        = "Platform %s installed."
	MsgUpgradeDone        = "Platform upgraded from %s to %s."
	MsgUninstallDone      = "Platform uninstalled."
	MsgUpToDate           = "Platform %s is already installed, nothing to upgrade."
	MsgConfirmUninstall   = "Remove the platform from this node?"
	MsgConfirmDeleteData  = "Also delete all platform data in %s?"
	MsgFailed             = "%s failed: %s"
	MsgSeeLog             = "See %s for details."
	MsgVersion            = "Product version: %s\nBuild version: %s\n"
	MsgPasswordChanged    = "Password of %s changed."
	MsgPasswordPolicy     = "Password does not meet the policy: %s"
	MsgInvalidUsername    = "Invalid username: %s"
	ErrDowngradeRefused   = "installed build %s is newer than %s; downgrades are not supported"
	ErrUnknownCommand     = "unknown command %q"
	ErrInvalidFeatureFlag = "invalid feature flag %q, expected NAME=VALUE"
	ErrDataFolderUnknown  = "--delete-data needs --data-folder or the data_folder recorded in %s"
)
