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

package steps

// User-facing texts printed by steps.
const (
	MsgInstallK3s           = "Installing k3s..."
	MsgCreatePlatformDir    = "Creating platform directory..."
	MsgCopyCharts           = "Copying platform charts..."
	MsgExtractRegistryData  = "Extracting registry data..."
	MsgLoadImages           = "Loading container images..."
	MsgDeployManifests      = "Deploying initial manifests..."
	MsgDeployChart          = "Deploying %s..."
	MsgRecordVersion        = "Recording platform version..."
	MsgUninstallChart       = "Removing %s..."
	MsgDeletePlatform       = "Deleting platform namespace..."
	MsgDeleteData           = "Deleting platform data..."
	MsgUninstallK3s         = "Uninstalling k3s..."
	MsgRemovePlatformDir    = "Removing platform directory..."
	SkipLightweight         = "lightweight installer"
	SkipK3sPresent          = "k3s already installed"
	SkipK3sNotManaged       = "k3s not installed by the installer"
	SkipKeepData            = "data kept"
	SkipNoDataFolder        = "no data folder configured"
	WarnStorageRetention    = "Bucket retention could not be configured: %v"
	WarnPlatformDirNotEmpty = "Platform directory %s could not be removed: %v"
)
