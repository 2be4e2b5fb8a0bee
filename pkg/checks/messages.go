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

package checks

// User-facing texts printed by checks. UI tests match on these strings.
const (
	MsgCheckingUser          = "Checking user..."
	MsgCheckingOS            = "Checking operating system..."
	MsgCheckingPorts         = "Checking ports availability..."
	MsgCheckingInternet      = "Checking internet connection..."
	MsgCheckingDNS           = "Checking DNS resolution..."
	MsgCheckingTools         = "Checking required tools..."
	MsgCheckingK3sInstalled  = "Checking k3s installation..."
	MsgCheckingK3sService    = "Checking k3s service..."
	MsgCheckingSELinux       = "Checking SELinux status..."
	MsgCheckingK3sNotPresent = "Checking for an existing k3s installation..."

	ErrNotRoot             = "The installer must be run as root (current uid: %d)."
	ErrUnsupportedOS       = "Unsupported operating system: %s. Supported systems are Ubuntu 20.04, 22.04, 24.04, 25.04 and RHEL 9."
	ErrOSReleaseUnreadable = "Cannot determine the operating system: %v"
	ErrPortsBusy           = "Required ports are in use: %s. Free them and run the installer again."
	ErrPortProbe           = "Port probe interrupted: %v"
	ErrNoInternet          = "No internet connection: %v"
	ErrDNSFailed           = "Cannot resolve %s: %v"
	ErrDNSNoRecord         = "No A record found for %s."
	ErrCurlMissing         = "curl is not installed. Install it with the system package manager."
	ErrCurlSnap            = "curl is installed from snap. Remove it with 'snap remove curl' and install it with the system package manager."
	ErrK3sMissing          = "k3s installation not found: %s does not exist."
	ErrK3sServiceInactive  = "k3s service is %s."
	ErrK3sServiceUnknown   = "Cannot read k3s service state: %v"
	ErrSELinuxFailed       = "sestatus failed: %v"
	ErrK3sAlreadyInstalled = "A k3s installation not managed by the installer exists (%s). Uninstall it before installing the platform."

	SkipOSCheckDisabled = "operating system check disabled by %s"
	SkipNoInternet      = "no internet access"
	IgnoreNotRHEL       = "SELinux check applies to RHEL only"
)
