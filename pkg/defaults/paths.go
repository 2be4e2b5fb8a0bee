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

package defaults

// Well-known filesystem locations.
const (
	// InstallLogFilePath is the append-only install log.
	InstallLogFilePath = "/var/log/platform-installer/install.log"

	// K3sKubeconfigPath is the kubeconfig written by k3s.
	K3sKubeconfigPath = "/etc/rancher/k3s/k3s.yaml"

	// K3sMarkerPath marks a k3s installed by this installer.
	K3sMarkerPath = "/etc/rancher/k3s/impt_k3s"

	// K3sUninstallScript removes k3s from the node.
	K3sUninstallScript = "/usr/local/bin/k3s-uninstall.sh"

	// OSReleasePath is read by the OS check.
	OSReleasePath = "/etc/os-release"

	// InstallRoot holds rendered values files, charts, and the config dump.
	InstallRoot = "/opt/impt"

	// VersionManifestName is the manifest file shipped next to the installer.
	VersionManifestName = "version.yaml"

	// ToolsDirName holds offline tooling; its presence implies offline installation.
	ToolsDirName = "tools"

	// ChartsDirName holds chart directories inside the bundle and install root.
	ChartsDirName = "charts"

	// ImagesDirName holds container image tarballs inside the bundle.
	ImagesDirName = "images"

	// RegistryArchiveName is the packed registry data inside the bundle.
	RegistryArchiveName = "registry.tar"

	// MetricsFileName is the node-exporter textfile written after each run.
	MetricsFileName = "metrics/installer.prom"

	// ConfigDumpName is the resolved configuration written after install.
	ConfigDumpName = "config.yaml"
)

// Kubernetes object names shared by steps.
const (
	// PlatformNamespace hosts the platform services.
	PlatformNamespace = "impt"

	// VersionsConfigMapSuffix is appended to the platform namespace to name the versions configmap.
	VersionsConfigMapSuffix = "-versions"

	// PlatformVersionKey holds the deployed platform version in the versions configmap.
	PlatformVersionKey = "platformVersion"

	// ProductBuildKey holds the deployed product build in the versions configmap.
	ProductBuildKey = "productBuild"

	// UnknownVersion is reported when the live version cannot be read.
	UnknownVersion = "unknown version"

	// ControlPlaneLabel selects the control-plane node.
	ControlPlaneLabel = "node-role.kubernetes.io/control-plane=true"
)

// Network endpoints probed by pre-flight checks.
const (
	// InternetProbeURL is requested with HEAD by the internet check.
	InternetProbeURL = "http://ghcr.io"

	// DNSProbeHost is resolved by the DNS check.
	DNSProbeHost = "example.com"

	// LocalProbeHost is where port availability is checked.
	LocalProbeHost = "127.0.0.1"
)

// RequiredPorts must be free on the node before install.
var RequiredPorts = []int{80, 443, 30000}
