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

// SMTPValues is the frozen mail server configuration.
type SMTPValues struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Values is the read-only snapshot of an OperationConfig handed to steps.
// Steps read every input they need from it at entry and never write back.
type Values struct {
	Kind                 Kind
	InteractiveMode      bool
	InternetAccess       bool
	DataFolder           string
	ImageRegistry        string
	ExternalRegistry     string
	LightweightInstaller bool
	LocalOS              string
	Kubeconfig           string
	InstallRoot          string
	BundleDir            string

	AdminEmail     string
	AdminPassword  string
	TelemetryStack bool
	Domain         string
	SMTP           SMTPValues

	ProductVersion string
	ProductBuild   string
	CurrentVersion string
	CurrentBuild   string

	DeleteData bool
}
