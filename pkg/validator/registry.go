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

package validator

import (
	"strings"

	"github.com/distribution/reference"
)

// RegistryAddress validates an image registry host with optional port and
// repository prefix, e.g. "registry.local:5000" or "ghcr.io/org".
func RegistryAddress(value string) error {
	addr := strings.TrimSuffix(strings.TrimSpace(value), "/")
	if addr == "" {
		return invalid("registry address must not be empty")
	}
	if strings.Contains(addr, "://") {
		return invalid("registry address %q must not include a scheme", value)
	}

	named, err := reference.ParseNormalizedNamed(addr + "/probe")
	if err != nil {
		return invalid("%q is not a valid registry address: %v", value, err)
	}
	host, _, _ := strings.Cut(addr, "/")
	if reference.Domain(named) != host {
		return invalid("%q does not start with a registry host", value)
	}
	return nil
}
