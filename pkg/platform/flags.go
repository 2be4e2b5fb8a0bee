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

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/impt-platform/installer/pkg/defaults"
)

// Feature flag names.
const (
	FlagAmbientMesh         = "FEATURE_FLAG_AMBIENT_MESH"
	FlagOfflineInstallation = "FEATURE_FLAG_OFFLINE_INSTALLATION"
	FlagSeaweedFSTTL        = "FEATURE_FLAG_SEAWEEDFS_TTL"
	FlagPinImages           = "FEATURE_FLAG_PIN_IMAGES"
)

// DefaultFlags are the values used when a flag is not set in the
// environment.
var DefaultFlags = map[string]bool{
	FlagAmbientMesh:  false,
	FlagSeaweedFSTTL: true,
	FlagPinImages:    true,
}

// ParseFlag parses a feature flag value.
func ParseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid truth value %q", value)
}

// FeatureFlag reads one flag from getenv. An unset flag is false.
func FeatureFlag(getenv func(string) string, name string) (bool, error) {
	v := getenv(name)
	if v == "" {
		return false, nil
	}
	enabled, err := ParseFlag(v)
	if err != nil {
		return false, fmt.Errorf("feature flag %s: %w", name, err)
	}
	return enabled, nil
}

// Flags is a resolved set of feature flags.
type Flags map[string]bool

// Enabled reports whether name is on.
func (f Flags) Enabled(name string) bool { return f[name] }

// Names returns the flag names in sorted order.
func (f Flags) Names() []string {
	names := make([]string, 0, len(f))
	for n := range f {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TemplateData exposes the flags to values templates keyed by name.
func (f Flags) TemplateData() map[string]any {
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// LoadFlags merges DefaultFlags, the environment and overrides, in that
// order. FlagOfflineInstallation is derived from a non-empty tools directory
// in bundleDir unless set explicitly.
func LoadFlags(getenv func(string) string, overrides map[string]string, bundleDir string) (Flags, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	flags := make(Flags, len(DefaultFlags)+1)
	for k, v := range DefaultFlags {
		flags[k] = v
	}
	flags[FlagOfflineInstallation] = dirNotEmpty(filepath.Join(bundleDir, defaults.ToolsDirName))

	names := make([]string, 0, len(flags))
	for k := range flags {
		names = append(names, k)
	}
	for k := range overrides {
		if _, ok := flags[k]; !ok {
			names = append(names, k)
		}
	}

	for _, name := range names {
		raw := getenv(name)
		if o, ok := overrides[name]; ok {
			raw = o
		}
		if raw == "" {
			continue
		}
		v, err := ParseFlag(raw)
		if err != nil {
			return nil, fmt.Errorf("feature flag %s: %w", name, err)
		}
		flags[name] = v
	}
	return flags, nil
}

func dirNotEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}
