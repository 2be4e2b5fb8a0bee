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
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
)

// VersionInfo is the version manifest shipped with the installer.
type VersionInfo struct {
	ProductVersion string `yaml:"product_version"`
	ProductBuild   string `yaml:"product_build"`
}

// ManifestPath returns the version manifest location inside bundleDir.
func ManifestPath(bundleDir string) string {
	return filepath.Join(bundleDir, defaults.VersionManifestName)
}

// LoadVersionInfo parses the version manifest at path.
func LoadVersionInfo(path string) (VersionInfo, error) {
	var info VersionInfo
	data, err := os.ReadFile(path)
	if err != nil {
		return info, errors.Wrap(errors.ErrCodeConfiguration,
			fmt.Sprintf("failed to read version manifest %s", path), err)
	}
	if err := yaml.Unmarshal(data, &info); err != nil {
		return info, errors.Wrap(errors.ErrCodeConfiguration,
			fmt.Sprintf("failed to parse version manifest %s", path), err)
	}
	if info.ProductVersion == "" || info.ProductBuild == "" {
		return info, errors.NewWithContext(errors.ErrCodeConfiguration,
			"version manifest must define product_version and product_build",
			map[string]any{"path": path})
	}
	return info, nil
}

// TargetPlatformVersion returns product_version from the manifest at path.
func TargetPlatformVersion(path string) (string, error) {
	info, err := LoadVersionInfo(path)
	return info.ProductVersion, err
}

// TargetProductBuild returns product_build from the manifest at path.
func TargetProductBuild(path string) (string, error) {
	info, err := LoadVersionInfo(path)
	return info.ProductBuild, err
}

// VersionsConfigMap returns the name of the configmap holding the deployed
// versions for namespace.
func VersionsConfigMap(namespace string) string {
	return namespace + defaults.VersionsConfigMapSuffix
}

// CurrentPlatformVersion reads the deployed platform version from the
// cluster. Any API error yields defaults.UnknownVersion.
func CurrentPlatformVersion(ctx context.Context, cs kubernetes.Interface, namespace string) string {
	return currentValue(ctx, cs, namespace, defaults.PlatformVersionKey)
}

// CurrentProductBuild reads the deployed product build from the cluster.
// Any API error yields defaults.UnknownVersion.
func CurrentProductBuild(ctx context.Context, cs kubernetes.Interface, namespace string) string {
	return currentValue(ctx, cs, namespace, defaults.ProductBuildKey)
}

func currentValue(ctx context.Context, cs kubernetes.Interface, namespace, key string) string {
	name := VersionsConfigMap(namespace)
	cm, err := cs.CoreV1().ConfigMaps(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		slog.Warn("failed to read deployed version", "configmap", name, "key", key, "error", err)
		return defaults.UnknownVersion
	}
	v := strings.TrimSpace(cm.Data[key])
	if v == "" {
		return defaults.UnknownVersion
	}
	return v
}

// CompareBuilds compares two product builds and returns -1, 0 or 1.
// Builds are semantic versions; two prereleases of the same release that
// both end in a numeric build stamp ("1.2.0-rc10-20220712093000") are
// ordered by the stamp, so rc10 follows rc2. Other prereleases compare as
// semver text.
func CompareBuilds(current, target string) (int, error) {
	c, err := semver.NewVersion(current)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfiguration,
			fmt.Sprintf("invalid current build %q", current), err)
	}
	t, err := semver.NewVersion(target)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeConfiguration,
			fmt.Sprintf("invalid target build %q", target), err)
	}
	if sameRelease(c, t) {
		cs, cok := buildStamp(c)
		ts, tok := buildStamp(t)
		if cok && tok && cs != ts {
			return cmp.Compare(cs, ts), nil
		}
	}
	return c.Compare(t), nil
}

func sameRelease(a, b *semver.Version) bool {
	return a.Major() == b.Major() && a.Minor() == b.Minor() && a.Patch() == b.Patch()
}

// buildStamp returns the numeric suffix after the last dash of the
// prerelease.
func buildStamp(v *semver.Version) (uint64, bool) {
	pre := v.Prerelease()
	i := strings.LastIndexByte(pre, '-')
	if i < 0 {
		return 0, false
	}
	stamp, err := strconv.ParseUint(pre[i+1:], 10, 64)
	return stamp, err == nil
}
