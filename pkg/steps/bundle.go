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

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/distribution/reference"
	"github.com/natefinch/atomic"

	"github.com/impt-platform/installer/pkg/defaults"
	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/platform"
)

const (
	k3sInstallScript = "k3s-install.sh"
	k3sOnlineInstall = "curl -sfL https://get.k3s.io | sh -"
	registryDataDir  = "registry"
	pinnedLabel      = "io.cri-containerd.pinned=pinned"
)

// PinnedImage selects image tarballs whose image must not be garbage
// collected by the runtime.
type PinnedImage struct {
	// Prefix matches the tarball file name.
	Prefix string
	// Repository is the image repository the tarball contains.
	Repository string
}

// PinnedImages lists the images pinned after import.
var PinnedImages = []PinnedImage{
	{Prefix: "registry", Repository: "registry"},
}

var tarballVersion = regexp.MustCompile(`^[a-z0-9.-]+?[_-]v?(\d+\.\d+\.\d+(?:\.\d+)?)\.tar$`)

func present(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func skipLightweight(e *Env) string {
	if e.Lightweight() {
		return SkipLightweight
	}
	return ""
}

// InstallK3s installs k3s from the bundle, or from the internet when the
// bundle carries no tooling, and writes the ownership marker.
func InstallK3s() Step {
	return Step{
		Name:    "install-k3s",
		Message: MsgInstallK3s,
		Skip: func(e *Env) string {
			if present(e.K3sMarkerPath) || present(e.Values.Kubeconfig) {
				return SkipK3sPresent
			}
			return ""
		},
		Run: func(ctx context.Context, e *Env) error {
			script := e.bundlePath(defaults.ToolsDirName, k3sInstallScript)
			var err error
			if e.Flags.Enabled(platform.FlagOfflineInstallation) && present(script) {
				_, err = e.Runner.Run(ctx, "env", "INSTALL_K3S_SKIP_DOWNLOAD=true", "sh", script)
			} else {
				_, err = e.Runner.Run(ctx, "sh", "-c", k3sOnlineInstall)
			}
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "k3s installation failed", err)
			}
			if err := os.MkdirAll(filepath.Dir(e.K3sMarkerPath), 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to create k3s marker directory", err)
			}
			return atomic.WriteFile(e.K3sMarkerPath, strings.NewReader(e.Values.ProductBuild+"\n"))
		},
	}
}

// CreatePlatformDir creates the install root.
func CreatePlatformDir() Step {
	return Step{
		Name:    "create-platform-dir",
		Message: MsgCreatePlatformDir,
		Run: func(_ context.Context, e *Env) error {
			if err := os.MkdirAll(e.installRoot(), 0o750); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to create platform directory", err)
			}
			return nil
		},
	}
}

// CopyCharts replaces the installed charts with the bundle's charts.
func CopyCharts() Step {
	return Step{
		Name:    "copy-charts",
		Message: MsgCopyCharts,
		Skip:    skipLightweight,
		Run: func(_ context.Context, e *Env) error {
			src := e.bundlePath(defaults.ChartsDirName)
			dst := e.rootPath(defaults.ChartsDirName)
			if err := os.RemoveAll(dst); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to clear installed charts", err)
			}
			if err := os.CopyFS(dst, os.DirFS(src)); err != nil {
				return errors.WrapWithContext(errors.ErrCodeInternal, "failed to copy charts", err,
					map[string]any{"source": src, "target": dst})
			}
			return nil
		},
	}
}

// ExtractRegistryData unpacks the bundled registry storage into the data
// folder.
func ExtractRegistryData() Step {
	return Step{
		Name:    "extract-registry-data",
		Message: MsgExtractRegistryData,
		Skip:    skipLightweight,
		Run: func(ctx context.Context, e *Env) error {
			archive := e.bundlePath(defaults.RegistryArchiveName)
			target := filepath.Join(e.Values.DataFolder, registryDataDir)
			fail := func(err error) error {
				return errors.WrapWithContext(errors.ErrCodeExtractRegistryData,
					"failed to extract registry data", err,
					map[string]any{"archive": archive, "target": target})
			}
			if err := os.MkdirAll(target, 0o750); err != nil {
				return fail(err)
			}
			ctx, cancel := context.WithTimeout(ctx, defaults.ExtractRegistryTimeout)
			defer cancel()
			if _, err := e.Runner.Run(ctx, "tar", "-xf", archive, "-C", target); err != nil {
				return fail(err)
			}
			return nil
		},
	}
}

// LoadImages imports every bundled image tarball into containerd and pins
// the images listed in PinnedImages.
func LoadImages() Step {
	return Step{
		Name:    "load-images",
		Message: MsgLoadImages,
		Skip:    skipLightweight,
		Run: func(ctx context.Context, e *Env) error {
			dir := e.bundlePath(defaults.ImagesDirName)
			tarballs, err := imageTarballs(dir)
			if err != nil {
				return errors.Wrap(errors.ErrCodeLoadImages, "failed to list image tarballs", err)
			}
			for _, name := range tarballs {
				if err := importImage(ctx, e, filepath.Join(dir, name)); err != nil {
					return err
				}
			}
			if !e.Flags.Enabled(platform.FlagPinImages) {
				return nil
			}
			refs, err := PinnedRefs(tarballs)
			if err != nil {
				return err
			}
			for _, ref := range refs {
				if _, err := e.Runner.Run(ctx, "k3s", "ctr", "images", "label", ref, pinnedLabel); err != nil {
					return errors.WrapWithContext(errors.ErrCodePinImageVersion,
						fmt.Sprintf("failed to pin image %s", ref), err, map[string]any{"image": ref})
				}
				slog.Info("image pinned", "image", ref)
			}
			return nil
		},
	}
}

func imageTarballs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tar") {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func importImage(ctx context.Context, e *Env, path string) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.ImageImportTimeout)
	defer cancel()
	if _, err := e.Runner.Run(ctx, "k3s", "ctr", "images", "import", path); err != nil {
		return errors.WrapWithContext(errors.ErrCodeLoadImages,
			fmt.Sprintf("failed to import %s", filepath.Base(path)), err,
			map[string]any{"tarball": path})
	}
	slog.Debug("image imported", "tarball", path)
	return nil
}

// PinnedRefs returns the fully qualified references of the images to pin.
// Every tarball selected by PinnedImages must carry a version in its file
// name; the first one that does not fails the whole list.
func PinnedRefs(tarballs []string) ([]string, error) {
	var refs []string
	for _, name := range tarballs {
		pin, ok := pinnedImageFor(name)
		if !ok {
			continue
		}
		m := tarballVersion.FindStringSubmatch(name)
		if m == nil {
			return nil, errors.NewWithContext(errors.ErrCodePinImageVersion,
				fmt.Sprintf("cannot determine image version from %s", name),
				map[string]any{"tarball": name})
		}
		named, err := reference.ParseNormalizedNamed(pin.Repository + ":" + m[1])
		if err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodePinImageVersion,
				fmt.Sprintf("invalid image reference for %s", name), err,
				map[string]any{"tarball": name})
		}
		refs = append(refs, named.String())
	}
	return refs, nil
}

func pinnedImageFor(tarball string) (PinnedImage, bool) {
	for _, p := range PinnedImages {
		if strings.HasPrefix(tarball, p.Prefix) {
			return p, true
		}
	}
	return PinnedImage{}, false
}
