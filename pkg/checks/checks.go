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

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/impt-platform/installer/pkg/command"
	"github.com/impt-platform/installer/pkg/config"
	"github.com/impt-platform/installer/pkg/defaults"
)

// EnvCheckOS disables the operating system check when set to "false".
const EnvCheckOS = "PLATFORM_CHECK_OS"

// Operating system families recorded in the local_os field.
const (
	OSUbuntu = "ubuntu"
	OSRHEL   = "rhel"
)

// maxPortProbes bounds concurrent port dials.
const maxPortProbes = 4

var supportedUbuntu = map[string]bool{
	"20.04": true,
	"22.04": true,
	"24.04": true,
	"25.04": true,
}

// Resolver resolves host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Environment carries the configuration and system seams used by checks.
type Environment struct {
	Config *config.OperationConfig
	Runner command.Runner
	HTTP   *http.Client
	Lookup Resolver
	Units  UnitStater

	Getuid   func() int
	Getenv   func(string) string
	LookPath func(string) (string, error)

	OSReleasePath  string
	ProbeHost      string
	PortList       []int
	InternetURL    string
	DNSHost        string
	K3sMarkerPath  string
	KubeconfigPath string
}

// NewEnvironment returns an Environment probing the real host.
func NewEnvironment(cfg *config.OperationConfig, runner command.Runner) *Environment {
	return &Environment{
		Config:         cfg,
		Runner:         runner,
		HTTP:           &http.Client{Timeout: defaults.InternetProbeTimeout},
		Lookup:         net.DefaultResolver,
		Units:          SystemdUnits{},
		Getuid:         os.Getuid,
		Getenv:         os.Getenv,
		LookPath:       exec.LookPath,
		OSReleasePath:  defaults.OSReleasePath,
		ProbeHost:      defaults.LocalProbeHost,
		PortList:       defaults.RequiredPorts,
		InternetURL:    defaults.InternetProbeURL,
		DNSHost:        defaults.DNSProbeHost,
		K3sMarkerPath:  defaults.K3sMarkerPath,
		KubeconfigPath: cfg.Kubeconfig.Value(),
	}
}

// User requires the real user id to be 0.
func (e *Environment) User(_ context.Context) Outcome {
	if uid := e.Getuid(); uid != 0 {
		return Error(ErrNotRoot, uid)
	}
	return Pass()
}

// OS accepts the supported Ubuntu and RHEL releases and records the family
// in the configuration. Other systems produce a warning.
func (e *Environment) OS(_ context.Context) Outcome {
	if v := e.Getenv(EnvCheckOS); strings.EqualFold(strings.TrimSpace(v), "false") {
		return Skipped(SkipOSCheckDisabled, EnvCheckOS)
	}

	release, err := parseOSRelease(e.OSReleasePath)
	if err != nil {
		return Warning(ErrOSReleaseUnreadable, err)
	}
	id := strings.ToLower(release["ID"])
	version := release["VERSION_ID"]

	family := ""
	switch {
	case id == OSUbuntu && supportedUbuntu[version]:
		family = OSUbuntu
	case id == OSRHEL && majorVersion(version) == "9":
		family = OSRHEL
	}
	if family == "" {
		name := strings.TrimSpace(cases.Title(language.English).String(id) + " " + version)
		return Warning(ErrUnsupportedOS, name)
	}

	if err := e.Config.LocalOS.Set(family); err != nil {
		return Error("%v", err)
	}
	slog.Debug("detected operating system", "family", family, "version", version)
	return Pass()
}

// Ports requires every port in PortList to be free on ProbeHost. A port is
// considered busy when a TCP connection to it succeeds.
func (e *Environment) Ports(ctx context.Context) Outcome {
	busy := make([]bool, len(e.PortList))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPortProbes)
	for i, port := range e.PortList {
		g.Go(func() error {
			inUse, err := portInUse(gctx, e.ProbeHost, port)
			busy[i] = inUse
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Error(ErrPortProbe, err)
	}

	var taken []string
	for i, port := range e.PortList {
		if busy[i] {
			taken = append(taken, strconv.Itoa(port))
		}
	}
	if len(taken) > 0 {
		return Error(ErrPortsBusy, strings.Join(taken, ", "))
	}
	return Pass()
}

// portInUse dials host:port. A refused or timed out connection means the
// port is free; an error is returned only when ctx ends first.
func portInUse(ctx context.Context, host string, port int) (bool, error) {
	d := net.Dialer{Timeout: defaults.SocketProbeTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, nil
	}
	_ = conn.Close()
	return true, nil
}

// Internet sends a HEAD request to InternetURL. On failure the run is marked
// as offline and the check is skipped.
func (e *Environment) Internet(ctx context.Context) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, e.InternetURL, nil)
	if err != nil {
		return Error("%v", err)
	}
	resp, err := e.HTTP.Do(req)
	if err != nil {
		slog.Info("internet connection not available", "url", e.InternetURL, "error", err)
		if setErr := e.Config.InternetAccess.Set(false); setErr != nil {
			return Error("%v", setErr)
		}
		return Skipped(ErrNoInternet, err)
	}
	_ = resp.Body.Close()
	return Pass()
}

// DNS resolves DNSHost to an IPv4 address. It is skipped without internet
// access.
func (e *Environment) DNS(ctx context.Context) Outcome {
	if !e.Config.InternetAccess.Value() {
		return Skipped(SkipNoInternet)
	}
	ips, err := e.Lookup.LookupIP(ctx, "ip4", e.DNSHost)
	if err != nil {
		return Error(ErrDNSFailed, e.DNSHost, err)
	}
	if len(ips) == 0 {
		return Error(ErrDNSNoRecord, e.DNSHost)
	}
	return Pass()
}

// Tools requires curl to be installed from the system package manager.
func (e *Environment) Tools(ctx context.Context) Outcome {
	if _, err := e.LookPath("curl"); err != nil {
		return Error(ErrCurlMissing)
	}
	res, err := e.Runner.Run(ctx, "snap", "list")
	if err != nil {
		// no snap on this host
		return Pass()
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == "curl" {
			return Error(ErrCurlSnap)
		}
	}
	return Pass()
}

// K3sInstalled requires the installer's k3s marker and kubeconfig.
func (e *Environment) K3sInstalled(_ context.Context) Outcome {
	for _, path := range []string{e.K3sMarkerPath, e.KubeconfigPath} {
		if _, err := os.Stat(path); err != nil {
			return Error(ErrK3sMissing, path)
		}
	}
	return Pass()
}

// K3sNotForeign fails when a k3s kubeconfig exists without the installer's
// marker.
func (e *Environment) K3sNotForeign(_ context.Context) Outcome {
	if _, err := os.Stat(e.KubeconfigPath); err != nil {
		return Pass()
	}
	if _, err := os.Stat(e.K3sMarkerPath); err != nil {
		return Error(ErrK3sAlreadyInstalled, e.KubeconfigPath)
	}
	return Pass()
}

// K3sService warns when the k3s systemd unit is not active.
func (e *Environment) K3sService(ctx context.Context) Outcome {
	state, err := e.Units.ActiveState(ctx, K3sUnit)
	if err != nil {
		return Warning(ErrK3sServiceUnknown, err)
	}
	if state != "active" {
		return Warning(ErrK3sServiceInactive, state)
	}
	return Pass()
}

// SELinux requires sestatus to succeed on RHEL.
func (e *Environment) SELinux(ctx context.Context) Outcome {
	if e.Config.LocalOS.Value() != OSRHEL {
		return Ignored(IgnoreNotRHEL)
	}
	if _, err := e.Runner.Run(ctx, "sestatus"); err != nil {
		return Error(ErrSELinuxFailed, err)
	}
	return Pass()
}

func majorVersion(v string) string {
	major, _, _ := strings.Cut(v, ".")
	return major
}

// InstallChecks returns the checks run before an installation.
func (e *Environment) InstallChecks() []Item {
	return []Item{
		{"user", MsgCheckingUser, e.User},
		{"os", MsgCheckingOS, e.OS},
		{"k3s_foreign", MsgCheckingK3sNotPresent, e.K3sNotForeign},
		{"ports", MsgCheckingPorts, e.Ports},
		{"internet", MsgCheckingInternet, e.Internet},
		{"dns", MsgCheckingDNS, e.DNS},
		{"tools", MsgCheckingTools, e.Tools},
		{"selinux", MsgCheckingSELinux, e.SELinux},
	}
}

// UpgradeChecks returns the checks run before an upgrade.
func (e *Environment) UpgradeChecks() []Item {
	return []Item{
		{"user", MsgCheckingUser, e.User},
		{"os", MsgCheckingOS, e.OS},
		{"k3s_installed", MsgCheckingK3sInstalled, e.K3sInstalled},
		{"k3s_service", MsgCheckingK3sService, e.K3sService},
		{"internet", MsgCheckingInternet, e.Internet},
		{"dns", MsgCheckingDNS, e.DNS},
		{"tools", MsgCheckingTools, e.Tools},
		{"selinux", MsgCheckingSELinux, e.SELinux},
	}
}

// UninstallChecks returns the checks run before an uninstallation.
func (e *Environment) UninstallChecks() []Item {
	return []Item{
		{"user", MsgCheckingUser, e.User},
		{"k3s_installed", MsgCheckingK3sInstalled, e.K3sInstalled},
	}
}

// ChecksFor returns the check list of an operation kind.
func (e *Environment) ChecksFor(kind config.Kind) ([]Item, error) {
	switch kind {
	case config.KindInstall:
		return e.InstallChecks(), nil
	case config.KindUpgrade:
		return e.UpgradeChecks(), nil
	case config.KindUninstall:
		return e.UninstallChecks(), nil
	}
	return nil, fmt.Errorf("no checks defined for operation %q", kind)
}

