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

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impt-platform/installer/pkg/errors"
	"github.com/impt-platform/installer/pkg/identity"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), append([]string{name}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersionCommand(t *testing.T) {
	dir := t.TempDir()
	manifest := "product_version: 1.2.0\nproduct_build: 1.2.0-rc1-20220630112805\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "version.yaml"), []byte(manifest), 0o644))

	code, stdout, _ := runCLI(t, "version", "--bundle-dir", dir)
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Product version: 1.2.0\nBuild version: 1.2.0-rc1-20220630112805\n", stdout)
}

func TestVersionCommand_MissingManifest(t *testing.T) {
	code, stdout, stderr := runCLI(t, "version", "--bundle-dir", t.TempDir())
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "failed to read version manifest")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"reinstall"}},
		{"unknown flag", []string{"version", "--no-such-flag"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, tt.args...)
			assert.Equal(t, ExitUsage, code)
			assert.NotEmpty(t, stderr)
		})
	}
}

type fakeDirectory struct {
	entries  []*ldap.Entry
	modified []string
	closed   bool
}

func (f *fakeDirectory) Search(*ldap.SearchRequest) (*ldap.SearchResult, error) {
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeDirectory) PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error) {
	f.modified = append(f.modified, req.UserIdentity)
	return &ldap.PasswordModifyResult{}, nil
}

func (f *fakeDirectory) Close() error {
	f.closed = true
	return nil
}

func withDirectory(t *testing.T, dir *fakeDirectory) *int {
	t.Helper()
	dials := 0
	orig := dialDirectory
	dialDirectory = func(identity.Config) (directory, error) {
		dials++
		return dir, nil
	}
	t.Cleanup(func() { dialDirectory = orig })
	return &dials
}

func TestChangePassword(t *testing.T) {
	dir := &fakeDirectory{entries: []*ldap.Entry{ldap.NewEntry("uid=a,ou=people,dc=impt,dc=local", nil)}}
	dials := withDirectory(t, dir)

	code, stdout, _ := runCLI(t, "change-password", "--username=a@b.c", "--password=Qwerty12345%")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, 1, *dials)
	assert.Equal(t, []string{"uid=a,ou=people,dc=impt,dc=local"}, dir.modified)
	assert.True(t, dir.closed)
	assert.Contains(t, stdout, "Password of a@b.c changed.")
}

func TestChangePassword_WeakPasswordIsNotSent(t *testing.T) {
	dir := &fakeDirectory{}
	dials := withDirectory(t, dir)

	code, stdout, _ := runCLI(t, "change-password", "--username=a@b.c", "--password=qwerty")
	assert.Equal(t, ExitOK, code)
	assert.Equal(t, 0, *dials)
	assert.Empty(t, dir.modified)
	assert.True(t, strings.HasPrefix(stdout, "Password does not meet the policy:"), stdout)
}

func TestChangePassword_UnknownUser(t *testing.T) {
	withDirectory(t, &fakeDirectory{})

	code, _, stderr := runCLI(t, "change-password", "--username=a@b.c", "--password=Qwerty12345%")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr, "user a@b.c not found")
}

func TestUpgradeNeeded(t *testing.T) {
	tests := []struct {
		name    string
		current string
		target  string
		want    bool
		wantErr bool
	}{
		{"newer target", "1.1.0", "1.2.0-rc1-20220630112805", true, false},
		{"same build", "1.2.0-rc1-20220630112805", "1.2.0-rc1-20220630112805", false, false},
		{"downgrade", "1.3.0", "1.2.0", false, true},
		{"unknown installed", "unknown version", "1.2.0", true, false},
		{"not semver", "nightly", "1.2.0", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := upgradeNeeded(tt.current, tt.target)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExitCode(t *testing.T) {
	stepErr := errors.WrapWithContext(errors.ErrCodeStepFailed, "step deploy-opa failed",
		errors.Wrap(errors.ErrCodeChartInstallation, "failed to install chart opa", fmt.Errorf("exit status 1")),
		map[string]any{"step": "deploy-opa"})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name       string
		ctx        context.Context
		err        error
		wantCode   int
		wantStdout string
		wantStderr []string
	}{
		{name: "success", ctx: context.Background(), wantCode: ExitOK},
		{name: "declined", ctx: context.Background(), err: errAborted, wantCode: ExitOK, wantStdout: "Aborted.\n"},
		{name: "prompt aborted", ctx: context.Background(), err: fmt.Errorf("prompt: %w", huh.ErrUserAborted), wantCode: ExitOK, wantStdout: "Aborted.\n"},
		{name: "interrupted", ctx: canceled, err: context.Canceled, wantCode: ExitInterrupted, wantStdout: "Aborted.\n"},
		{name: "interrupted after step error", ctx: canceled, err: stepErr, wantCode: ExitInterrupted, wantStdout: "Aborted.\n"},
		{name: "interrupted during prompt", ctx: canceled, err: huh.ErrUserAborted, wantCode: ExitInterrupted, wantStdout: "Aborted.\n"},
		{name: "usage", ctx: context.Background(), err: &usageError{err: fmt.Errorf("bad flag")}, wantCode: ExitUsage, wantStderr: []string{"bad flag"}},
		{
			name:     "step failure",
			ctx:      context.Background(),
			err:      &failedError{operation: "Installation", logPath: "/var/log/x.log", err: stepErr},
			wantCode: ExitFailure,
			wantStderr: []string{
				"Installation failed: step deploy-opa failed: failed to install chart opa",
				"See /var/log/x.log for details.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.wantCode, exitCode(tt.ctx, tt.err, &stdout, &stderr))
			assert.Equal(t, tt.wantStdout, stdout.String())
			for _, want := range tt.wantStderr {
				assert.Contains(t, stderr.String(), want)
			}
		})
	}
}
